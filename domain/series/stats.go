package series

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a series at a glance.
type Summary struct {
	Count          int     `json:"count"`
	Duration       float64 `json:"duration"`
	CurvatureMean  float64 `json:"curvature_mean"`
	CurvatureMax   float64 `json:"curvature_max"`
	CurvatureStdev float64 `json:"curvature_stdev"`
	WeightMean     float64 `json:"weight_mean"`
	WeightMax      float64 `json:"weight_max"`
	// Correlation is the Pearson correlation between weight and curvature;
	// zero when undefined.
	Correlation float64 `json:"correlation"`
}

// Summarize computes descriptive statistics for s.
func Summarize(s Snapshot) Summary {
	n := s.Len()
	sum := Summary{Count: n}
	if n == 0 {
		return sum
	}
	sum.Duration = s.Times[n-1] - s.Times[0]
	sum.CurvatureMean = stat.Mean(s.Curvatures, nil)
	sum.CurvatureMax = floats.Max(s.Curvatures)
	sum.WeightMean = stat.Mean(s.Weights, nil)
	sum.WeightMax = floats.Max(s.Weights)
	if n < 2 {
		return sum
	}
	sum.CurvatureStdev = stat.StdDev(s.Curvatures, nil)
	if sum.CurvatureStdev > 0 && stat.StdDev(s.Weights, nil) > 0 {
		sum.Correlation = stat.Correlation(s.Weights, s.Curvatures, nil)
	}
	return sum
}
