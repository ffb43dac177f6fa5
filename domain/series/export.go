package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ErrNoData is returned when exporting an empty series.
var ErrNoData = errors.New("series: no data to export")

// CSVHeader is the column header row.
var CSVHeader = []string{"Waktu (detik)", "Kelengkungan (mm)", "Berat (kg)"}

// WriteCSV writes the header and one row per sample. Time uses the shortest
// decimal form; curvature and weight use two decimals.
func WriteCSV(w io.Writer, s Snapshot) error {
	if s.Len() == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < s.Len(); i++ {
		rec := []string{
			strconv.FormatFloat(s.Times[i], 'f', -1, 64),
			strconv.FormatFloat(s.Curvatures[i], 'f', 2, 64),
			strconv.FormatFloat(s.Weights[i], 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName returns curvature_data_<timestamp>.csv for now (UTC).
func ExportFileName(now time.Time) string {
	return "curvature_data_" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}
