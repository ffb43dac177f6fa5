package sensor

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRecord marks a line that carries no numeric weight.
var ErrInvalidRecord = errors.New("sensor: invalid weight record")

// LineDecoder splits a byte stream into trimmed, non-empty lines. The
// incomplete trailing line is kept until more data arrives.
type LineDecoder struct {
	pending []byte
}

// Feed appends chunk and returns every completed line.
func (d *LineDecoder) Feed(chunk []byte) []string {
	d.pending = append(d.pending, chunk...)
	var lines []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(d.pending[:i]))
		d.pending = d.pending[i+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return lines
}

// Pending returns the buffered partial line.
func (d *LineDecoder) Pending() string { return string(d.pending) }

// Reset drops the buffered partial line.
func (d *LineDecoder) Reset() { d.pending = nil }

var numberPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseWeight extracts the weight from "WEIGHT:<n>", "W:<n>" or a bare
// number. Trailing garbage after a numeric prefix is ignored.
func ParseWeight(line string) (float64, error) {
	body := line
	switch {
	case strings.HasPrefix(line, "WEIGHT:"):
		body = line[len("WEIGHT:"):]
	case strings.HasPrefix(line, "W:"):
		body = line[len("W:"):]
	}
	num := numberPrefix.FindString(strings.TrimLeft(body, " \t\r\n\v\f"))
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecord, line)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecord, line)
	}
	return v, nil
}
