package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"propindex/pkg/common"
)

// CSVSource reads listings from a CSV file with a header row. Columns are
// matched by name, so order and extra columns do not matter. Rows with an
// empty or unparseable numeric cell are skipped.
type CSVSource struct {
	path    string
	skipped int
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Skipped reports how many rows the last LoadAll dropped.
func (s *CSVSource) Skipped() int {
	return s.skipped
}

func (s *CSVSource) LoadAll() ([]common.Property, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.read(f)
}

func (s *CSVSource) read(r io.Reader) ([]common.Property, error) {
	s.skipped = 0

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, len(Columns))
	for i, name := range Columns {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[i] = pos
	}

	var records []common.Property
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				s.skipped++
				continue
			}
			return nil, err
		}

		p, ok := parseRow(row, cols)
		if !ok {
			s.skipped++
			continue
		}
		records = append(records, p)
	}
	return records, nil
}

func parseRow(row []string, cols []int) (common.Property, bool) {
	cell := func(i int) string {
		if cols[i] >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[cols[i]])
	}

	var nums [4]float64
	for i := range nums {
		v, err := strconv.ParseFloat(cell(i+1), 64)
		if err != nil || math.IsNaN(v) {
			return common.Property{}, false
		}
		nums[i] = v
	}
	// pandas exports integer columns with missing values as floats ("3.0").
	if nums[0] != math.Trunc(nums[0]) || nums[1] != math.Trunc(nums[1]) {
		return common.Property{}, false
	}

	return common.Property{
		City:         cell(0),
		Bedrooms:     int(nums[0]),
		Bathrooms:    int(nums[1]),
		Price:        nums[2],
		SurfaceTotal: nums[3],
	}, true
}

func (s *CSVSource) Close() error {
	return nil
}
