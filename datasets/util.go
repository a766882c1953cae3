package datasets

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func parseFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

// splitValues breaks a raw line into value tokens. The UCI HAR files are
// whitespace-delimited, but the single-column meta files also round-trip
// through comma-delimited tooling, so both separators are accepted.
func splitValues(line string) []string {
	line = strings.ReplaceAll(line, ",", " ")
	return strings.Fields(line)
}

// ReadMatrix reads a whitespace-delimited numeric file with no header into a
// dense row-major matrix. Every row must have the same number of columns;
// ragged input is rejected. Blank lines are skipped.
func ReadMatrix(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(file)
	// signal rows are long (128 cols of %e floats); give the scanner room
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := splitValues(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := parseFloat64(f)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d col %d: %w", path, lineNo, i+1, err)
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%s: line %d has %d columns, expected %d", path, lineNo, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// readIntColumn reads a single-column file of integers, one value per line.
func readIntColumn(path string) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var vals []int
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := splitValues(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, lineNo, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}
