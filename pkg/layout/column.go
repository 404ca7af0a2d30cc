package layout

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/armory/pkg/errors"
)

// Column is a zero-based column index. In YAML it is written either as a
// spreadsheet letter ("A", "H", "AB") or as a zero-based integer.
type Column int

// ParseColumn parses a spreadsheet letter or a zero-based integer.
func ParseColumn(s string) (Column, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NewValidationError("column", s, "empty column")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errors.NewValidationError("column", s, "column index must not be negative")
		}
		return Column(n), nil
	}
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(s))
	if err != nil {
		return 0, errors.NewValidationError("column", s, err.Error())
	}
	return Column(n - 1), nil
}

// Letter returns the spreadsheet letter of the column.
func (c Column) Letter() string {
	name, err := excelize.ColumnNumberToName(int(c) + 1)
	if err != nil {
		return strconv.Itoa(int(c))
	}
	return name
}

// String implements fmt.Stringer.
func (c Column) String() string { return c.Letter() }

// MarshalYAML writes the column as a letter.
func (c Column) MarshalYAML() (any, error) {
	return c.Letter(), nil
}

// UnmarshalYAML accepts a letter or an integer.
func (c *Column) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case float64:
		s = strconv.Itoa(int(v))
	default:
		return errors.NewValidationError("column", raw, "column must be a letter or an index")
	}
	parsed, err := ParseColumn(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// cell returns the trimmed cell at c, empty when the row is short.
func (c Column) cell(row []string) string {
	if int(c) < 0 || int(c) >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

// Pair is a (type column, value column) pair of a paired layout.
type Pair struct {
	Type  Column `yaml:"type" json:"type"`
	Value Column `yaml:"value" json:"value"`
}
