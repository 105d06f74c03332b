package dataprep

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCategory is returned when a value was never observed while fitting.
var ErrUnknownCategory = errors.New("unknown category")

// LabelEncoder is a frozen bidirectional mapping between category values and
// small integers. Codes follow the sorted order of the observed values, so the
// same training set always yields the same table.
type LabelEncoder struct {
	Field   string
	Classes []string
	index   map[string]int
}

// FitLabelEncoder builds the table from the observed values of one column.
func FitLabelEncoder(field string, values []string) (*LabelEncoder, error) {
	seen := map[string]struct{}{}
	for _, v := range values {
		seen[v] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%s: no categories to encode", field)
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(field, classes), nil
}

// NewLabelEncoder rebuilds an encoder from an already ordered class list.
func NewLabelEncoder(field string, classes []string) *LabelEncoder {
	e := &LabelEncoder{Field: field, Classes: append([]string(nil), classes...)}
	e.reindex()
	return e
}

func (e *LabelEncoder) reindex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Encode returns the code for value, or ErrUnknownCategory.
func (e *LabelEncoder) Encode(value string) (int, error) {
	if e.index != nil {
		if code, ok := e.index[value]; ok {
			return code, nil
		}
	} else {
		// decoded encoders carry only Classes
		for i, c := range e.Classes {
			if c == value {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, e.Field, value)
}

// Decode returns the category for code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%s: code %d out of range [0,%d)", e.Field, code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Len is the number of known categories.
func (e *LabelEncoder) Len() int { return len(e.Classes) }
