// Package models contains domain types for the factory dashboard backend.
package models

import (
	"fmt"
	"strconv"
)

// TagID is the canonical string identifier for a measurement point.
// Upstream sources emit tag ids as both numbers and strings; every
// boundary must normalize to TagID before using one as a map key.
type TagID string

// NormalizeTagID coerces any upstream representation of a tag id
// (string, integer, float from JSON decoding) to its canonical form.
func NormalizeTagID(v interface{}) TagID {
	switch t := v.(type) {
	case TagID:
		return t
	case string:
		return TagID(t)
	case int:
		return TagID(strconv.Itoa(t))
	case int64:
		return TagID(strconv.FormatInt(t, 10))
	case float64:
		// JSON numbers decode as float64; integral ids must not pick
		// up a trailing ".0".
		if t == float64(int64(t)) {
			return TagID(strconv.FormatInt(int64(t), 10))
		}
		return TagID(strconv.FormatFloat(t, 'f', -1, 64))
	case fmt.Stringer:
		return TagID(t.String())
	default:
		return TagID(fmt.Sprintf("%v", t))
	}
}

func (id TagID) String() string { return string(id) }

// Tag is a configured measurement point on a PLC.
type Tag struct {
	ID       TagID  `json:"id"`
	Name     string `json:"name"`
	PLCID    string `json:"plcId"`
	Unit     string `json:"unit,omitempty"`
	DataType string `json:"dataType,omitempty"`
}

// PLC is a configured controller that tags belong to.
type PLC struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
}
