package models

import (
	"strconv"
	"time"
)

// Quality represents the quality flag of a sample.
type Quality string

const (
	QualityGood      Quality = "good"
	QualityBad       Quality = "bad"
	QualityUncertain Quality = "uncertain"
)

// ParseQuality maps a feed-supplied quality string to a known value,
// defaulting to uncertain for anything unrecognized.
func ParseQuality(s string) Quality {
	switch Quality(s) {
	case QualityGood, QualityBad, QualityUncertain:
		return Quality(s)
	default:
		return QualityUncertain
	}
}

// Sample is one timestamped reading for a tag. Immutable once
// recorded; a tag's current sample is replaced wholesale on update.
type Sample struct {
	Value     interface{} `json:"value"` // number, string, or bool
	Quality   Quality     `json:"quality"`
	Timestamp time.Time   `json:"timestamp"`
}

// NumericValue returns the sample value as a float64 when it is
// numeric (or a numeric string), and false otherwise.
func (s Sample) NumericValue() (float64, bool) {
	switch v := s.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AggregationBucket is a derived time-grouped average for one tag.
// Never mutated after creation. SampleCount lets callers distinguish
// a real 0 average from a bucket with no numeric samples.
type AggregationBucket struct {
	BucketKey   string    `json:"bucketKey"`
	Timestamp   time.Time `json:"timestamp"`
	Average     float64   `json:"average"`
	SampleCount int       `json:"sampleCount"`
}
