// Package aggregate buckets raw tag samples into coarser time
// granularities for trend and bar widgets.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/factory-dashboard/backend/internal/models"
)

// Aggregate groups a time-ordered series into one averaged bucket per
// hour/day/week. GranularityNone returns the input unchanged (one
// bucket per sample, average = the sample's numeric value).
//
// Bucket membership is computed in the local timezone; weeks start on
// Sunday. Non-numeric samples are excluded from the mean but do not
// error. A bucket whose group has no numeric samples keeps Average 0
// with SampleCount 0 so callers can tell a data gap from a real zero.
func Aggregate(series []models.Sample, g models.Granularity) []models.AggregationBucket {
	if len(series) == 0 {
		return []models.AggregationBucket{}
	}

	if g == models.GranularityNone || g == "" {
		out := make([]models.AggregationBucket, 0, len(series))
		for _, s := range series {
			v, ok := s.NumericValue()
			count := 1
			if !ok {
				v, count = 0, 0
			}
			out = append(out, models.AggregationBucket{
				BucketKey:   s.Timestamp.Format(time.RFC3339),
				Timestamp:   s.Timestamp,
				Average:     v,
				SampleCount: count,
			})
		}
		return out
	}

	type group struct {
		start  time.Time
		values []float64
		total  int
	}
	groups := make(map[int64]*group)

	for _, s := range series {
		start := truncate(s.Timestamp, g)
		key := start.Unix()
		grp, ok := groups[key]
		if !ok {
			grp = &group{start: start}
			groups[key] = grp
		}
		grp.total++
		if v, ok := s.NumericValue(); ok {
			grp.values = append(grp.values, v)
		}
	}

	out := make([]models.AggregationBucket, 0, len(groups))
	for _, grp := range groups {
		avg := 0.0
		if len(grp.values) > 0 {
			avg, _ = stats.Mean(grp.values)
		}
		out = append(out, models.AggregationBucket{
			BucketKey:   Label(grp.start, g),
			Timestamp:   grp.start,
			Average:     avg,
			SampleCount: len(grp.values),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// truncate returns the start of the bucket containing ts.
func truncate(ts time.Time, g models.Granularity) time.Time {
	ts = ts.Local()
	switch g {
	case models.GranularityHourly:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
	case models.GranularityDaily:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	case models.GranularityWeekly:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		return day.AddDate(0, 0, -int(day.Weekday())) // back to Sunday
	default:
		return ts
	}
}

// Label formats a bucket start for chart axes: "H:00" hourly, "M/D"
// daily, "Week N" weekly. Plain Gregorian math, no locale.
func Label(ts time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityHourly:
		return fmt.Sprintf("%d:00", ts.Hour())
	case models.GranularityDaily:
		return fmt.Sprintf("%d/%d", int(ts.Month()), ts.Day())
	case models.GranularityWeekly:
		week := (ts.YearDay()-1)/7 + 1
		return fmt.Sprintf("Week %d", week)
	default:
		return ts.Format("15:04:05")
	}
}
