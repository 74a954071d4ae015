// Package chartdata shapes sample-store contents into the label and
// series arrays each widget type needs. Rendering itself happens in
// the frontend; this package only produces data.
package chartdata

import (
	"fmt"
	"math"
	"strings"

	"github.com/factory-dashboard/backend/internal/aggregate"
	"github.com/factory-dashboard/backend/internal/formula"
	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/store"
)

// Bucket slice lengths per widget type: only the most recent buckets
// are charted.
const (
	TrendPoints         = 30
	BarPoints           = 20
	HorizontalBarPoints = 15
)

// TagLookup resolves a tag id to its configured metadata (display
// name, unit). Missing tags resolve to a zero Tag.
type TagLookup func(models.TagID) (models.Tag, bool)

// KPIData is the single display value of a kpi widget.
type KPIData struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// GaugeItem is one gauge needle: the current value and its share of
// the type-specific maximum.
type GaugeItem struct {
	TagID   models.TagID `json:"tagId"`
	Name    string       `json:"name"`
	Value   float64      `json:"value"`
	Max     float64      `json:"max"`
	Percent float64      `json:"percent"`
	Color   string       `json:"color"`
}

// GaugeData holds one item per bound tag.
type GaugeData struct {
	Items []GaugeItem `json:"items"`
}

// Dataset is one chart series.
type Dataset struct {
	Label        string    `json:"label"`
	Color        string    `json:"color"`
	Data         []float64 `json:"data"`
	SampleCounts []int     `json:"sampleCounts,omitempty"`
}

// SeriesData is the labels + datasets shape used by trend and bar
// widgets.
type SeriesData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// PointData is the one-value-per-tag shape used by donut and radar
// widgets.
type PointData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// Builder assembles chart data from the sample store.
type Builder struct {
	samples *store.SampleStore
	lookup  TagLookup
}

// NewBuilder creates a Builder. lookup may be nil, in which case tag
// ids double as display names.
func NewBuilder(samples *store.SampleStore, lookup TagLookup) *Builder {
	if lookup == nil {
		lookup = func(models.TagID) (models.Tag, bool) { return models.Tag{}, false }
	}
	return &Builder{samples: samples, lookup: lookup}
}

// builders is the strategy table dispatching widget type to its data
// builder.
var builders = map[models.WidgetType]func(*Builder, models.Widget) interface{}{
	models.WidgetKPI:           (*Builder).buildKPI,
	models.WidgetGauge:         (*Builder).buildGauge,
	models.WidgetTrend:         func(b *Builder, w models.Widget) interface{} { return b.buildSeries(w, TrendPoints) },
	models.WidgetBar:           func(b *Builder, w models.Widget) interface{} { return b.buildSeries(w, BarPoints) },
	models.WidgetHorizontalBar: func(b *Builder, w models.Widget) interface{} { return b.buildSeries(w, HorizontalBarPoints) },
	models.WidgetDonut:         func(b *Builder, w models.Widget) interface{} { return b.buildPoints(w, true) },
	models.WidgetRadar:         func(b *Builder, w models.Widget) interface{} { return b.buildPoints(w, false) },
}

// Build produces the chart data for a widget. Unknown types yield an
// error; every known type degrades to zeroed data rather than failing.
func (b *Builder) Build(w models.Widget) (interface{}, error) {
	build, ok := builders[w.Type]
	if !ok {
		return nil, fmt.Errorf("unknown widget type: %s", w.Type)
	}
	return build(b, w), nil
}

func (b *Builder) tagName(id models.TagID) string {
	if tag, ok := b.lookup(id); ok && tag.Name != "" {
		return tag.Name
	}
	return id.String()
}

func (b *Builder) buildKPI(w models.Widget) interface{} {
	var value float64
	if w.Formula != "" {
		names := make(map[models.TagID]string, len(w.TagIDs))
		for _, id := range w.TagIDs {
			names[id] = b.tagName(id)
		}
		value = formula.Evaluate(w.Formula, w.TagIDs, names, b.samples.CurrentNumeric(w.TagIDs))
	} else if len(w.TagIDs) > 0 {
		if sample, ok := b.samples.Get(w.TagIDs[0]); ok {
			value, _ = sample.NumericValue()
		}
	}
	return KPIData{Value: value, Unit: w.Unit}
}

// gaugeMaxTable maps display-name substrings to the gauge's full-scale
// value. Checked in order; first match wins, default 100.
var gaugeMaxTable = []struct {
	substr string
	max    float64
}{
	{"Level", 100},
	{"Flow", 200},
	{"Pressure", 150},
	{"Temperature", 100},
	{"Speed", 3000},
}

// GaugeMax returns the full-scale value inferred from a tag display
// name.
func GaugeMax(name string) float64 {
	for _, entry := range gaugeMaxTable {
		if strings.Contains(name, entry.substr) {
			return entry.max
		}
	}
	return 100
}

func (b *Builder) buildGauge(w models.Widget) interface{} {
	items := make([]GaugeItem, 0, len(w.TagIDs))
	for i, id := range w.TagIDs {
		name := b.tagName(id)
		var value float64
		if sample, ok := b.samples.Get(id); ok {
			value, _ = sample.NumericValue()
		}
		max := GaugeMax(name)
		items = append(items, GaugeItem{
			TagID:   id,
			Name:    name,
			Value:   value,
			Max:     max,
			Percent: value / max * 100,
			Color:   w.ColorAt(i),
		})
	}
	return GaugeData{Items: items}
}

func (b *Builder) buildSeries(w models.Widget, points int) interface{} {
	yTags := w.YAxisTags()
	if len(yTags) == 0 {
		return SeriesData{Labels: []string{}, Datasets: []Dataset{}}
	}

	switch w.XAxisType {
	case models.XAxisTag, models.XAxisIndex:
		return b.buildCurrentSeries(w, yTags)
	default: // time axis
		return b.buildTimeSeries(w, yTags, points)
	}
}

// buildTimeSeries charts the aggregated history of each Y-axis tag,
// labeled from the first tag's buckets and sliced to the most recent
// points.
func (b *Builder) buildTimeSeries(w models.Widget, yTags []models.TagID, points int) SeriesData {
	granularity := w.TimeAggregation
	if granularity == "" {
		granularity = models.GranularityNone
	}

	first := aggregate.Aggregate(b.samples.GetSeries(yTags[0]), granularity)
	first = lastN(first, points)

	labels := make([]string, len(first))
	for i, bucket := range first {
		labels[i] = bucketLabel(bucket, granularity)
	}

	datasets := make([]Dataset, 0, len(yTags))
	for i, id := range yTags {
		buckets := first
		if i > 0 {
			buckets = lastN(aggregate.Aggregate(b.samples.GetSeries(id), granularity), points)
		}
		data := make([]float64, len(buckets))
		counts := make([]int, len(buckets))
		for j, bucket := range buckets {
			data[j] = bucket.Average
			counts[j] = bucket.SampleCount
		}
		datasets = append(datasets, Dataset{
			Label:        b.tagName(id),
			Color:        w.ColorAt(i),
			Data:         data,
			SampleCounts: counts,
		})
	}

	return SeriesData{Labels: labels, Datasets: datasets}
}

// buildCurrentSeries charts one current value per Y-axis tag, labeled
// by tag name or positional index.
func (b *Builder) buildCurrentSeries(w models.Widget, yTags []models.TagID) SeriesData {
	labels := make([]string, len(yTags))
	data := make([]float64, len(yTags))
	for i, id := range yTags {
		if w.XAxisType == models.XAxisIndex {
			labels[i] = fmt.Sprintf("%d", i+1)
		} else {
			labels[i] = b.tagName(id)
		}
		if sample, ok := b.samples.Get(id); ok {
			data[i], _ = sample.NumericValue()
		}
	}

	return SeriesData{
		Labels: labels,
		Datasets: []Dataset{{
			Label: w.Title,
			Color: w.ColorAt(0),
			Data:  data,
		}},
	}
}

func (b *Builder) buildPoints(w models.Widget, absolute bool) interface{} {
	labels := make([]string, len(w.TagIDs))
	values := make([]float64, len(w.TagIDs))
	colors := make([]string, len(w.TagIDs))
	for i, id := range w.TagIDs {
		labels[i] = b.tagName(id)
		if sample, ok := b.samples.Get(id); ok {
			values[i], _ = sample.NumericValue()
		}
		if absolute {
			values[i] = math.Abs(values[i])
		}
		colors[i] = w.ColorAt(i)
	}
	return PointData{Labels: labels, Values: values, Colors: colors}
}

func lastN(buckets []models.AggregationBucket, n int) []models.AggregationBucket {
	if len(buckets) > n {
		return buckets[len(buckets)-n:]
	}
	return buckets
}

func bucketLabel(bucket models.AggregationBucket, g models.Granularity) string {
	if g == models.GranularityNone {
		return bucket.Timestamp.Format("15:04:05")
	}
	return aggregate.Label(bucket.Timestamp, g)
}
