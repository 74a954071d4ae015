package models

// WidgetType enumerates the supported dashboard tile types.
type WidgetType string

const (
	WidgetKPI           WidgetType = "kpi"
	WidgetGauge         WidgetType = "gauge"
	WidgetTrend         WidgetType = "trend"
	WidgetBar           WidgetType = "bar"
	WidgetHorizontalBar WidgetType = "horizontalBar"
	WidgetDonut         WidgetType = "donut"
	WidgetRadar         WidgetType = "radar"
)

// ValidWidgetType reports whether t is a known widget type.
func ValidWidgetType(t WidgetType) bool {
	switch t {
	case WidgetKPI, WidgetGauge, WidgetTrend, WidgetBar,
		WidgetHorizontalBar, WidgetDonut, WidgetRadar:
		return true
	}
	return false
}

// XAxisType selects what the X axis of a trend/bar widget represents.
type XAxisType string

const (
	XAxisTime  XAxisType = "time"
	XAxisTag   XAxisType = "tag"
	XAxisIndex XAxisType = "index"
)

// Granularity is the time-bucketing level for aggregation.
type Granularity string

const (
	GranularityNone   Granularity = "none"
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// Widget is the declarative description of one dashboard tile.
type Widget struct {
	ID              string      `json:"id"`
	Type            WidgetType  `json:"type"`
	Title           string      `json:"title"`
	TagIDs          []TagID     `json:"tagIds"`
	Colors          []string    `json:"colors"`
	Formula         string      `json:"formula,omitempty"`
	Unit            string      `json:"unit,omitempty"`
	XAxisType       XAxisType   `json:"xAxisType,omitempty"`
	XAxisTagID      TagID       `json:"xAxisTagId,omitempty"` // meaningful only when XAxisType == tag
	YAxisTagIDs     []TagID     `json:"yAxisTagIds,omitempty"`
	TimeAggregation Granularity `json:"timeAggregation,omitempty"`
	ShowTimeRange   bool        `json:"showTimeRange,omitempty"`
}

// YAxisTags returns the effective Y-axis tag list: YAxisTagIDs when
// set, otherwise the widget's bound tags.
func (w *Widget) YAxisTags() []TagID {
	if len(w.YAxisTagIDs) > 0 {
		return w.YAxisTagIDs
	}
	return w.TagIDs
}

// ColorAt returns the series color for index i, cycling the stored
// color list when it is shorter than the number of series.
func (w *Widget) ColorAt(i int) string {
	if len(w.Colors) == 0 {
		return ""
	}
	return w.Colors[i%len(w.Colors)]
}
