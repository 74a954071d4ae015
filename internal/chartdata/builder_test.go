package chartdata

import (
	"testing"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/store"
)

func testLookup() TagLookup {
	tags := map[models.TagID]models.Tag{
		"1": {ID: "1", Name: "Tank Level", Unit: "%"},
		"2": {ID: "2", Name: "Pump Flow", Unit: "l/min"},
		"3": {ID: "3", Name: "Motor Speed"},
	}
	return func(id models.TagID) (models.Tag, bool) {
		tag, ok := tags[id]
		return tag, ok
	}
}

func newTestBuilder() (*Builder, *store.SampleStore) {
	samples := store.New()
	return NewBuilder(samples, testLookup()), samples
}

func put(s *store.SampleStore, id models.TagID, v interface{}) {
	s.UpsertLive(id, models.Sample{Value: v, Quality: models.QualityGood, Timestamp: time.Now()})
}

func TestBuild_KPI(t *testing.T) {
	t.Run("formula result", func(t *testing.T) {
		b, samples := newTestBuilder()
		put(samples, "1", 4.0)
		put(samples, "2", 2.0)

		data, err := b.Build(models.Widget{
			Type: models.WidgetKPI, TagIDs: []models.TagID{"1", "2"},
			Formula: "T1 / T2 + 1", Unit: "ratio",
		})
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		kpi := data.(KPIData)
		if kpi.Value != 3 || kpi.Unit != "ratio" {
			t.Errorf("got %+v, want value 3 unit ratio", kpi)
		}
	})

	t.Run("no formula falls back to first tag", func(t *testing.T) {
		b, samples := newTestBuilder()
		put(samples, "1", 42.5)

		data, _ := b.Build(models.Widget{Type: models.WidgetKPI, TagIDs: []models.TagID{"1"}})
		if kpi := data.(KPIData); kpi.Value != 42.5 {
			t.Errorf("expected 42.5, got %v", kpi.Value)
		}
	})

	t.Run("broken formula degrades to 0", func(t *testing.T) {
		b, samples := newTestBuilder()
		put(samples, "1", 9.0)

		data, _ := b.Build(models.Widget{
			Type: models.WidgetKPI, TagIDs: []models.TagID{"1"}, Formula: "alert(1)",
		})
		if kpi := data.(KPIData); kpi.Value != 0 {
			t.Errorf("expected 0 on formula failure, got %v", kpi.Value)
		}
	})
}

func TestGaugeMax(t *testing.T) {
	cases := map[string]float64{
		"Tank Level":        100,
		"Pump Flow":         200,
		"Line Pressure":     150,
		"Oven Temperature":  100,
		"Motor Speed":       3000,
		"Something Unknown": 100,
	}
	for name, want := range cases {
		if got := GaugeMax(name); got != want {
			t.Errorf("GaugeMax(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestBuild_Gauge(t *testing.T) {
	b, samples := newTestBuilder()
	put(samples, "2", 50.0) // Pump Flow, max 200

	data, err := b.Build(models.Widget{
		Type: models.WidgetGauge, TagIDs: []models.TagID{"2"},
		Colors: []string{"#ff0000"},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	gauge := data.(GaugeData)
	if len(gauge.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(gauge.Items))
	}
	item := gauge.Items[0]
	if item.Value != 50 || item.Max != 200 || item.Percent != 25 {
		t.Errorf("got value=%v max=%v percent=%v, want 50/200/25", item.Value, item.Max, item.Percent)
	}
	if item.Color != "#ff0000" {
		t.Errorf("expected widget color, got %s", item.Color)
	}
}

func TestBuild_TrendTimeAxis(t *testing.T) {
	b, samples := newTestBuilder()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	samples.ReplaceHistory("1", []models.Sample{
		{Value: 10, Quality: models.QualityGood, Timestamp: day.Add(9*time.Hour + 10*time.Minute)},
		{Value: 20, Quality: models.QualityGood, Timestamp: day.Add(9*time.Hour + 40*time.Minute)},
		{Value: 30, Quality: models.QualityGood, Timestamp: day.Add(10*time.Hour + 5*time.Minute)},
	})

	data, err := b.Build(models.Widget{
		Type: models.WidgetTrend, TagIDs: []models.TagID{"1"},
		XAxisType: models.XAxisTime, TimeAggregation: models.GranularityHourly,
		Colors: []string{"#0000ff"},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	series := data.(SeriesData)
	if len(series.Labels) != 2 || series.Labels[0] != "9:00" || series.Labels[1] != "10:00" {
		t.Errorf("unexpected labels: %v", series.Labels)
	}
	if len(series.Datasets) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(series.Datasets))
	}
	ds := series.Datasets[0]
	if ds.Label != "Tank Level" || ds.Color != "#0000ff" {
		t.Errorf("dataset meta wrong: %+v", ds)
	}
	if len(ds.Data) != 2 || ds.Data[0] != 15 || ds.Data[1] != 30 {
		t.Errorf("unexpected data: %v", ds.Data)
	}
}

func TestBuild_TrendSlicedToMostRecent(t *testing.T) {
	b, samples := newTestBuilder()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	series := make([]models.Sample, 0, 40)
	for i := 0; i < 40; i++ {
		series = append(series, models.Sample{
			Value: i, Quality: models.QualityGood,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	samples.ReplaceHistory("1", series)

	data, _ := b.Build(models.Widget{
		Type: models.WidgetTrend, TagIDs: []models.TagID{"1"},
		TimeAggregation: models.GranularityHourly,
	})
	sd := data.(SeriesData)
	if len(sd.Labels) != TrendPoints {
		t.Errorf("expected %d labels, got %d", TrendPoints, len(sd.Labels))
	}
	ds := sd.Datasets[0]
	if ds.Data[len(ds.Data)-1] != 39 {
		t.Errorf("expected most recent bucket last, got %v", ds.Data[len(ds.Data)-1])
	}
	if ds.Data[0] != 10 {
		t.Errorf("expected slice to start at bucket 10, got %v", ds.Data[0])
	}
}

func TestBuild_BarTagAxis(t *testing.T) {
	b, samples := newTestBuilder()
	put(samples, "1", 5.0)
	put(samples, "2", 7.0)

	data, _ := b.Build(models.Widget{
		Type: models.WidgetBar, Title: "Current",
		TagIDs:    []models.TagID{"1", "2"},
		XAxisType: models.XAxisTag,
	})
	sd := data.(SeriesData)
	if len(sd.Labels) != 2 || sd.Labels[0] != "Tank Level" || sd.Labels[1] != "Pump Flow" {
		t.Errorf("unexpected labels: %v", sd.Labels)
	}
	if len(sd.Datasets) != 1 || sd.Datasets[0].Data[0] != 5 || sd.Datasets[0].Data[1] != 7 {
		t.Errorf("unexpected datasets: %+v", sd.Datasets)
	}
}

func TestBuild_Donut(t *testing.T) {
	b, samples := newTestBuilder()
	put(samples, "1", -5.0)
	put(samples, "2", 10.0)

	data, _ := b.Build(models.Widget{
		Type: models.WidgetDonut, TagIDs: []models.TagID{"1", "2"},
		Colors: []string{"#a", "#b"},
	})
	pd := data.(PointData)
	if pd.Values[0] != 5 {
		t.Errorf("donut must use absolute values, got %v", pd.Values[0])
	}
	if pd.Colors[0] != "#a" || pd.Colors[1] != "#b" {
		t.Errorf("colors not assigned by index: %v", pd.Colors)
	}
}

func TestBuild_Radar(t *testing.T) {
	b, samples := newTestBuilder()
	put(samples, "1", -5.0)

	data, _ := b.Build(models.Widget{Type: models.WidgetRadar, TagIDs: []models.TagID{"1"}})
	pd := data.(PointData)
	if pd.Values[0] != -5 {
		t.Errorf("radar keeps signed values, got %v", pd.Values[0])
	}
}

func TestBuild_UnknownType(t *testing.T) {
	b, _ := newTestBuilder()
	if _, err := b.Build(models.Widget{Type: "sparkline"}); err == nil {
		t.Error("expected error for unknown widget type")
	}
}

func TestBuild_YAxisTagsDefault(t *testing.T) {
	b, samples := newTestBuilder()
	put(samples, "3", 1500.0)

	// No explicit YAxisTagIDs: TagIDs are the Y axis.
	data, _ := b.Build(models.Widget{
		Type: models.WidgetBar, Title: "Speeds",
		TagIDs:    []models.TagID{"3"},
		XAxisType: models.XAxisTag,
	})
	sd := data.(SeriesData)
	if sd.Labels[0] != "Motor Speed" || sd.Datasets[0].Data[0] != 1500 {
		t.Errorf("YAxisTags default not applied: %+v", sd)
	}
}
