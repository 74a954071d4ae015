package dashboard

import "github.com/factory-dashboard/backend/internal/models"

// gridSize is the default grid footprint for a widget type.
type gridSize struct {
	W, H, MinW, MinH int
}

// defaultSizes maps each widget type to its default grid size. Gauge
// is special-cased in sizeFor when bound to multiple tags.
var defaultSizes = map[models.WidgetType]gridSize{
	models.WidgetKPI:           {W: 3, H: 2, MinW: 2, MinH: 2},
	models.WidgetGauge:         {W: 2, H: 2, MinW: 2, MinH: 2},
	models.WidgetTrend:         {W: 4, H: 2, MinW: 3, MinH: 2},
	models.WidgetBar:           {W: 4, H: 2, MinW: 3, MinH: 2},
	models.WidgetHorizontalBar: {W: 4, H: 3, MinW: 3, MinH: 2},
	models.WidgetDonut:         {W: 3, H: 3, MinW: 2, MinH: 2},
	models.WidgetRadar:         {W: 3, H: 3, MinW: 3, MinH: 3},
}

// sizeFor returns the default size for a widget type given how many
// tags it binds.
func sizeFor(t models.WidgetType, tagCount int) gridSize {
	size, ok := defaultSizes[t]
	if !ok {
		return gridSize{W: 3, H: 2, MinW: 2, MinH: 2}
	}
	if t == models.WidgetGauge && tagCount > 1 {
		return gridSize{W: 4, H: 3, MinW: 2, MinH: 2}
	}
	return size
}

// palette is the fixed ordered color palette used when a widget is
// created without explicit colors. Assignment cycles by tag index, so
// identical tag orderings always get identical colors.
var palette = []string{
	"#3b82f6", // blue
	"#ef4444", // red
	"#22c55e", // green
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f97316", // orange
	"#6366f1", // indigo
	"#84cc16", // lime
	"#06b6d4", // cyan
	"#a855f7", // purple
	"#eab308", // yellow
	"#10b981", // emerald
	"#f43f5e", // rose
	"#0ea5e9", // sky
	"#d946ef", // fuchsia
	"#65a30d", // olive
	"#dc2626", // dark red
	"#2563eb", // dark blue
	"#059669", // dark green
	"#c026d3", // magenta
	"#ea580c", // burnt orange
	"#7c3aed", // deep violet
}

// defaultColors returns n palette colors starting at index 0, cycling
// modulo the palette length.
func defaultColors(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = palette[i%len(palette)]
	}
	return out
}
