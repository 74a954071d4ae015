package models

// Layouts holds per-breakpoint layout lists. Only the large
// breakpoint is persisted; the frontend derives the rest.
type Layouts struct {
	LG []LayoutItem `json:"lg"`
}

// DashboardState is the unit of persistence: the widget set plus its
// grid layout. ID is assigned by the persistence backend on first
// save and empty until then.
type DashboardState struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	IsDefault bool     `json:"isDefault"`
	Widgets   []Widget `json:"widgets"`
	Layouts   Layouts  `json:"layouts"`
}

// Clone returns a deep copy so a snapshot handed to the persistence
// layer cannot observe later in-memory mutation.
func (d DashboardState) Clone() DashboardState {
	out := d
	out.Widgets = make([]Widget, len(d.Widgets))
	for i, w := range d.Widgets {
		cw := w
		cw.TagIDs = append([]TagID(nil), w.TagIDs...)
		cw.Colors = append([]string(nil), w.Colors...)
		cw.YAxisTagIDs = append([]TagID(nil), w.YAxisTagIDs...)
		out.Widgets[i] = cw
	}
	out.Layouts.LG = append([]LayoutItem(nil), d.Layouts.LG...)
	return out
}
