package models

// LayoutItem is the grid position and size of one widget, one-to-one
// with a Widget by id.
type LayoutItem struct {
	WidgetID string `json:"i"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
	MinW     int    `json:"minW,omitempty"`
	MinH     int    `json:"minH,omitempty"`
	MaxW     int    `json:"maxW,omitempty"`
	MaxH     int    `json:"maxH,omitempty"`
}

// Overlaps reports whether two layout items occupy any common cell.
func (l LayoutItem) Overlaps(o LayoutItem) bool {
	if l.X+l.W <= o.X || o.X+o.W <= l.X {
		return false
	}
	if l.Y+l.H <= o.Y || o.Y+o.H <= l.Y {
		return false
	}
	return true
}
