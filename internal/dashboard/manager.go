// Package dashboard manages the widget set and grid layout of the
// active dashboard, including debounced persistence.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/persist"
)

// SaveDebounce is the quiet period after the last mutation before the
// dashboard is persisted. A mutation during the window restarts it.
const SaveDebounce = 1 * time.Second

var (
	ErrEmptyTitle    = errors.New("widget title must not be empty")
	ErrNoTags        = errors.New("widget must bind at least one tag")
	ErrUnknownType   = errors.New("unknown widget type")
	ErrWidgetMissing = errors.New("widget not found")
)

// CreateWidgetParams carries the builder-dialog input for a new widget.
type CreateWidgetParams struct {
	Type            models.WidgetType  `json:"type"`
	Title           string             `json:"title"`
	TagIDs          []models.TagID     `json:"tagIds"`
	Colors          []string           `json:"colors,omitempty"`
	Formula         string             `json:"formula,omitempty"`
	Unit            string             `json:"unit,omitempty"`
	XAxisType       models.XAxisType   `json:"xAxisType,omitempty"`
	XAxisTagID      models.TagID       `json:"xAxisTagId,omitempty"`
	YAxisTagIDs     []models.TagID     `json:"yAxisTagIds,omitempty"`
	TimeAggregation models.Granularity `json:"timeAggregation,omitempty"`
	ShowTimeRange   bool               `json:"showTimeRange,omitempty"`
}

// Manager owns the active DashboardState. All mutation goes through
// the manager, which keeps widget and layout in lockstep and arms the
// debounced save after every change.
//
// Persistence is optimistic: the in-memory state stays authoritative
// when a save fails; the error is logged and kept on LastSaveError,
// and the next mutation retries.
type Manager struct {
	mu    sync.RWMutex
	state models.DashboardState

	store       persist.Store
	saveDelay   time.Duration
	saveTimer   *time.Timer
	closed      bool
	lastSaveErr error
	onSaved     func(err error) // test/metrics hook, may be nil

	log *logrus.Entry
}

// NewManager creates a Manager persisting through store with the
// standard debounce window.
func NewManager(store persist.Store, log *logrus.Logger) *Manager {
	return NewManagerWithDelay(store, log, SaveDebounce)
}

// NewManagerWithDelay creates a Manager with a custom debounce window.
func NewManagerWithDelay(store persist.Store, log *logrus.Logger, delay time.Duration) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		state:     models.DashboardState{Name: "Dashboard"},
		store:     store,
		saveDelay: delay,
		log:       log.WithField("component", "dashboard"),
	}
}

// SetOnSaved registers a callback invoked after every persistence
// attempt with its result.
func (m *Manager) SetOnSaved(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSaved = fn
}

// Load replaces the in-memory state with a persisted dashboard.
func (m *Manager) Load(state models.DashboardState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
}

// State returns a deep copy of the current dashboard state.
func (m *Manager) State() models.DashboardState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Widget returns one widget by id.
func (m *Manager) Widget(id string) (models.Widget, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.state.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return models.Widget{}, false
}

// WidgetCount returns the number of widgets on the dashboard.
func (m *Manager) WidgetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.Widgets)
}

// LastSaveError returns the error from the most recent persistence
// attempt, nil after a successful save.
func (m *Manager) LastSaveError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSaveErr
}

// CreateWidget validates the params, creates the widget with
// type-specific default size and deterministic colors, and places its
// layout item below all existing items. Validation failure mutates
// nothing.
func (m *Manager) CreateWidget(params CreateWidgetParams) (models.Widget, models.LayoutItem, error) {
	if params.Title == "" {
		return models.Widget{}, models.LayoutItem{}, ErrEmptyTitle
	}
	if len(params.TagIDs) == 0 {
		return models.Widget{}, models.LayoutItem{}, ErrNoTags
	}
	if !models.ValidWidgetType(params.Type) {
		return models.Widget{}, models.LayoutItem{}, ErrUnknownType
	}

	tagIDs := make([]models.TagID, len(params.TagIDs))
	for i, raw := range params.TagIDs {
		tagIDs[i] = models.NormalizeTagID(raw)
	}

	colors := params.Colors
	if len(colors) == 0 {
		colors = defaultColors(len(tagIDs))
	}

	widget := models.Widget{
		ID:              uuid.New().String(),
		Type:            params.Type,
		Title:           params.Title,
		TagIDs:          tagIDs,
		Colors:          colors,
		Formula:         params.Formula,
		Unit:            params.Unit,
		XAxisType:       params.XAxisType,
		XAxisTagID:      models.NormalizeTagID(params.XAxisTagID),
		YAxisTagIDs:     params.YAxisTagIDs,
		TimeAggregation: params.TimeAggregation,
		ShowTimeRange:   params.ShowTimeRange,
	}

	size := sizeFor(params.Type, len(tagIDs))

	m.mu.Lock()
	defer m.mu.Unlock()

	item := models.LayoutItem{
		WidgetID: widget.ID,
		X:        0,
		Y:        m.nextYLocked(),
		W:        size.W,
		H:        size.H,
		MinW:     size.MinW,
		MinH:     size.MinH,
	}

	m.state.Widgets = append(m.state.Widgets, widget)
	m.state.Layouts.LG = append(m.state.Layouts.LG, item)
	m.scheduleSaveLocked()

	return widget, item, nil
}

// nextYLocked returns the stacking position for a new widget: below
// every existing layout item.
func (m *Manager) nextYLocked() int {
	maxY := 0
	for _, item := range m.state.Layouts.LG {
		if bottom := item.Y + item.H; bottom > maxY {
			maxY = bottom
		}
	}
	return maxY
}

// UpdateWidget replaces a widget's configuration, keeping its layout.
func (m *Manager) UpdateWidget(widget models.Widget) error {
	if widget.Title == "" {
		return ErrEmptyTitle
	}
	if len(widget.TagIDs) == 0 {
		return ErrNoTags
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.state.Widgets {
		if w.ID == widget.ID {
			m.state.Widgets[i] = widget
			m.scheduleSaveLocked()
			return nil
		}
	}
	return ErrWidgetMissing
}

// RemoveWidget removes the widget and its layout item atomically:
// either both go or neither does.
func (m *Manager) RemoveWidget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, w := range m.state.Widgets {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrWidgetMissing
	}

	m.state.Widgets = append(m.state.Widgets[:idx], m.state.Widgets[idx+1:]...)
	for i, item := range m.state.Layouts.LG {
		if item.WidgetID == id {
			m.state.Layouts.LG = append(m.state.Layouts.LG[:i], m.state.Layouts.LG[i+1:]...)
			break
		}
	}
	m.scheduleSaveLocked()
	return nil
}

// ClearAll removes every widget and layout item.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Widgets = nil
	m.state.Layouts.LG = nil
	m.scheduleSaveLocked()
}

// UpdateLayout replaces grid positions after the user drags or
// resizes widgets. Items referencing unknown widgets are dropped.
func (m *Manager) UpdateLayout(items []models.LayoutItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	known := make(map[string]struct{}, len(m.state.Widgets))
	for _, w := range m.state.Widgets {
		known[w.ID] = struct{}{}
	}

	next := make([]models.LayoutItem, 0, len(items))
	for _, item := range items {
		if _, ok := known[item.WidgetID]; ok {
			next = append(next, item)
		}
	}
	m.state.Layouts.LG = next
	m.scheduleSaveLocked()
}

// Rename sets the dashboard name.
func (m *Manager) Rename(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Name = name
	m.scheduleSaveLocked()
}

// scheduleSaveLocked arms or restarts the debounce timer. Callers
// hold m.mu.
func (m *Manager) scheduleSaveLocked() {
	if m.closed || m.store == nil {
		return
	}
	if m.saveTimer != nil {
		m.saveTimer.Reset(m.saveDelay)
		return
	}
	m.saveTimer = time.AfterFunc(m.saveDelay, m.flush)
}

// flush persists a snapshot of the current state. Runs on the timer
// goroutine after the quiet period elapses.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	snapshot := m.state.Clone()
	onSaved := m.onSaved
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if snapshot.ID == "" {
		var created models.DashboardState
		created, err = m.store.Create(ctx, snapshot)
		if err == nil {
			m.mu.Lock()
			// Adopt the backend-assigned id unless a concurrent Load
			// already set one.
			if m.state.ID == "" {
				m.state.ID = created.ID
			}
			m.mu.Unlock()
		}
	} else {
		err = m.store.Update(ctx, snapshot)
	}

	m.mu.Lock()
	m.lastSaveErr = err
	m.mu.Unlock()

	if err != nil {
		m.log.WithError(err).Warn("dashboard save failed; in-memory state kept")
	} else {
		m.log.WithField("widgets", len(snapshot.Widgets)).Debug("dashboard saved")
	}
	if onSaved != nil {
		onSaved(err)
	}
}

// Flush forces an immediate save, bypassing the debounce. Used on
// graceful shutdown.
func (m *Manager) Flush() {
	m.mu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.mu.Unlock()
	m.flush()
}

// Close cancels any pending debounce timer. No save fires after
// Close returns; state mutation after teardown is a bug.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
}
