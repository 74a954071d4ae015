// handlers_data.go - Live value, series, and historical fetch endpoints
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/factory-dashboard/backend/internal/aggregate"
	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/store"
)

// DataHandler serves current values, aggregated series, and historical
// fetch triggers.
type DataHandler struct {
	samples *store.SampleStore
	catalog TagCatalog
	history HistoryFetcher
}

// NewDataHandler creates a new data handler. history may be nil when
// no historical source is configured.
func NewDataHandler(samples *store.SampleStore, catalog TagCatalog, history HistoryFetcher) *DataHandler {
	return &DataHandler{samples: samples, catalog: catalog, history: history}
}

// CurrentValue is one tag's latest sample on the wire.
type CurrentValue struct {
	TagID     models.TagID   `json:"tagId" msgpack:"tagId"`
	Value     interface{}    `json:"value" msgpack:"value"`
	Quality   models.Quality `json:"quality" msgpack:"quality"`
	Timestamp int64          `json:"timestamp" msgpack:"timestamp"`
}

// parseTagIDs splits a comma-separated tagIds query parameter. An
// empty parameter means every catalogued tag.
func (h *DataHandler) parseTagIDs(c echo.Context) []models.TagID {
	raw := c.QueryParam("tagIds")
	if raw == "" {
		return h.catalog.TagIDs()
	}
	parts := strings.Split(raw, ",")
	ids := make([]models.TagID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, models.NormalizeTagID(p))
		}
	}
	return ids
}

func (h *DataHandler) currentValues(c echo.Context) []CurrentValue {
	ids := h.parseTagIDs(c)
	out := make([]CurrentValue, 0, len(ids))
	for _, id := range ids {
		sample, ok := h.samples.Get(id)
		if !ok {
			continue
		}
		out = append(out, CurrentValue{
			TagID:     id,
			Value:     sample.Value,
			Quality:   sample.Quality,
			Timestamp: sample.Timestamp.UnixMilli(),
		})
	}
	return out
}

// HandleGetCurrentData returns the latest sample per requested tag.
func (h *DataHandler) HandleGetCurrentData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.currentValues(c))
}

// HandleGetCurrentDataMsgpack returns the same payload MessagePack
// encoded, for pollers that want the smaller frames.
func (h *DataHandler) HandleGetCurrentDataMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.currentValues(c))
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// SeriesBucket is one aggregated point on the wire.
type SeriesBucket struct {
	Label       string  `json:"label"`
	Timestamp   int64   `json:"timestamp"`
	Average     float64 `json:"average"`
	SampleCount int     `json:"sampleCount"`
}

// SeriesResponse carries the aggregated series for one tag.
type SeriesResponse struct {
	TagID       models.TagID       `json:"tagId"`
	Aggregation models.Granularity `json:"aggregation"`
	Buckets     []SeriesBucket     `json:"buckets"`
}

func parseGranularity(raw string) (models.Granularity, bool) {
	switch models.Granularity(raw) {
	case "":
		return models.GranularityNone, true
	case models.GranularityNone, models.GranularityHourly,
		models.GranularityDaily, models.GranularityWeekly:
		return models.Granularity(raw), true
	}
	return models.GranularityNone, false
}

// HandleGetSeries returns the stored series for one tag, bucketed by
// the aggregation query parameter.
func (h *DataHandler) HandleGetSeries(c echo.Context) error {
	id := models.NormalizeTagID(c.Param("tagId"))
	g, ok := parseGranularity(c.QueryParam("aggregation"))
	if !ok {
		return NewValidationError("aggregation")
	}

	series := h.samples.GetSeries(id)
	buckets := aggregate.Aggregate(series, g)

	resp := SeriesResponse{TagID: id, Aggregation: g, Buckets: make([]SeriesBucket, len(buckets))}
	for i, b := range buckets {
		resp.Buckets[i] = SeriesBucket{
			Label:       aggregate.Label(b.Timestamp, g),
			Timestamp:   b.Timestamp.UnixMilli(),
			Average:     b.Average,
			SampleCount: b.SampleCount,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// HistoricalRequest asks for a time range of history to be loaded
// into the sample store.
type HistoricalRequest struct {
	TagIDs    []interface{} `json:"tagIds"`
	StartDate string        `json:"startDate"`
	EndDate   string        `json:"endDate"`
}

// HandleFetchHistorical triggers a historical fetch. The response
// reports whether the result was applied; a fetch superseded by a
// newer one resolves with applied=false.
func (h *DataHandler) HandleFetchHistorical(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("no historical source configured")
	}

	var req HistoricalRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(req.TagIDs) == 0 {
		return NewValidationError("tagIds")
	}
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return NewValidationError("startDate")
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return NewValidationError("endDate")
	}
	if end.Before(start) {
		return NewBadRequestError("endDate precedes startDate", nil)
	}

	ids := make([]models.TagID, len(req.TagIDs))
	for i, raw := range req.TagIDs {
		ids[i] = models.NormalizeTagID(raw)
	}

	applied, err := h.history.Fetch(c.Request().Context(), ids, start, end)
	if err != nil {
		return NewInternalError("historical fetch failed", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"applied": applied,
	})
}
