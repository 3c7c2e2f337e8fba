// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"transparent_roi/internal/adapters/transparent"
	"transparent_roi/internal/domain"
)

// Pricing is the slice of app.PricingService the handlers need.
type Pricing interface {
	Aggregated(ctx context.Context, f domain.QueryFilters) (domain.Outcome[domain.AggregatedResult], error)
	Combined(ctx context.Context, f domain.QueryFilters) (domain.Outcome[domain.CombinedResult], error)
	ListSnapshots(ctx context.Context, q domain.SnapshotsQuery) ([]domain.Snapshot, error)
}

type Handlers struct{ P Pricing }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type combinedView struct {
	AverageDailyRate float64                `json:"adr"`
	OccupancyRate    float64                `json:"occupancy"`
	Listings         []domain.ListingResult `json:"listings"`
}

type snapshotView struct {
	ID               string                 `json:"id"`
	Kind             string                 `json:"kind"`
	Filters          domain.QueryFilters    `json:"filters"`
	AverageDailyRate float64                `json:"adr"`
	OccupancyRate    float64                `json:"occupancy"`
	Listings         []domain.ListingResult `json:"listings,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/pricing/aggregated", h.aggregated)
	s.mux.Get("/v1/pricing/combined", h.combined)
	s.mux.Get("/v1/snapshots", h.listSnapshots)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeQueryError maps client and upstream failures onto HTTP problems.
func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFilters):
		writeProblem(w, http.StatusBadRequest, "Invalid filters", err.Error())
	case errors.Is(err, transparent.ErrDecode):
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "pricing provider returned a malformed response")
	case errors.Is(err, transparent.ErrMissingConfiguration):
		writeProblem(w, http.StatusInternalServerError, "Not Configured", "pricing provider credentials are not configured")
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", "pricing provider did not answer in time")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) aggregated(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filters", err.Error())
		return
	}
	out, err := h.P.Aggregated(r.Context(), f)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	a, ok := out.Get()
	if !ok {
		writeProblem(w, http.StatusNotFound, "No Data", "no pricing data for this area")
		return
	}
	writeJSON(w, r, a)
}

func (h *Handlers) combined(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filters", err.Error())
		return
	}
	out, err := h.P.Combined(r.Context(), f)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	c, ok := out.Get()
	if !ok {
		writeProblem(w, http.StatusNotFound, "No Data", "no pricing data for this area")
		return
	}
	listings := c.Listings
	if listings == nil {
		listings = []domain.ListingResult{}
	}
	writeJSON(w, r, combinedView{
		AverageDailyRate: c.Aggregated.AverageDailyRate,
		OccupancyRate:    c.Aggregated.OccupancyRate,
		Listings:         listings,
	})
}

func (h *Handlers) listSnapshots(w http.ResponseWriter, r *http.Request) {
	q := domain.SnapshotsQuery{Kind: r.URL.Query().Get("kind")}
	switch q.Kind {
	case "", domain.KindAggregated, domain.KindCombined:
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid kind", "kind must be aggregated or combined")
		return
	}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}

	snaps, err := h.P.ListSnapshots(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list snapshots failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	out := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, snapshotView{
			ID:               s.ID,
			Kind:             s.Kind,
			Filters:          s.Filters,
			AverageDailyRate: s.AverageDailyRate,
			OccupancyRate:    s.OccupancyRate,
			Listings:         s.Listings,
			CreatedAt:        s.CreatedAt,
		})
	}
	writeJSON(w, r, out)
}
