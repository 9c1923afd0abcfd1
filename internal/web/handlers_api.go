package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// FormatInfo describes one registered format.
type FormatInfo struct {
	Format      core.Format `json:"format"`
	Label       string      `json:"label"`
	Extensions  []string    `json:"extensions"`
	ContentType string      `json:"contentType"`
	CanRead     bool        `json:"canRead"`
	CanWrite    bool        `json:"canWrite"`
}

// handleFormats lists the registered formats and what they support.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	codecs := s.service.Registry().All()
	out := make([]FormatInfo, len(codecs))
	for i, c := range codecs {
		exts := c.Extensions
		if exts == nil {
			exts = []string{}
		}
		out[i] = FormatInfo{
			Format:      c.Format,
			Label:       c.Label,
			Extensions:  exts,
			ContentType: c.ContentType,
			CanRead:     c.CanRead(),
			CanWrite:    c.CanWrite(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HistoryResponse is the JSON body of /api/history.
type HistoryResponse struct {
	Enabled bool               `json:"enabled"`
	Records []core.SweepRecord `json:"records"`
}

// handleHistory returns recent sweep summaries, newest first.
// ?limit=N is capped at the configured recent limit.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Records: []core.SweepRecord{}})
		return
	}

	limit := s.cfg.History.RecentLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v < limit {
		limit = v
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.SweepRecord{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Enabled: true, Records: records})
}

// StatusResponse is the JSON body of /api/status.
type StatusResponse struct {
	Sweeps  core.LimiterStatus `json:"sweeps"`
	Formats int                `json:"formats"`
	History bool               `json:"history"`
}

// handleStatus reports sweep slot usage for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Formats: s.service.Registry().Count(),
		History: s.history != nil,
	}
	if l := s.service.Limiter(); l != nil {
		resp.Sweeps = l.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
