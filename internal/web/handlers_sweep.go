package web

import (
	"encoding/base64"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var accept []string
	var targets []templates.FormatOption
	for _, c := range s.service.Registry().All() {
		if c.CanRead() {
			accept = append(accept, "."+string(c.Format))
			for _, ext := range c.Extensions {
				accept = append(accept, "."+ext)
			}
		}
		if c.CanWrite() {
			targets = append(targets, templates.FormatOption{Tag: string(c.Format), Label: c.Label})
		}
	}
	sort.Strings(accept)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.UploadPage(templates.UploadPageParams{
		Accept:      accept,
		Targets:     targets,
		Default:     core.NormalizeFormat(s.cfg.Upload.DefaultTarget),
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		PreviewRows: s.cfg.Upload.PreviewRows,
	}).Render(r.Context(), w)
}

// sweep parses the upload and runs it through the service.
func (s *Server) sweep(w http.ResponseWriter, r *http.Request) (*core.Result, *upload, error) {
	up, err := s.readUpload(w, r)
	if err != nil {
		return nil, nil, err
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Sweep(ctx, core.Request{
		FileName: up.FileName,
		Data:     up.Data,
		Target:   up.Target,
	})
	if err != nil {
		return nil, nil, err
	}
	return res, up, nil
}

// handleSweepForm processes the upload form and renders both previews with
// a download link.
func (s *Server) handleSweepForm(w http.ResponseWriter, r *http.Request) {
	res, up, err := s.sweep(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	original, cleaned := res.Preview(s.previewRows(up.Rows))
	params := templates.ResultParams{
		SweepID:  res.ID.String(),
		FileName: res.FileName,
		Source:   string(res.Source),
		Target:   string(res.Target),
		Report:   res.Report,
		Original: original,
		Cleaned:  cleaned,
		Download: templates.Download{
			FileName: res.Output.FileName,
			Href:     dataURI(res.Output),
			Size:     len(res.Output.Data),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if isHTMX(r) {
		_ = templates.ResultView(params).Render(r.Context(), w)
		return
	}
	_ = templates.ResultPage(params).Render(r.Context(), w)
}

// handleAPISweep returns the cleaned file as an attachment.
func (s *Server) handleAPISweep(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.sweep(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", res.Output.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+res.Output.FileName+`"`)
	h.Set("Content-Length", strconv.Itoa(len(res.Output.Data)))
	h.Set("X-Sweep-ID", res.ID.String())
	h.Set("X-Rows-In", strconv.Itoa(res.Report.RowsIn))
	h.Set("X-Rows-Out", strconv.Itoa(res.Report.RowsOut))
	h.Set("X-Duplicates-Removed", strconv.Itoa(res.Report.DuplicatesRemoved))
	h.Set("X-Incomplete-Removed", strconv.Itoa(res.Report.IncompleteRemoved))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Output.Data)
}

// PreviewResponse is the JSON body of /api/preview.
type PreviewResponse struct {
	ID       string               `json:"id"`
	FileName string               `json:"fileName"`
	Source   core.Format          `json:"source"`
	Target   core.Format          `json:"target"`
	Report   core.NormalizeReport `json:"report"`
	Original core.Preview         `json:"original"`
	Cleaned  core.Preview         `json:"cleaned"`
	Output   OutputInfo           `json:"output"`
	Duration int64                `json:"durationMs"`
}

// OutputInfo describes the file a sweep would download.
type OutputInfo struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// handleAPIPreview sweeps the upload and returns both previews as JSON.
func (s *Server) handleAPIPreview(w http.ResponseWriter, r *http.Request) {
	res, up, err := s.sweep(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	original, cleaned := res.Preview(s.previewRows(up.Rows))
	writeJSON(w, http.StatusOK, PreviewResponse{
		ID:       res.ID.String(),
		FileName: res.FileName,
		Source:   res.Source,
		Target:   res.Target,
		Report:   res.Report,
		Original: original,
		Cleaned:  cleaned,
		Output: OutputInfo{
			FileName:    res.Output.FileName,
			ContentType: res.Output.ContentType,
			Size:        len(res.Output.Data),
		},
		Duration: res.Duration.Milliseconds(),
	})
}

// dataURI embeds the output so the result page can offer a download
// without keeping the file on the server.
func dataURI(out *core.Output) string {
	mediaType, _, _ := strings.Cut(out.ContentType, ";")
	return "data:" + strings.TrimSpace(mediaType) + ";base64," + base64.StdEncoding.EncodeToString(out.Data)
}
