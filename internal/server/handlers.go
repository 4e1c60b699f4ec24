package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daniel/group-extractor/internal/browser"
	"github.com/daniel/group-extractor/internal/jobs"
	"github.com/daniel/group-extractor/internal/schemas"
	"github.com/daniel/group-extractor/internal/scraper"
)

// ScrapeRequest represents the request body for /scrape.
type ScrapeRequest struct {
	GroupURL    string          `json:"groupUrl" validate:"required"`
	ScrollLimit int             `json:"scrollLimit,omitempty"`
	Cookies     json.RawMessage `json:"cookies,omitempty"`
}

// Validate validates the ScrapeRequest using the validator.
func (r *ScrapeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScrapeResponse represents the response for /scrape.
type ScrapeResponse struct {
	JobID string `json:"jobId"`
}

// handleScrape validates the request and starts a new extraction job. The
// job ID is returned before extraction begins.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Valid groupUrl is required")
		return
	}

	cookies, err := parseCookies(req.Cookies)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid cookies: "+err.Error())
		return
	}

	scrollLimit := req.ScrollLimit
	if scrollLimit <= 0 {
		scrollLimit = s.cfg.DefaultScrollLimit
	}

	id := s.manager.Start(scraper.Params{
		TargetURL:   req.GroupURL,
		ScrollLimit: scrollLimit,
		Cookies:     cookies,
	})

	s.jsonResponse(w, http.StatusOK, ScrapeResponse{JobID: id})
}

// parseCookies validates the raw token payload against the schema and drops
// entries missing a name or value.
func parseCookies(raw json.RawMessage) ([]browser.Cookie, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if err := schemas.ValidateCookies(raw); err != nil {
		return nil, err
	}

	var cookies []browser.Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies: %w", err)
	}

	kept := cookies[:0]
	for _, c := range cookies {
		if c.Name == "" || c.Value == "" {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// handleEvents is the streaming transport: it attaches to the job's bus,
// sends a status snapshot, then relays every event until the terminal one or
// client disconnect.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.manager.Get(id)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Unknown job ID")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Subscribe before the snapshot so nothing published in between is
	// lost. Late joiners still get no replay of earlier events.
	sub := job.Bus.Subscribe()
	defer sub.Cancel()

	if err := sse.WriteEvent("info", map[string]string{"status": job.Bus.Status()}); err != nil {
		return
	}

	keepAlive := time.NewTicker(s.cfg.KeepAlive())
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := sse.WriteComment("keepalive"); err != nil {
				log.Printf("SSE send error: %v", err)
				return
			}
		case evt, open := <-sub.C:
			if !open {
				return
			}
			if err := sse.WriteEvent(string(evt.Type), evt); err != nil {
				log.Printf("SSE send error: %v", err)
				return
			}
			if evt.Terminal() {
				return
			}
		}
	}
}

// handleDownload serves the artifact for a completed job. It succeeds only
// after the done event and before the retention window expires.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.manager.Get(id)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Unknown job")
		return
	}

	art := job.Artifact()
	if job.Status() != jobs.StatusDone || art == nil {
		s.errorResponse(w, http.StatusNotFound, "Data not ready")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	if _, err := w.Write(art.Data); err != nil {
		log.Printf("Error writing artifact for job %s: %v", id, err)
	}
}

// handleCancel cancels a running job.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Cancel(id); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Unknown job")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}
