// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lepetpal/lepetpal/internal/command"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
	"github.com/lepetpal/lepetpal/internal/speaker"
	"github.com/lepetpal/lepetpal/internal/types"
	"github.com/lepetpal/lepetpal/internal/version"
	"github.com/lepetpal/lepetpal/internal/video"
)

const apiVersion = 1

// defaultDispenseWindow is used when the client omits duration_ms.
const defaultDispenseWindow = 600 * time.Millisecond

type healthResponse struct {
	Status  string `json:"status"`
	API     int    `json:"api"`
	Version string `json:"version"`
}

type commandRequest struct {
	Prompt  string          `json:"prompt"`
	Options command.Options `json:"options"`
}

type acceptedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type dispenseRequest struct {
	DurationMS *int `json:"duration_ms"`
}

type speakRequest struct {
	Text string `json:"text"`
}

type okResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		API:     apiVersion,
		Version: version.Version,
	})
}

func (s *Server) handleMetrics() http.HandlerFunc {
	h := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, "malformed JSON body")
		return
	}
	if !command.KnownPrompt(req.Prompt) {
		writeError(w, http.StatusBadRequest, CodeInvalid, "unknown prompt: "+req.Prompt)
		return
	}

	if req.Prompt == command.PromptGoHome {
		id := s.svc.Manager.InterruptAndHome()
		writeJSON(w, http.StatusAccepted, acceptedResponse{RequestID: id, Status: "accepted"})
		return
	}

	id, err := s.svc.Manager.Start(req.Prompt, req.Options)
	if err != nil {
		writeError(w, http.StatusConflict, CodeBusy, command.ErrBusy.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{RequestID: id, Status: "accepted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestID")
	st, ok := s.svc.Store.Get(id)
	if !ok {
		// Unknown ids answer 200 with a synthetic failure body. Long-standing
		// client contract; do not change to 404.
		st = types.Status{State: types.StateFailed, Message: "unknown request_id"}
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDispenseTreat(w http.ResponseWriter, r *http.Request) {
	// An empty body means "use the default window".
	var req dispenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeInvalid, "malformed JSON body")
		return
	}

	window := defaultDispenseWindow
	if req.DurationMS != nil {
		window = time.Duration(*req.DurationMS) * time.Millisecond
	}

	if err := s.svc.Dispenser.Dispense(r.Context(), window); err != nil {
		metrics.IncTreatDispensed(false)
		writeError(w, http.StatusInternalServerError, CodeHardwareError, "dispenser failed: "+err.Error())
		return
	}
	metrics.IncTreatDispensed(true)
	writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, "malformed JSON body")
		return
	}

	err := s.svc.Speaker.Speak(req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	case errors.Is(err, speaker.ErrEmptyText), errors.Is(err, speaker.ErrTextTooLong):
		writeError(w, http.StatusBadRequest, CodeInvalid, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, CodeTTSError, err.Error())
	}
}

func (s *Server) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	overlays := r.URL.Query().Get("overlays") != "0"

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Debug().
		Str("event", "video.feed_requested").
		Bool("overlays", overlays).
		Msg("starting video feed")

	video.Stream(w, r, s.svc.Frames, video.StreamConfig{
		Overlays: overlays,
		FPS:      s.cfg.StreamFPS,
		Width:    s.cfg.StreamWidth,
		Height:   s.cfg.StreamHeight,
	})
}
