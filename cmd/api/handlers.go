package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"popupforge/internal/identity"
	"popupforge/internal/popup"
	"popupforge/pkg/logger"
)

// HealthChecker reports backend reachability.
type HealthChecker interface {
	Check(ctx context.Context) (map[string]bool, error)
}

// Invalidator drops a warm cache so the next read reloads from the store.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	service *popup.Service
	health  HealthChecker // optional
	cache   Invalidator   // optional
	logger  *zap.Logger
}

func NewHandler(service *popup.Service, health HealthChecker, cache Invalidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, health: health, cache: cache, logger: logger}
}

type QueueResponse struct {
	Messages       []popup.MessageView `json:"messages"`
	AdvanceDelayMS int64               `json:"advance_delay_ms"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetQueue godoc
// @Summary      Get Popup Queue
// @Description  Returns every message the viewer may see on the page, highest priority first. Clients show them one at a time.
// @Tags         Client
// @Produce      json
// @Param        page          query   string  false  "Page identifier (home, news, ...)"
// @Param        path          query   string  false  "Router path, resolved to a page when page is empty"
// @Param        X-Viewer-ID   header  string  true   "Viewer ID"
// @Param        X-Viewer-Role header  string  false  "Viewer role (user, moderator, admin)"
// @Param        X-Viewer-Created-At header string false "Account creation time, RFC 3339"
// @Success      200  {object}  QueueResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /v1/popups/queue [get]
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, popup.NewError(popup.ErrCodeInvalid, "missing "+identity.HeaderViewerID+" header"))
		return
	}
	page := r.URL.Query().Get("page")
	if page == "" {
		page = popup.ResolvePage(r.URL.Query().Get("path"))
	}

	// Calculate latency
	start := time.Now()

	views, err := h.service.GetQueue(r.Context(), page, viewer.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Response-Time", time.Since(start).String())
	writeJSON(w, http.StatusOK, QueueResponse{
		Messages:       views,
		AdvanceDelayMS: popup.QueueAdvanceDelay.Milliseconds(),
	})
}

type AckRequest struct {
	MessageID string          `json:"message_id"`
	Event     popup.EventKind `json:"event" enums:"impression,dismissal,click"`
	Action    string          `json:"action,omitempty" enums:"close,navigate,external_link,custom"`
}

// Acknowledge godoc
// @Summary      Track Display Event
// @Description  Records an impression, dismissal or click for the calling viewer.
// @Tags         Client
// @Accept       json
// @Param        X-Viewer-ID  header  string      true  "Viewer ID"
// @Param        request      body    AckRequest  true  "Display event"
// @Success      204  "No Content"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/popups/ack [post]
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, popup.NewError(popup.ErrCodeInvalid, "missing "+identity.HeaderViewerID+" header"))
		return
	}
	var req AckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, popup.WrapError(popup.ErrCodeInvalid, "invalid request body", err))
		return
	}
	if err := h.service.Acknowledge(r.Context(), req.MessageID, viewer.ID, req.Event, req.Action); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Admin Handlers ---

// CreateMessage godoc
// @Summary      Create Popup Message
// @Description  Creates a draft message in the DB and syncs it to the cache.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        message body popup.Message true "Message Data"
// @Success      201  {object}  popup.Message
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/popups [post]
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var m popup.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		h.writeError(w, r, popup.WrapError(popup.ErrCodeInvalid, "invalid request body", err))
		return
	}
	if viewer, ok := identity.FromContext(r.Context()); ok {
		m.CreatedBy = viewer.ID
	}

	if err := h.service.CreateMessage(r.Context(), &m); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMessage godoc
// @Summary      Update Popup Message
// @Description  Replaces content and targeting. Status and counters are kept.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        message body popup.Message true "Message Data"
// @Success      200  {object}  popup.Message
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/popups [put]
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var m popup.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		h.writeError(w, r, popup.WrapError(popup.ErrCodeInvalid, "invalid request body", err))
		return
	}
	if m.ID == "" {
		h.writeError(w, r, popup.NewError(popup.ErrCodeInvalid, "id is required"))
		return
	}

	if err := h.service.UpdateMessage(r.Context(), &m); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMessage godoc
// @Summary      Delete Popup Message
// @Description  Deletes a message and its display events from the DB and the cache.
// @Tags         Admin
// @Param        id   query      string  true  "Message ID"
// @Success      204  "No Content"
// @Router       /admin/popups [delete]
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMessage(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages godoc
// @Summary      List All Popup Messages
// @Description  Fetches every message, newest first.
// @Tags         Admin
// @Produce      json
// @Success      200  {array}  popup.Message
// @Router       /admin/popups [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMessages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*popup.Message{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetMessage godoc
// @Summary      Get Popup Message Detail
// @Tags         Admin
// @Produce      json
// @Param        id   query      string  true  "Message ID"
// @Success      200  {object}  popup.Message
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/popups/detail [get]
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	m, err := h.service.GetMessage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// PublishMessage godoc
// @Summary      Publish Draft
// @Tags         Admin
// @Produce      json
// @Param        id   query      string  true  "Message ID"
// @Success      200  {object}  popup.Message
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/popups/publish [post]
func (h *Handler) PublishMessage(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

// PauseMessage godoc
// @Summary      Pause Active Message
// @Tags         Admin
// @Produce      json
// @Param        id   query      string  true  "Message ID"
// @Success      200  {object}  popup.Message
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/popups/pause [post]
func (h *Handler) PauseMessage(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pause)
}

// ResumeMessage godoc
// @Summary      Resume Paused Message
// @Tags         Admin
// @Produce      json
// @Param        id   query      string  true  "Message ID"
// @Success      200  {object}  popup.Message
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/popups/resume [post]
func (h *Handler) ResumeMessage(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resume)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*popup.Message, error)) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	m, err := fn(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetSummary godoc
// @Summary      Message Analytics
// @Description  Counters, click and conversion rates, and a consistency check against stored display events.
// @Tags         Admin
// @Produce      json
// @Param        id   query      string  true  "Message ID"
// @Success      200  {object}  popup.Summary
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/popups/summary [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	s, err := h.service.GetSummary(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetHistory godoc
// @Summary      Display History
// @Description  Lists display events for a message, optionally for one viewer.
// @Tags         Admin
// @Produce      json
// @Param        id         query  string  true   "Message ID"
// @Param        viewer_id  query  string  false  "Viewer ID"
// @Success      200  {array}  popup.DisplayEvent
// @Router       /admin/popups/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}
	events, err := h.service.History(r.Context(), id, r.URL.Query().Get("viewer_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*popup.DisplayEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// SyncData godoc
// @Summary      Sync DB to Redis
// @Description  Rebuilds the cache of active messages from the DB.
// @Tags         Debug
// @Success      200  "Synced"
// @Router       /debug/sync [post]
func (h *Handler) SyncData(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.writeError(w, r, popup.Unavailable("invalidate cache", err))
			return
		}
	}
	if err := h.service.SyncCache(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Synced DB to Redis"))
}

// Health godoc
// @Summary      Health Check
// @Tags         Debug
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      503  {object}  map[string]bool
// @Router       /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]bool{}
	if h.health != nil {
		var err error
		status, err = h.health.Check(r.Context())
		if err != nil {
			logger.WithRequestID(r.Context(), h.logger).Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeError(w, r, popup.NewError(popup.ErrCodeInvalid, "id is required"))
		return "", false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(r.Context(), h.logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

func mapError(err error) (int, string) {
	switch {
	case popup.IsCode(err, popup.ErrCodeInvalid):
		return http.StatusBadRequest, string(popup.ErrCodeInvalid)
	case popup.IsCode(err, popup.ErrCodeForbidden):
		return http.StatusForbidden, string(popup.ErrCodeForbidden)
	case popup.IsCode(err, popup.ErrCodeNotFound):
		return http.StatusNotFound, string(popup.ErrCodeNotFound)
	case popup.IsCode(err, popup.ErrCodeConflict):
		return http.StatusConflict, string(popup.ErrCodeConflict)
	case popup.IsCode(err, popup.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(popup.ErrCodeUnavailable)
	default:
		return http.StatusInternalServerError, string(popup.ErrCodeInternal)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
