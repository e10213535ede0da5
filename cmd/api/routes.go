package main

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"popupforge/internal/identity"
)

func newRouter(h *Handler, requestTimeout time.Duration, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	// Client
	mux.HandleFunc("GET /v1/popups/queue", h.GetQueue)
	mux.HandleFunc("POST /v1/popups/ack", h.Acknowledge)

	// Admin
	mux.HandleFunc("POST /admin/popups", h.requireAdmin(h.CreateMessage))
	mux.HandleFunc("PUT /admin/popups", h.requireAdmin(h.UpdateMessage))
	mux.HandleFunc("DELETE /admin/popups", h.requireAdmin(h.DeleteMessage))
	mux.HandleFunc("GET /admin/popups", h.requireAdmin(h.ListMessages))
	mux.HandleFunc("GET /admin/popups/detail", h.requireAdmin(h.GetMessage))
	mux.HandleFunc("POST /admin/popups/publish", h.requireAdmin(h.PublishMessage))
	mux.HandleFunc("POST /admin/popups/pause", h.requireAdmin(h.PauseMessage))
	mux.HandleFunc("POST /admin/popups/resume", h.requireAdmin(h.ResumeMessage))
	mux.HandleFunc("GET /admin/popups/summary", h.requireAdmin(h.GetSummary))
	mux.HandleFunc("GET /admin/popups/history", h.requireAdmin(h.GetHistory))

	// Debug
	mux.HandleFunc("POST /debug/sync", h.requireAdmin(h.SyncData))
	mux.HandleFunc("GET /healthz", h.Health)

	// Swagger
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return requestID(log, timeout(requestTimeout, identity.Middleware(mux, h.writeError)))
}
