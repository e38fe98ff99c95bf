// Package gateway exposes the orchestrator to the dashboard widget over
// HTTP JSON, for deployments without a NATS broker.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/grovert/zabbix-maintenance-assistant/internal/config"
	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
	"github.com/grovert/zabbix-maintenance-assistant/internal/orchestrator"
)

type Gateway struct {
	router *chi.Mux
	orch   *orchestrator.Orchestrator
}

type widgetRequest struct {
	Message  string          `json:"message,omitempty"`
	UserInfo models.UserInfo `json:"user_info"`
}

func New(cfg *config.Config, orch *orchestrator.Orchestrator) *Gateway {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	g := &Gateway{router: r, orch: orch}

	r.Post("/api/chat", g.handleChat)
	r.Post("/api/confirm", g.handleConfirm)
	r.Post("/api/cancel", g.handleCancel)
	r.Get("/api/health", g.handleHealth)
	r.Get("/api/templates", g.handleTemplates)
	r.Get("/api/stats", g.handleStats)

	return g
}

func (g *Gateway) Router() http.Handler { return g.router }

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := g.orch.Send(r.Context(), req.Message, req.UserInfo)
	g.respondTurn(w, result, err)
}

func (g *Gateway) handleConfirm(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := g.orch.Confirm(r.Context(), req.UserInfo)
	g.respondTurn(w, result, err)
}

func (g *Gateway) handleCancel(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := g.orch.Cancel(r.Context(), req.UserInfo)
	g.respondTurn(w, result, err)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, notice := g.orch.Health(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": status,
		"notice":  notice,
	})
}

func (g *Gateway) handleTemplates(w http.ResponseWriter, r *http.Request) {
	templates, notice := g.orch.Templates(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"notice":    notice,
	})
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, notice := g.orch.Stats(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":  stats,
		"notice": notice,
	})
}

func (g *Gateway) respondTurn(w http.ResponseWriter, result *orchestrator.TurnResult, err error) {
	if err != nil {
		log.Printf("turn failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, &orchestrator.TurnResult{
			Notices: []models.Notice{{
				Severity: models.SeverityError,
				Text:     "The assistant hit an internal error. Please try again.",
			}},
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (widgetRequest, bool) {
	var req widgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &orchestrator.TurnResult{
			Notices: []models.Notice{{
				Severity: models.SeverityError,
				Text:     "Invalid request body.",
			}},
		})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}
