package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/lead_capture_chatbot/internal/agents"
	"github.com/lewisedginton/lead_capture_chatbot/internal/memory"
	"github.com/lewisedginton/lead_capture_chatbot/internal/middleware"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/httpmiddleware"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

const servicesLimit = 10

// ChatService is the conversational core behind the API.
type ChatService interface {
	Chat(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID, message string) (*agents.TurnResult, error)
	GetMemory(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*memory.Memory, error)
	ResetMemory(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) error
	CaptureEmail(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID, req agents.CaptureRequest) (*agents.CaptureResult, error)
}

// Handlers serves the /api routes.
type Handlers struct {
	chat  ChatService
	store store.Store
	log   logger.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(chat ChatService, s store.Store, log logger.Logger) *Handlers {
	return &Handlers{chat: chat, store: s, log: log}
}

// Routes mounts the API on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/identify", h.identify)
		r.Post("/chat", h.chatTurn)
		r.Get("/memory", h.getMemory)
		r.Delete("/memory", h.resetMemory)
		r.Get("/services", h.services)
		r.Post("/email", h.captureEmail)
	})
}

type identifyRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type identifyResponse struct {
	VisitorID          string     `json:"visitorId"`
	IsReturning        bool       `json:"isReturning"`
	Name               string     `json:"name,omitempty"`
	Email              string     `json:"email,omitempty"`
	LastSeen           *time.Time `json:"lastSeen,omitempty"`
	TotalConversations int        `json:"totalConversations,omitempty"`
	Location           *store.Geo `json:"location,omitempty"`
}

func (h *Handlers) identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	ip := middleware.ClientIP(r)
	fingerprint := strings.TrimSpace(req.Fingerprint)

	existing, err := h.store.FindVisitor(ctx, ip, fingerprint)
	switch {
	case err == nil:
		v, err := h.store.TouchVisitor(ctx, existing.ID, fingerprint)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("failed to update visitor: %w", err))
			return
		}
		lastSeen := existing.LastSeen
		writeJSON(w, http.StatusOK, identifyResponse{
			VisitorID:          v.ID.String(),
			IsReturning:        true,
			Name:               v.Contact.Name,
			Email:              v.Contact.Email,
			LastSeen:           &lastSeen,
			TotalConversations: v.TotalConversations,
		})
	case errors.Is(err, store.ErrNotFound):
		geo := geoFromHeaders(r)
		v, err := h.store.CreateVisitor(ctx, store.NewVisitor{IPAddress: ip, Fingerprint: fingerprint, Geo: geo})
		if err != nil {
			h.writeError(w, r, fmt.Errorf("failed to create visitor: %w", err))
			return
		}
		h.log.Info("New visitor", logger.VisitorIDField(v.ID.String()), logger.StringField("country", geo.Country))
		writeJSON(w, http.StatusOK, identifyResponse{
			VisitorID:   v.ID.String(),
			IsReturning: false,
			Location:    &geo,
		})
	default:
		h.writeError(w, r, fmt.Errorf("failed to find visitor: %w", err))
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) chatTurn(w http.ResponseWriter, r *http.Request) {
	visitorID, err := h.resolveVisitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.chat.Chat(r.Context(), visitorID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) getMemory(w http.ResponseWriter, r *http.Request) {
	visitorID, err := h.resolveVisitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mem, err := h.chat.GetMemory(r.Context(), visitorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (h *Handlers) resetMemory(w http.ResponseWriter, r *http.Request) {
	visitorID, err := h.resolveVisitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.chat.ResetMemory(r.Context(), visitorID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Memory reset"})
}

type servicesResponse struct {
	Services []store.Service `json:"services"`
	Count    int             `json:"count"`
}

func (h *Handlers) services(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	services, err := h.store.SearchServices(r.Context(), store.ServiceFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Limit:    servicesLimit,
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("failed to search services: %w", err))
		return
	}
	if services == nil {
		services = []store.Service{}
	}
	writeJSON(w, http.StatusOK, servicesResponse{Services: services, Count: len(services)})
}

type emailRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

type emailResponse struct {
	Success   bool   `json:"success"`
	EmailSent bool   `json:"emailSent"`
	Summary   string `json:"summary"`
}

func (h *Handlers) captureEmail(w http.ResponseWriter, r *http.Request) {
	visitorID, err := h.resolveVisitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.chat.CaptureEmail(r.Context(), visitorID, agents.CaptureRequest{
		Email:   req.Email,
		Name:    req.Name,
		Company: req.Company,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Success: true, EmailSent: result.EmailSent, Summary: result.Summary})
}

// resolveVisitor reads the visitor id header, falling back to the most recent
// visitor seen from the client address.
func (h *Handlers) resolveVisitor(r *http.Request) (prefixed_uuid.PrefixedUUID, error) {
	if raw := strings.TrimSpace(r.Header.Get(httpmiddleware.VisitorIDHeader)); raw != "" {
		id, err := store.ParseVisitorID(raw)
		if err != nil {
			return prefixed_uuid.PrefixedUUID{}, badRequest("Invalid visitor ID")
		}
		return id, nil
	}

	v, err := h.store.FindVisitor(r.Context(), middleware.ClientIP(r), "")
	if err != nil {
		return prefixed_uuid.PrefixedUUID{}, fmt.Errorf("failed to resolve visitor: %w", err)
	}
	return v.ID, nil
}

const unknownGeo = "unknown"

func geoFromHeaders(r *http.Request) store.Geo {
	get := func(name string) string {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return v
		}
		return unknownGeo
	}
	return store.Geo{
		Country:  get("CF-IPCountry"),
		City:     get("CF-IPCity"),
		Region:   get("CF-Region"),
		Timezone: get("CF-Timezone"),
	}
}
