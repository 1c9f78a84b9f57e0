package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lewisedginton/lead_capture_chatbot/internal/agents"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// errBadRequest marks a request that failed decoding or header validation.
var errBadRequest = errors.New("bad request")

type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func (e *requestError) Unwrap() error { return errBadRequest }

func badRequest(message string) error {
	return &requestError{message: message}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse maps a handler error to its status code and client message.
// Unclassified errors never leak their text.
func errorResponse(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.message
	case errors.Is(err, agents.ErrEmptyMessage):
		return http.StatusBadRequest, "Message is required"
	case errors.Is(err, agents.ErrInvalidEmail):
		return http.StatusBadRequest, "Valid email is required"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusBadRequest, "Visitor not identified"
	case errors.Is(err, agents.ErrNoConversation):
		return http.StatusNotFound, "No active conversation"
	case errors.Is(err, agents.ErrUpstream):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := errorResponse(err)
	log := logger.GetLoggerFromContext(r.Context(), h.log)
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", logger.HTTPPathField(r.URL.Path), logger.ErrorField(err))
	} else {
		log.Debug("Request rejected", logger.HTTPPathField(r.URL.Path), logger.ErrorField(err))
	}
	writeJSON(w, code, errorBody{Error: message})
}

// decodeJSON decodes the request body into dst. An empty body is accepted
// when optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return badRequest("Request body too large")
	}
	return badRequest("Invalid JSON body")
}
