// Package http exposes the JSON API and the chat websocket.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the single mapping from service errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/media"
	"motoinvest/internal/mentor"
	"motoinvest/internal/services"
	"motoinvest/internal/store"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	ContactURL string `json:"contact_url,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// Error messages shown to the client.
const (
	msgAccessDenied     = "Seu acesso está bloqueado. Fale com a gente para liberar."
	msgOnboarding       = "Complete seu perfil primeiro."
	msgAlreadyOnboarded = "Perfil já criado."
	msgChatBusy         = "O mentor ainda está respondendo."
	msgWriteFailed      = "Não foi possível salvar. Tente de novo."
	msgNoSession        = "Sessão não iniciada."
	msgNotFound         = "Não encontrado."
	msgInternal         = "Erro interno."
	msgRateLimited      = "Muitas requisições. Tente de novo em instantes."
)

// errorStatus maps an error to its status code and client message.
func errorStatus(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, ErrBadBody):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrAccessDenied):
		return http.StatusPaymentRequired, msgAccessDenied
	case errors.Is(err, services.ErrNoSession):
		return http.StatusUnauthorized, msgNoSession
	case errors.Is(err, services.ErrOnboarding):
		return http.StatusConflict, msgOnboarding
	case errors.Is(err, services.ErrAlreadyOnboarded):
		return http.StatusConflict, msgAlreadyOnboarded
	case errors.Is(err, services.ErrChatBusy):
		return http.StatusConflict, msgChatBusy
	case errors.Is(err, services.ErrWriteFailed):
		return http.StatusBadGateway, msgWriteFailed
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, media.ErrImageTooBig):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrNothingToClose),
		errors.Is(err, mentor.ErrToolInput),
		errors.Is(err, media.ErrEmptyImage),
		errors.Is(err, media.ErrInvalidImage),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrDescTooLong),
		errors.Is(err, core.ErrEmptyGoalName),
		errors.Is(err, core.ErrInvalidProfile):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError logs err and sends the mapped response. The access-denied
// response carries the contact URL for the paywall.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldPath, r.URL.Path, log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldPath, r.URL.Path, log.FieldStatusCode, status, log.FieldError, err)
	}
	body := ErrorBody{Error: msg}
	if status == http.StatusPaymentRequired {
		body.ContactURL = s.contactURL
	}
	NewJSONResponse().Status(status).Body(body).Write(w)
}
