package proxy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/mplusd/internal/shared"
)

// Literal messages callers may match on.
const (
	MsgMissingURL       = "Missing url parameter"
	MsgForbiddenDomain  = "Only Blizzard API domains are allowed"
	MsgHTMLInsteadOfAPI = "API returned HTML instead of JSON"
)

// Error is a request failure with the message shown to the caller.
//
// Kind is one of the shared sentinels and decides the status unless Status is set.
type Error struct {
	Kind    error
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func badRequest(msg string) *Error {
	return &Error{Kind: shared.ErrBadRequest, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Kind: shared.ErrForbidden, Message: msg}
}

func upstreamStatus(status int, msg string) *Error {
	return &Error{Kind: shared.ErrUpstreamHTTP, Status: status, Message: msg}
}

func upstreamNetwork(err error) *Error {
	return &Error{Kind: shared.ErrUpstreamNetwork, Message: err.Error()}
}

// StatusFor maps an error to the HTTP status the caller receives.
func StatusFor(err error) int {
	var pe *Error
	if errors.As(err, &pe) && pe.Status != 0 {
		return pe.Status
	}

	switch {
	case errors.Is(err, shared.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// SendError writes {"error": message} with status, a JSON content type and the permissive CORS header.
func SendError(w http.ResponseWriter, status int, message string) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message})
}

// SendErr writes err through [SendError] using [StatusFor]. Returns the status written.
func SendErr(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	SendError(w, status, err.Error())
	return status
}
