package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
)

// maxBodyBytes bounds event request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Code    cterr.Code `json:"code"`
	Message string     `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a {code, message} body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

// errorBody builds the client-facing error. Messages of internal errors are
// not exposed.
func errorBody(err error) (int, errorResponse) {
	status := statusFor(err)
	code := cterr.GetCode(err)
	if code == "" {
		code = cterr.ErrCodeInternal
	}
	msg := cterr.UserMessage(err)
	var ce *cterr.Error
	if errors.As(err, &ce) && ce.Cause != nil {
		msg += ": " + ce.Cause.Error()
	}
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return status, errorResponse{Code: code, Message: msg}
}

func statusFor(err error) int {
	switch {
	case cterr.IsNotFound(err):
		return http.StatusNotFound
	case cterr.IsInvalid(err):
		return http.StatusBadRequest
	case cterr.Is(err, cterr.ErrCodeRateLimited):
		return http.StatusTooManyRequests
	case cterr.Is(err, cterr.ErrCodeUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cterr.Wrap(cterr.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
