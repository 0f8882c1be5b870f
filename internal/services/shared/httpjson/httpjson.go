// Package httpjson provides the JSON envelope shared by HTTP surfaces.
package httpjson

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the machine-readable error half of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Envelope wraps every JSON response.
type Envelope struct {
	Data  any        `json:"data,omitempty"`
	Count *int       `json:"count,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// Write sends one success envelope.
func Write(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Data: data})
}

// WriteCount sends one success envelope with an unpaged match count.
func WriteCount(w http.ResponseWriter, status int, data any, count int) {
	writeEnvelope(w, status, Envelope{Data: data, Count: &count})
}

// WriteError sends one error envelope, mapping domain codes to statuses.
// Errors outside the domain taxonomy become opaque 500s so internals never
// leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		writeEnvelope(w, domainErr.Code.HTTPStatus(), Envelope{Error: &ErrorBody{
			Code:    string(domainErr.Code),
			Kind:    string(domainErr.Code.Kind()),
			Message: domainErr.Message,
		}})
		return
	}
	log.Printf("httpjson: unclassified error: %v", err)
	writeEnvelope(w, http.StatusInternalServerError, Envelope{Error: &ErrorBody{
		Code:    string(apperrors.CodeUnknown),
		Kind:    string(apperrors.KindUnknown),
		Message: "internal error",
	}})
}

// WriteStatus sends one error envelope with an explicit status for transport
// failures that have no domain code (bad JSON, missing session).
func WriteStatus(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Envelope{Error: &ErrorBody{
		Code:    code,
		Kind:    kindForStatus(status),
		Message: message,
	}})
}

func kindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return string(apperrors.KindAuthorization)
	case status == http.StatusNotFound:
		return string(apperrors.KindNotFound)
	case status >= 400 && status < 500:
		return string(apperrors.KindValidation)
	default:
		return string(apperrors.KindUnknown)
	}
}

func writeEnvelope(w http.ResponseWriter, status int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		log.Printf("httpjson: encode response: %v", err)
	}
}

// Decode reads one JSON request body into target with a size cap.
func Decode(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}
