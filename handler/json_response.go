package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// WithJSONMeta attaches metadata.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// JSON responds with data wrapped in the envelope, 200 by default.
func JSON(data any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: data}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError responds with err wrapped in the envelope. HTTPError and
// ValidationError set the status; anything else is a 500.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error, status *int) *ErrorDetail {
	var verr ValidationError
	if errors.As(err, &verr) {
		*status = http.StatusBadRequest
		return &ErrorDetail{Code: "validation_error", Message: "validation failed", Details: verr}
	}

	var herr HTTPError
	if errors.As(err, &herr) {
		*status = herr.Code
		return &ErrorDetail{Code: herr.Key, Message: herr.Message}
	}

	return &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}
}
