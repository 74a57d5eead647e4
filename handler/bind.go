package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const maxJSONBody = 1 << 20

// BindJSON decodes a JSON request body. Requests without a body are skipped;
// other content types are rejected with 415.
func BindJSON() Bind {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
			return ErrNotApplicable
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			mt, _, err := mime.ParseMediaType(ct)
			if err != nil || mt != "application/json" {
				return NewHTTPError(http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
			}
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrNotApplicable
			}
			return NewHTTPError(http.StatusBadRequest, "invalid_json", fmt.Sprintf("invalid JSON body: %v", err)).Wrap(err)
		}
		return nil
	}
}
