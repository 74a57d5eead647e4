package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conntrack/handler"
)

type greetRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func greet(_ handler.Context, req greetRequest) handler.Response {
	if req.Name == "" {
		v := handler.ValidationError{}
		v.Add("name", "is required")
		return handler.JSONError(v)
	}
	return handler.JSON(map[string]string{"greeting": "hello " + req.Name})
}

func TestWrapBindsJSON(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(greet, handler.WithBinders(handler.BindJSON()))

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"greeting": "hello ada"}, decode(t, w).Data)
	})

	t.Run("empty body skips binder", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"is required"}, body.Error.Details["name"])
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_json", decode(t, w).Error.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nick":"x"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`name=ada`))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h(w, r)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestWrapErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body.Error.Code)
		assert.NotContains(t, w.Body.String(), "nil response", "internal details stay in logs")
	})

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		notFound := handler.NewHTTPError(http.StatusNotFound, "not_found", "")
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.JSONError(notFound.Wrap(errors.New("missing row")))
		})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.Equal(t, "not_found", body.Error.Code)
		assert.Equal(t, "Not Found", body.Error.Message)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()
		var got error
		h := handler.Wrap(
			func(handler.Context, greetRequest) handler.Response { return handler.JSON(nil) },
			handler.WithBinders(func(*http.Request, any) error { return io.ErrUnexpectedEOF }),
			handler.WithErrorHandler(func(ctx handler.Context, err error) {
				got = err
				ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
			}),
		)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.ErrorIs(t, got, io.ErrUnexpectedEOF)
	})
}

func TestJSONOptions(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	resp := handler.JSON([]int{1, 2}, handler.WithJSONStatus(http.StatusCreated), handler.WithJSONMeta(map[string]any{"total": 2}))
	require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{float64(1), float64(2)}, body.Data)
	assert.Equal(t, map[string]any{"total": float64(2)}, body.Meta)
	assert.Nil(t, body.Error)
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	v := handler.ValidationError{}
	assert.NoError(t, v.Err())
	v.Add("b", "bad")
	v.Add("a", "short")
	v.Add("a", "odd")
	assert.Equal(t, "validation failed: a: short, odd; b: bad", v.Error())
}

type textComponent string

func (c textComponent) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(c))
	return err
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.Templ(textComponent("<p>hi</p>")).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "<p>hi</p>", w.Body.String())
	})

	t.Run("datastar patch", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?datastar=%7B%7D", nil)
		w := httptest.NewRecorder()
		require.NoError(t, handler.Templ(textComponent(`<p id="x">hi</p>`), handler.WithTarget("#x")).Render(w, r))
		assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, w.Body.String(), "datastar-patch-elements")
		assert.Contains(t, w.Body.String(), "#x")
	})
}

func TestSSE(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()

	resp := handler.SSE(func(stream handler.StreamContext) error {
		if err := stream.SendSignals(map[string]any{"active": 3}); err != nil {
			return err
		}
		return stream.SendComponent(textComponent(`<li id="c1">c1</li>`))
	})
	require.NoError(t, resp.Render(w, r))

	body := w.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"active":3`)
	assert.Contains(t, body, "datastar-patch-elements")
}
