package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

const datastarQueryParam = "datastar"

// IsDataStar reports whether the request comes from a DataStar client.
func IsDataStar(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
		r.URL.Query().Has(datastarQueryParam)
}

// TemplComponent matches templ.Component.
type TemplComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// TemplOption configures where and how a component is patched in.
type TemplOption = datastar.PatchElementOption

// WithTarget sets the CSS selector the component is patched into.
func WithTarget(selector string) TemplOption { return datastar.WithSelector(selector) }

// WithPatchMode sets how the component is merged into the DOM.
func WithPatchMode(mode datastar.ElementPatchMode) TemplOption { return datastar.WithMode(mode) }

type templResponse struct {
	component TemplComponent
	options   []TemplOption
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.component, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.component.Render(r.Context(), w)
}

// Templ renders a component as HTML, or as an element patch for DataStar requests.
func Templ(component TemplComponent, opts ...TemplOption) Response {
	return templResponse{component: component, options: opts}
}

// StreamContext sends patches over an open SSE connection.
type StreamContext interface {
	Context
	SendComponent(component TemplComponent, opts ...TemplOption) error
	SendSignals(signals map[string]any) error
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SendComponent(component TemplComponent, opts ...TemplOption) error {
	return c.sse.PatchElementTempl(component, opts...)
}

func (c *streamContext) SendSignals(signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return c.sse.PatchSignals(data)
}

// SSEHandler runs for the lifetime of a stream and returns when the client leaves.
type SSEHandler func(stream StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return s.handler(&streamContext{
		Context: NewContext(w, r),
		sse:     datastar.NewSSE(w, r),
	})
}

// SSE opens a DataStar event stream and runs h on it.
func SSE(h SSEHandler) Response {
	return sseResponse{handler: h}
}
