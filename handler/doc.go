// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value already filled by the
// configured binders, and returns a Response: JSON for API clients, Templ for
// HTML pages and DataStar patches, or SSE for long-lived streams.
//
//	type renameRequest struct {
//		Username string `json:"username"`
//	}
//
//	r.Put("/connections/{id}/username", handler.Wrap(
//		func(ctx handler.Context, req renameRequest) handler.Response {
//			rec, err := svc.UpdateUsername(ctx, chi.URLParam(ctx.Request(), "id"), req.Username)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(rec)
//		},
//		handler.WithBinders(handler.BindJSON()),
//	))
//
// Errors become JSON envelopes {"error": {"code", "message", "details"}}.
// HTTPError carries its own status; ValidationError maps to 400; anything else is a 500.
package handler
