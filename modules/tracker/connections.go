package tracker

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/conntrack/handler"
	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
)

// ConnectionService exposes connection tracking and queries.
type ConnectionService struct {
	tracking     *tracking.Service
	errorHandler handler.ErrorHandler
}

func NewConnectionService(svc *tracking.Service, errorHandler handler.ErrorHandler) *ConnectionService {
	return &ConnectionService{tracking: svc, errorHandler: errorHandler}
}

// Register mounts the routes on r. writes wrap the mutating endpoints.
func (s *ConnectionService) Register(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.With(writes...).Post("/track", handler.Wrap(s.track,
		handler.WithBinders(handler.BindJSON()),
		handler.WithErrorHandler(s.errorHandler),
	))

	r.Route("/connections", func(r chi.Router) {
		r.Get("/", handler.Wrap(s.all, handler.WithErrorHandler(s.errorHandler)))
		r.Get("/active", handler.Wrap(s.active, handler.WithErrorHandler(s.errorHandler)))
		r.Get("/count", handler.Wrap(s.count, handler.WithErrorHandler(s.errorHandler)))
		r.Get("/ip/{ip}", handler.Wrap(s.byIP, handler.WithErrorHandler(s.errorHandler)))
		r.Get("/{id}", handler.Wrap(s.get, handler.WithErrorHandler(s.errorHandler)))
		r.With(writes...).Put("/{id}/username", handler.Wrap(s.rename,
			handler.WithBinders(handler.BindJSON()),
			handler.WithErrorHandler(s.errorHandler),
		))
		r.With(writes...).Post("/{id}/disconnect", handler.Wrap(s.disconnect, handler.WithErrorHandler(s.errorHandler)))
	})
}

// TrackRequest is the body of POST /track.
type TrackRequest struct {
	ConnectionID string `json:"connectionId"`
	IP           string `json:"ip"`
	UserAgent    string `json:"userAgent"`
}

// RenameRequest is the body of PUT /connections/{id}/username.
type RenameRequest struct {
	Username string `json:"username"`
}

type noBody struct{}

func (s *ConnectionService) track(ctx handler.Context, req TrackRequest) handler.Response {
	if req.IP == "" {
		v := handler.ValidationError{}
		v.Add("ip", "is required")
		return handler.JSONError(v)
	}
	rec, err := s.tracking.Track(ctx, tracking.Input{
		ConnectionID: req.ConnectionID,
		IP:           req.IP,
		UserAgent:    req.UserAgent,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(rec, handler.WithJSONStatus(http.StatusCreated))
}

func (s *ConnectionService) all(ctx handler.Context, _ noBody) handler.Response {
	return list(s.tracking.All(ctx))
}

func (s *ConnectionService) active(ctx handler.Context, _ noBody) handler.Response {
	return list(s.tracking.Active(ctx))
}

func (s *ConnectionService) count(ctx handler.Context, _ noBody) handler.Response {
	return handler.JSON(s.tracking.Counts(ctx))
}

func (s *ConnectionService) byIP(ctx handler.Context, _ noBody) handler.Response {
	return list(s.tracking.ByIP(ctx, chi.URLParam(ctx.Request(), "ip")))
}

func (s *ConnectionService) get(ctx handler.Context, _ noBody) handler.Response {
	rec, err := s.tracking.Get(ctx, chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(rec)
}

func (s *ConnectionService) rename(ctx handler.Context, req RenameRequest) handler.Response {
	rec, err := s.tracking.UpdateUsername(ctx, chi.URLParam(ctx.Request(), "id"), req.Username)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(rec)
}

func (s *ConnectionService) disconnect(ctx handler.Context, _ noBody) handler.Response {
	rec, err := s.tracking.Disconnect(ctx, chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return fail(err)
	}
	return handler.JSON(rec)
}

func list(records []connection.Record) handler.Response {
	if records == nil {
		records = []connection.Record{}
	}
	return handler.JSON(records, handler.WithJSONMeta(map[string]any{"total": len(records)}))
}
