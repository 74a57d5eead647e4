package tracker

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/conntrack/handler"
	"github.com/dmitrymomot/conntrack/pkg/events"
	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
)

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 3 * time.Second

// StatusService renders the status page, the live event stream and the health endpoint.
type StatusService struct {
	service  string
	tracking *tracking.Service
	catalog  *signature.Catalog
	bus      *events.Bus
	stream   *events.Stream
	checks   map[string]HealthCheck
	logger   *slog.Logger
	now      func() time.Time
}

// Register mounts /status, /health and /connections/events on r.
func (s *StatusService) Register(r chi.Router) {
	r.Get("/status", handler.Wrap(s.status))
	r.Get("/health", handler.Wrap(s.health))
	if s.stream != nil {
		r.Get("/connections/events", handler.Wrap(s.events))
	}
}

// HealthReport is the body of GET /health.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *StatusService) view(ctx context.Context) StatusView {
	v := StatusView{
		Service: s.service,
		Counts:  s.tracking.Counts(ctx),
		Active:  s.tracking.Active(ctx),
		Now:     s.now(),
	}
	if s.catalog != nil {
		v.CatalogVersion = s.catalog.Version()
	}
	if s.bus != nil {
		v.Bus = s.bus.Stats()
	}
	if s.stream != nil {
		v.Subscribers = s.stream.Len()
	}
	return v
}

func (s *StatusService) status(ctx handler.Context, _ noBody) handler.Response {
	return handler.Templ(statusPage(s.view(ctx)))
}

func (s *StatusService) health(ctx handler.Context, _ noBody) handler.Response {
	report := HealthReport{Status: "ok"}
	if len(s.checks) == 0 {
		return handler.JSON(report)
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report.Checks = make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, healthTimeout)
		err := s.checks[name](cctx)
		cancel()
		if err != nil {
			s.logger.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Error(err))
			report.Status = "degraded"
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}

	if report.Status != "ok" {
		return handler.JSON(report, handler.WithJSONStatus(http.StatusServiceUnavailable))
	}
	return handler.JSON(report)
}

// events streams counts as signals and the active table as element patches,
// once on connect and again after every connection event.
func (s *StatusService) events(_ handler.Context, _ noBody) handler.Response {
	return handler.SSE(func(stream handler.StreamContext) error {
		sub := s.stream.Subscribe(stream)
		defer sub.Close()

		if err := s.push(stream); err != nil {
			return err
		}
		for {
			select {
			case <-stream.Done():
				return nil
			case ev, ok := <-sub.Events():
				if !ok {
					return nil
				}
				s.logger.DebugContext(stream, "streaming connection event",
					logger.Event(string(ev.Kind)),
					logger.ConnectionID(ev.Record.ID),
				)
				if err := s.push(stream); err != nil {
					return err
				}
			}
		}
	})
}

func (s *StatusService) push(stream handler.StreamContext) error {
	v := s.view(stream)
	if err := stream.SendSignals(map[string]any{"total": v.Counts.Total, "active": v.Counts.Active}); err != nil {
		return err
	}
	return stream.SendComponent(connectionsTable(v.Active, v.Now))
}
