package tracker

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/conntrack/handler"
	"github.com/dmitrymomot/conntrack/pkg/signature"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
	"github.com/dmitrymomot/conntrack/pkg/training"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// RegistryService exposes the signature catalog, ad-hoc classification and training.
type RegistryService struct {
	catalog      *signature.Catalog
	tracking     *tracking.Service
	feedback     *training.Feedback
	errorHandler handler.ErrorHandler
}

// NewRegistryService wires the registry endpoints. feedback may be nil, in which
// case the training routes are not mounted.
func NewRegistryService(catalog *signature.Catalog, svc *tracking.Service, feedback *training.Feedback, errorHandler handler.ErrorHandler) *RegistryService {
	return &RegistryService{catalog: catalog, tracking: svc, feedback: feedback, errorHandler: errorHandler}
}

// Register mounts the routes under /registry. writes wrap the training endpoint.
func (s *RegistryService) Register(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/devices", handler.Wrap(s.entries(signature.CategoryDevice), handler.WithErrorHandler(s.errorHandler)))
		r.Get("/browsers", handler.Wrap(s.entries(signature.CategoryBrowser), handler.WithErrorHandler(s.errorHandler)))
		r.Get("/os", handler.Wrap(s.entries(signature.CategoryOS), handler.WithErrorHandler(s.errorHandler)))
		r.Post("/classify", handler.Wrap(s.classify,
			handler.WithBinders(handler.BindJSON()),
			handler.WithErrorHandler(s.errorHandler),
		))
		if s.feedback != nil {
			r.With(writes...).Post("/train", handler.Wrap(s.train,
				handler.WithBinders(handler.BindJSON()),
				handler.WithErrorHandler(s.errorHandler),
			))
			r.Get("/train/recent", handler.Wrap(s.recent, handler.WithErrorHandler(s.errorHandler)))
		}
	})
}

// ClassifyRequest is the body of POST /registry/classify.
type ClassifyRequest struct {
	UserAgent string `json:"userAgent"`
}

// TrainRequest is the body of POST /registry/train. Patterns are keyed by
// category name ("device", "browser", "os").
type TrainRequest struct {
	UserAgent string            `json:"userAgent"`
	Device    string            `json:"device"`
	Browser   string            `json:"browser"`
	OS        string            `json:"os"`
	Patterns  map[string]string `json:"patterns"`
}

func (s *RegistryService) entries(cat signature.Category) handler.HandlerFunc[noBody] {
	return func(_ handler.Context, _ noBody) handler.Response {
		entries, err := s.catalog.Entries(cat)
		if err != nil {
			return fail(err)
		}
		return handler.JSON(entries, handler.WithJSONMeta(map[string]any{
			"total":          len(entries),
			"catalogVersion": s.catalog.Version(),
		}))
	}
}

func (s *RegistryService) classify(ctx handler.Context, req ClassifyRequest) handler.Response {
	if req.UserAgent == "" {
		req.UserAgent = ctx.Request().UserAgent()
	}
	return handler.JSON(s.tracking.Classify(ctx, req.UserAgent))
}

func (s *RegistryService) train(ctx handler.Context, req TrainRequest) handler.Response {
	ex, verr := req.example()
	if verr != nil {
		return handler.JSONError(verr)
	}
	ack, err := s.feedback.Submit(ctx, ex)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(ack)
}

func (s *RegistryService) recent(ctx handler.Context, _ noBody) handler.Response {
	limit := defaultRecentLimit
	if raw := ctx.Request().URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRecentLimit {
			v := handler.ValidationError{}
			v.Add("limit", "must be an integer between 1 and "+strconv.Itoa(maxRecentLimit))
			return handler.JSONError(v)
		}
		limit = n
	}

	examples, err := s.recentExamples(ctx, limit)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(examples, handler.WithJSONMeta(map[string]any{"total": len(examples)}))
}

func (s *RegistryService) recentExamples(ctx context.Context, limit int) ([]training.Example, error) {
	examples, err := s.feedback.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if examples == nil {
		examples = []training.Example{}
	}
	return examples, nil
}

func (req TrainRequest) example() (training.Example, error) {
	v := handler.ValidationError{}
	if req.UserAgent == "" {
		v.Add("userAgent", "is required")
	}

	var patterns map[signature.Category]string
	for key, raw := range req.Patterns {
		cat, err := signature.ParseCategory(key)
		if err != nil {
			v.Add("patterns."+key, "unknown category")
			continue
		}
		if patterns == nil {
			patterns = make(map[signature.Category]string, len(req.Patterns))
		}
		patterns[cat] = raw
	}
	if err := v.Err(); err != nil {
		return training.Example{}, err
	}

	return training.Example{
		UserAgent: req.UserAgent,
		Device:    req.Device,
		Browser:   req.Browser,
		OS:        req.OS,
		Patterns:  patterns,
	}, nil
}
