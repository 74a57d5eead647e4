package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/conntrack/pkg/classifier"
	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/geo"
	"github.com/dmitrymomot/conntrack/pkg/logger"
)

// Input is a request to track a connection. An empty ConnectionID gets a generated one.
type Input struct {
	ConnectionID string `json:"connectionId,omitempty"`
	IP           string `json:"ip"`
	UserAgent    string `json:"userAgent"`
}

// Counts summarizes the store.
type Counts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// Service combines classification, geolocation and the connection store
// behind the operations exposed to transports.
type Service struct {
	store      *connection.Store
	classifier *classifier.Classifier
	locator    geo.Locator
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLocator enables country lookup.
func WithLocator(l geo.Locator) Option {
	return func(s *Service) {
		if l != nil {
			s.locator = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator overrides how missing connection ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a Service.
func New(store *connection.Store, cls *classifier.Classifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		classifier: cls,
		locator:    geo.Noop{},
		logger:     logger.Discard(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track classifies the user agent once, resolves the country and upserts the record.
func (s *Service) Track(ctx context.Context, in Input) (connection.Record, error) {
	ip := strings.TrimSpace(in.IP)
	if ip == "" {
		return connection.Record{}, fmt.Errorf("%w: ip is required", connection.ErrValidation)
	}
	if net.ParseIP(ip) == nil {
		return connection.Record{}, fmt.Errorf("%w: ip %q is not a valid address", connection.ErrValidation, ip)
	}

	id := strings.TrimSpace(in.ConnectionID)
	if id == "" {
		id = s.newID()
	}

	client := s.classifier.Classify(in.UserAgent)

	country, err := s.locator.Country(ctx, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "country lookup failed", logger.IP(ip), logger.Error(err))
		country = ""
	}

	rec, err := s.store.TrackConnect(id, ip, in.UserAgent,
		connection.WithClassification(client),
		connection.WithCountry(country),
	)
	if err != nil {
		return connection.Record{}, err
	}

	s.logger.InfoContext(ctx, "connection tracked",
		logger.ConnectionID(rec.ID),
		logger.IP(rec.IP),
		logger.Client(client.ShortIdentifier()),
		slog.Bool("ambiguous", client.Ambiguous),
	)
	return rec, nil
}

// Disconnect marks a connection as closed.
func (s *Service) Disconnect(ctx context.Context, id string) (connection.Record, error) {
	rec, err := s.store.TrackDisconnect(id)
	if err != nil {
		return connection.Record{}, err
	}
	s.logger.InfoContext(ctx, "connection closed",
		logger.ConnectionID(rec.ID),
		logger.Duration(rec.Duration(*rec.DisconnectedAt)),
		slog.String("elapsed", rec.FormattedDuration(*rec.DisconnectedAt)),
	)
	return rec, nil
}

// UpdateUsername renames the user of a connection.
func (s *Service) UpdateUsername(_ context.Context, id, username string) (connection.Record, error) {
	return s.store.UpdateUsername(id, username)
}

// Get returns one connection.
func (s *Service) Get(_ context.Context, id string) (connection.Record, error) {
	return s.store.Get(id)
}

// ByIP returns the connections last seen from ip.
func (s *Service) ByIP(_ context.Context, ip string) []connection.Record {
	return s.store.ByIP(ip)
}

// Active returns connected records.
func (s *Service) Active(context.Context) []connection.Record {
	return s.store.Active()
}

// All returns every record.
func (s *Service) All(context.Context) []connection.Record {
	return s.store.All()
}

// Counts returns the total and active record counts.
func (s *Service) Counts(context.Context) Counts {
	return Counts{Total: s.store.Count(), Active: s.store.ActiveCount()}
}

// Classify classifies a user agent without tracking anything.
func (s *Service) Classify(_ context.Context, userAgent string) classifier.Classification {
	return s.classifier.Classify(userAgent)
}
