package shortener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// RecentLimit caps the recent links listing.
	RecentLimit = 10
	// DefaultMaxAttempts bounds code generation retries on collision.
	DefaultMaxAttempts = 5
)

var (
	ErrInvalidURL         = errors.New("originalUrl is required")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique short code")
)

// Resolve outcomes reported to a Recorder.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder observes service outcomes, typically for metrics.
type Recorder interface {
	ObserveShorten(created bool)
	ObserveCollision()
	ObserveResolve(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveShorten(bool)   {}
func (nopRecorder) ObserveCollision()     {}
func (nopRecorder) ObserveResolve(string) {}

// ShortenInput is the caller-supplied data for a new link.
type ShortenInput struct {
	OriginalURL string
	Title       string
}

// Result is the outcome of Shorten. Created is false when an existing link
// for the same normalized URL was reused.
type Result struct {
	Link    *Link
	Created bool
}

// Option configures a Service.
type Option func(*Service)

// WithMaxAttempts overrides how many codes are tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRecorder attaches an outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithReservedCodes marks codes that must never be assigned, such as path
// segments routed to something other than a redirect. A generated reserved
// code is treated like a collision.
func WithReservedCodes(codes ...string) Option {
	return func(s *Service) {
		for _, code := range codes {
			s.reserved[Code(code)] = struct{}{}
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service creates, resolves and lists short links.
type Service struct {
	store        Repository
	generateCode CodeGenerator
	baseURL      string
	maxAttempts  int
	recorder     Recorder
	reserved     map[Code]struct{}
	now          func() time.Time
	logger       *zap.Logger
}

// NewService creates a link service. baseURL is the public address short
// codes are appended to when building short URLs.
func NewService(
	store Repository,
	generator CodeGenerator,
	baseURL string,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:        store,
		generateCode: generator,
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxAttempts:  DefaultMaxAttempts,
		recorder:     nopRecorder{},
		reserved:     make(map[Code]struct{}),
		now:          time.Now,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ShortURL returns the public short URL for code.
func (s *Service) ShortURL(code Code) string {
	return fmt.Sprintf("%s/%s", s.baseURL, code)
}

// Shorten stores a link for in.OriginalURL, or returns the link already
// stored for the same normalized URL.
func (s *Service) Shorten(ctx context.Context, in ShortenInput) (*Result, error) {
	if strings.TrimSpace(in.OriginalURL) == "" {
		return nil, ErrInvalidURL
	}

	normalized := Normalize(in.OriginalURL)

	existing, err := s.store.GetByURL(ctx, normalized)
	if err == nil {
		s.recorder.ObserveShorten(false)

		return &Result{Link: existing}, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	title := DeriveTitle(normalized, in.Title)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		now := s.now()
		link := &Link{
			Title:       title,
			OriginalURL: normalized,
			Code:        Code(s.generateCode()),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if _, ok := s.reserved[link.Code]; ok {
			err = ErrCodeExists
		} else {
			err = s.store.Create(ctx, link)
		}

		switch {
		case err == nil:
			s.recorder.ObserveShorten(true)

			return &Result{Link: link, Created: true}, nil
		case errors.Is(err, ErrCodeExists):
			s.recorder.ObserveCollision()
			s.logger.Info("short code collision, generating a new one",
				zap.String("code", string(link.Code)),
				zap.Int("attempt", attempt),
			)
		case errors.Is(err, ErrURLExists):
			// Lost a race with a concurrent request for the same URL.
			return s.reuse(ctx, normalized)
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, s.maxAttempts)
}

func (s *Service) reuse(ctx context.Context, normalized string) (*Result, error) {
	existing, err := s.store.GetByURL(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveShorten(false)

	return &Result{Link: existing}, nil
}

// Resolve looks up code and records a visit. Unknown codes return
// ErrNotFound and leave the store untouched.
func (s *Service) Resolve(ctx context.Context, code Code) (*Link, error) {
	if !ValidCode(string(code)) {
		s.recorder.ObserveResolve(OutcomeNotFound)

		return nil, ErrNotFound
	}

	link, err := s.store.RecordVisit(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recorder.ObserveResolve(OutcomeNotFound)
		} else {
			s.recorder.ObserveResolve(OutcomeError)
		}

		return nil, err
	}

	s.recorder.ObserveResolve(OutcomeFound)

	return link, nil
}

// List returns every link, newest first.
func (s *Service) List(ctx context.Context) ([]*Link, error) {
	return s.store.List(ctx, 0)
}

// Recent returns at most RecentLimit links, newest first.
func (s *Service) Recent(ctx context.Context) ([]*Link, error) {
	return s.store.List(ctx, RecentLimit)
}
