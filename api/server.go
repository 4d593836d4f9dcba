// Package api exposes the bookkeeping engine as a JSON HTTP service for the
// presentation layer.
package api

import (
	"net/http"
	"time"

	"github.com/etnz/bookkeeper"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// idempotencyTTL is how long the response to a create is replayed for the
// same Idempotency-Key.
const idempotencyTTL = 24 * time.Hour

// Server serves the books of one business.
type Server struct {
	books    *bookkeeper.Coordinator
	currency string
	log      zerolog.Logger
	limiter  *rate.Limiter
	created  *cache.Cache
	policy   *bluemonday.Policy
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRateLimit allows one request every interval, with bursts of burst
// requests.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(rate.Every(interval), burst) }
}

// WithCurrency sets the currency of the formatted amounts.
func WithCurrency(code string) Option {
	return func(s *Server) { s.currency = code }
}

// New returns a server over books.
func New(books *bookkeeper.Coordinator, opts ...Option) *Server {
	s := &Server{
		books:    books,
		currency: "USD",
		log:      zerolog.Nop(),
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
		created:  cache.New(idempotencyTTL, 2*idempotencyTTL),
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.listTransactions)
		r.Post("/", s.createTransaction)
		r.Get("/{id}", s.getTransaction)
		r.Put("/{id}", s.editTransaction)
		r.Delete("/{id}", s.deleteTransaction)
	})
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", s.listContacts)
		r.Post("/", s.addContact)
		r.Patch("/{id}", s.updateContact)
		r.Get("/{id}/statement", s.statement)
	})
	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.listItems)
		r.Post("/", s.addItem)
	})
	r.Get("/summary", s.summary)
	r.Get("/audit", s.audit)
	return r
}

// ListenAndServe serves the routes on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	return srv.ListenAndServe()
}
