// Package api exposes the stock operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"stockserver/internal/logging"
	"stockserver/internal/provider"
	"stockserver/internal/ranking"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is not set.
const DefaultMaxBodyBytes = 1 << 20

// Service is what the handlers need from the stocks service.
type Service interface {
	Quote(ctx context.Context, ticker string) (provider.Quote, error)
	Quotes(ctx context.Context, tickers []string) ([]provider.Result, error)
	Tickers(ctx context.Context) ([]string, error)
	TopCompanies(ctx context.Context) ([]ranking.Company, error)
	MostActive(ctx context.Context) ([]string, error)
}

type Options struct {
	MaxBodyBytes int64
}

type Server struct {
	svc  Service
	log  *logging.Logger
	opts Options
}

func NewServer(svc Service, log *logging.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = logging.NewSilent()
	}
	return &Server{svc: svc, log: log, opts: opts}
}

// Mount registers the API routes and health check on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(withJSONHeaders)
		r.Get("/v1/stock-price", s.handleStockPrice)
		r.Get("/v1/sp500-tickers", s.handleTickers)
		r.Get("/v2/sp500-tickers", s.handleTopCompanies)
		r.Post("/v1/sp500-stock-price", s.handleBatchStockPrice)
		r.Get("/v1/most-active", s.handleMostActive)
	})
}

// Handler returns the full middleware stack around a fresh router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		correlationID,
		requestLogger(s.log),
		cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", headerRequestID, headerCorrelationID},
			ExposedHeaders: []string{headerCorrelationID},
		}).Handler,
		withGzip,
		recoverPanic(s.log),
		limitBody(s.opts.MaxBodyBytes),
	)
	s.Mount(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func (s *Server) handleStockPrice(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Quote(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(q))
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.svc.Tickers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickersResponse{Tickers: tickers})
}

func (s *Server) handleTopCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.svc.TopCompanies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companiesResponse{Companies: companies})
}

type batchRequest struct {
	Tickers []string `json:"tickers"`
}

func (s *Server) handleBatchStockPrice(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorStatus(w, r, http.StatusRequestEntityTooLarge, kindValidation, "request body too large")
			return
		}
		s.writeErrorStatus(w, r, http.StatusBadRequest, kindValidation, "invalid JSON body")
		return
	}

	results, err := s.svc.Quotes(r.Context(), body.Tickers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]batchItem, 0, len(results))
	for _, res := range results {
		out = append(out, newBatchItem(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMostActive(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.svc.MostActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}
	writeJSON(w, http.StatusOK, tickers)
}
