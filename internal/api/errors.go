package api

import (
	"errors"
	"net/http"

	"stockserver/internal/scrape"
	"stockserver/internal/stocks"
)

const (
	kindValidation    = "validation"
	kindUpstream      = "upstream"
	kindPageStructure = "page_structure"
	kindInternal      = "internal"
)

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// classify maps a service error to its status code and kind.
func classify(err error) (int, string) {
	var (
		ve *stocks.ValidationError
		ue *stocks.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, kindValidation
	case errors.Is(err, scrape.ErrStructure):
		return http.StatusInternalServerError, kindPageStructure
	case errors.As(err, &ue):
		return http.StatusInternalServerError, kindUpstream
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	s.writeErrorStatus(w, r, status, kind, err.Error())
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	event := s.log.Debug()
	if status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event.
		Str("path", r.URL.Path).
		Str("kind", kind).
		Str("correlation_id", w.Header().Get(headerCorrelationID)).
		Msg(msg)
	writeJSON(w, status, apiError{Error: msg, Kind: kind})
}
