// Package server exposes the question-answering pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"ragagent/internal/domain"
	"ragagent/internal/history"
)

const maxQueryBytes = 64 << 10

// Processor answers questions.
type Processor interface {
	Process(ctx context.Context, query string) domain.QueryResult
}

// HistoryReader lists past questions.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]history.Entry, error)
}

// IndexStats describes the live index.
type IndexStats interface {
	Len() int
	Sources() []string
}

// Options wires optional collaborators.
type Options struct {
	// History may be nil, in which case /history returns 404.
	History      HistoryReader
	HistoryLimit int
	Stats        IndexStats
}

type queryRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the API handler with request logging.
func Handler(p Processor, opts Options, log zerolog.Logger) http.Handler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		q := strings.TrimSpace(req.Query)
		if q == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query"})
			return
		}
		res := p.Process(r.Context(), q)
		hlog.FromRequest(r).Info().Str("decision", res.Decision).Msg("answered")
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		if opts.History == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "history is disabled"})
			return
		}
		n := opts.HistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
				return
			}
			n = parsed
		}
		entries, err := opts.History.Recent(r.Context(), n)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("history query failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
			return
		}
		if entries == nil {
			entries = []history.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if opts.Stats != nil {
			sources := opts.Stats.Sources()
			if sources == nil {
				sources = []string{}
			}
			body["chunks"] = opts.Stats.Len()
			body["sources"] = sources
		}
		writeJSON(w, http.StatusOK, body)
	})

	return hlog.NewHandler(log)(
		hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			log.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Int("size", size).Dur("dur", dur).Msg("http")
		})(mux),
	)
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	s := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api server listening")
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
