package devicesim

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxConfigBody = 8 << 10
	maxSmallBody  = 256
)

// ServerOptions configures the HTTP front end. Latency delays every request
// and FailEvery rejects every Nth POST, to exercise the editor's save and
// retry paths.
type ServerOptions struct {
	Latency   time.Duration
	FailEvery int
	Logger    *slog.Logger
}

// Server exposes a Device over the controller's /api endpoints.
type Server struct {
	dev    *Device
	opts   ServerOptions
	logger *slog.Logger
	posts  atomic.Int64
}

// NewServer wraps dev.
func NewServer(dev *Device, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dev: dev, opts: opts, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.faults)

	r.Get("/api/meta", s.getMeta)
	r.Get("/api/layout", s.getLayout)
	r.Post("/api/layout", s.postLayout)
	r.Get("/api/bank", s.getBank)
	r.Post("/api/bank", s.postBank)
	r.Get("/api/button", s.getButton)
	r.Post("/api/button", s.postButton)
	r.Get("/api/led", s.getLED)
	r.Post("/api/led", s.postLED)
	r.Get("/api/expfs", s.getExpFS)
	r.Post("/api/expfs", s.postExpFS)
	r.Post("/api/expfs_cal", s.postCal)
	r.Get("/api/state", s.getState)
	r.Post("/api/state", s.postState)

	// Emulator controls standing in for the physical switches and pedals.
	r.Route("/sim", func(r chi.Router) {
		r.Post("/pedal", s.simPedal)
		r.Post("/bank", s.simBank)
	})
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		if r.Method == http.MethodPost && s.opts.FailEvery > 0 {
			if n := s.posts.Add(1); n%int64(s.opts.FailEvery) == 0 {
				writeText(w, http.StatusServiceUnavailable, "device busy")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.Meta())
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.Layout())
}

func (s *Server) postLayout(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, maxConfigBody, s.dev.SetLayout)
}

func (s *Server) getBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.Bank(queryInt(r, "bank")))
}

func (s *Server) postBank(w http.ResponseWriter, r *http.Request) {
	bank := queryInt(r, "bank")
	s.apply(w, r, maxConfigBody, func(body []byte) error {
		return s.dev.SetBank(bank, body)
	})
}

func (s *Server) getButton(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.Button(queryInt(r, "bank"), queryInt(r, "btn")))
}

func (s *Server) postButton(w http.ResponseWriter, r *http.Request) {
	bank, btn := queryInt(r, "bank"), queryInt(r, "btn")
	s.apply(w, r, maxConfigBody, func(body []byte) error {
		return s.dev.SetButton(bank, btn, body)
	})
}

func (s *Server) getLED(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.LED())
}

func (s *Server) postLED(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, maxSmallBody, s.dev.SetLED)
}

func (s *Server) getExpFS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.ExpFS(queryInt(r, "port")))
}

func (s *Server) postExpFS(w http.ResponseWriter, r *http.Request) {
	port := queryInt(r, "port")
	s.apply(w, r, maxConfigBody, func(body []byte) error {
		return s.dev.SetExpFS(port, body)
	})
}

func (s *Server) postCal(w http.ResponseWriter, r *http.Request) {
	res, err := s.dev.Calibrate(queryInt(r, "port"), r.URL.Query().Get("which"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dev.Live())
}

func (s *Server) postState(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, maxSmallBody, s.dev.SetLive)
}

func (s *Server) simPedal(w http.ResponseWriter, r *http.Request) {
	s.dev.SetPedal(queryInt(r, "port"), queryInt(r, "raw"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) simBank(w http.ResponseWriter, r *http.Request) {
	s.dev.PressBank(queryInt(r, "bank"))
	w.WriteHeader(http.StatusNoContent)
}

// apply reads a bounded body and hands it to fn.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, limit int64, fn func([]byte) error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil || len(body) == 0 || int64(len(body)) > limit {
		writeText(w, http.StatusBadRequest, "bad body")
		return
	}
	if err := fn(body); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		writeText(w, apiErr.Status, apiErr.Msg)
		return
	}
	s.logger.Error("device request failed", "error", err)
	writeText(w, http.StatusInternalServerError, "internal error")
}

// queryInt mirrors the firmware: a missing or malformed value reads as 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
