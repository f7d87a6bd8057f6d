// Package api exposes the relay over HTTP for callers that do not link the
// Go packages directly.
//
// Endpoints:
//
//	GET  /status          - health, uptime and effective settings
//	GET  /metrics         - counter snapshot
//	POST /v1/anonymize    - DataPackage JSON → anonymized package + identity map
//	POST /v1/deanonymize  - {"identities":…, "text":…, "records":[…]} → restored text/records
//	POST /v1/contract     - {"text":…, "names":{…}} → scrubbed contract excerpt
//
// The server keeps no identity maps: /v1/anonymize hands the map to the
// caller, who sends it back with /v1/deanonymize.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"ai-privacy-relay/internal/anonymizer"
	"ai-privacy-relay/internal/config"
	"ai-privacy-relay/internal/logger"
	"ai-privacy-relay/internal/relay"
	"ai-privacy-relay/internal/scrub"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// defaultMaxBody applies when the configuration sets no body limit.
const defaultMaxBody = 10 << 20

// Server is the relay HTTP API server.
type Server struct {
	cfg       *config.Config
	svc       *relay.Service
	log       *logger.Logger
	startTime time.Time
	token     string // bearer token for auth; empty = no auth
}

// New creates an API server around svc.
func New(cfg *config.Config, svc *relay.Service, log *logger.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		svc:       svc,
		log:       log,
		startTime: time.Now(),
		token:     cfg.APIToken,
	}
	if s.token != "" {
		log.Info("api", "Bearer token authentication enabled")
	}
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/v1/anonymize", s.handleAnonymize)
	mux.HandleFunc("/v1/deanonymize", s.handleDeanonymize)
	mux.HandleFunc("/v1/contract", s.handleContract)
	return requestIDMiddleware(s.authMiddleware(mux))
}

// requestIDMiddleware takes the caller's X-Request-ID or generates one,
// echoes it in the response and hands it to the relay through the context.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(relay.WithRequestID(r.Context(), id)))
	})
}

// authMiddleware checks for a valid Bearer token if one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(auth[len(prefix):])), []byte(s.token)) != 1 {
			s.log.Warnf("auth", "Unauthorized access attempt from %s to %s", r.RemoteAddr, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Uptime   string `json:"uptime"`
		Contract struct {
			MaxChunks     int `json:"maxChunks"`
			MinChunkChars int `json:"minChunkChars"`
		} `json:"contract"`
		ValidateInput bool `json:"validateInput"`
	}

	resp := response{
		Status:        "running",
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		ValidateInput: s.cfg.ValidateInput,
	}
	resp.Contract.MaxChunks = s.cfg.MaxChunks
	resp.Contract.MinChunkChars = s.cfg.MinChunkChars

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Metrics().Snapshot())
}

type anonymizeResponse struct {
	RequestID   string                  `json:"requestId"`
	Package     *anonymizer.DataPackage `json:"package"`
	Instruction string                  `json:"instruction,omitempty"`
	Identities  *anonymizer.IdentityMap `json:"identities"`
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	p, err := s.svc.DecodePackage(r.Context(), raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.svc.PrepareAnalysis(r.Context(), p)
	if err != nil {
		s.writeRelayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, anonymizeResponse{
		RequestID:   a.RequestID,
		Package:     a.Package,
		Instruction: a.Instruction,
		Identities:  a.Identities,
	})
}

type deanonymizeRequest struct {
	Identities *anonymizer.IdentityMap `json:"identities"`
	Text       string                  `json:"text,omitempty"`
	Records    []anonymizer.Record     `json:"records,omitempty"`
}

type deanonymizeResponse struct {
	Text    string              `json:"text,omitempty"`
	Records []anonymizer.Record `json:"records,omitempty"`
}

func (s *Server) handleDeanonymize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req deanonymizeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Identities == nil {
		http.Error(w, `invalid request: need {"identities":{...}}`, http.StatusBadRequest)
		return
	}

	var resp deanonymizeResponse
	if req.Text != "" {
		resp.Text = s.svc.InterpretAnalysis(r.Context(), req.Text, req.Identities)
	}
	if req.Records != nil {
		resp.Records = s.svc.InterpretRecords(r.Context(), req.Records, req.Identities)
	}
	writeJSON(w, http.StatusOK, resp)
}

type contractRequest struct {
	Text  string           `json:"text"`
	Names scrub.KnownNames `json:"names"`
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req contractRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.PrepareContract(r.Context(), req.Text, req.Names))
}

// readBody reads the request body up to the configured limit. On failure it
// has already written the error response.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := s.cfg.MaxBodySize
	if limit <= 0 {
		limit = defaultMaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "could not read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return raw, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	raw, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		http.Error(w, "invalid JSON request", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeRelayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relay.ErrNilPackage), errors.Is(err, relay.ErrInvalidPackage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.log.Errorf("api", "relay error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] JSON encode error: %v", err)
	}
}

// Addr returns the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.BindAddress, strconv.Itoa(s.cfg.Port))
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down
// gracefully. HTTP/2 is accepted over cleartext (h2c) as well as HTTP/1.1.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("api", "Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.log.Info("api", "Server stopped")
	return nil
}
