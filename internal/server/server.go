// Package server exposes the release engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/releasetower/pkg/buildinfo"
	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	requestIDHeader = "X-Request-Id"
	shutdownTimeout = 10 * time.Second
)

// Options configures a [Server].
type Options struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Logger receives one line per request; nil discards them.
	Logger *log.Logger
}

// Server serves lookups, digests and the datasource catalogue.
type Server struct {
	svc     *datasource.Service
	metrics http.Handler
	logger  *log.Logger
}

// New creates a Server around svc.
func New(svc *datasource.Service, opts Options) *Server {
	s := &Server{svc: svc, metrics: opts.Metrics, logger: opts.Logger}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Routes returns the HTTP handler with every route registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/datasources", s.listDatasources)
		r.Get("/releases/{datasource}", s.getReleases)
		r.Get("/digest/{datasource}", s.getDigest)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("Listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// === Handlers ===

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Current()})
}

// DatasourcesResponse lists the registered datasources.
type DatasourcesResponse struct {
	Datasources []datasource.Info `json:"datasources"`
}

func (s *Server) listDatasources(w http.ResponseWriter, _ *http.Request) {
	all := s.svc.GetDatasources()
	resp := DatasourcesResponse{Datasources: make([]datasource.Info, 0, len(all))}
	for _, id := range s.svc.GetDatasourceList() {
		resp.Datasources = append(resp.Datasources, all[id].Info())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getReleases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasource")
	if _, ok := s.svc.Registry().Get(id); !ok {
		writeError(w, http.StatusNotFound, rterrors.ErrCodeDatasourceNotFound, "unknown datasource "+id)
		return
	}
	req, err := lookupRequest(id, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.svc.GetPkgReleases(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, rterrors.ErrCodePackageNotFound, "no releases found for "+req.PackageName)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DigestResponse carries a resolved digest.
type DigestResponse struct {
	Digest string `json:"digest"`
}

func (s *Server) getDigest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := datasource.DigestRequest{
		Datasource:      chi.URLParam(r, "datasource"),
		PackageName:     q.Get("package"),
		RegistryURLs:    q["registryUrl"],
		ReplacementName: q.Get("replacementName"),
		CurrentValue:    q.Get("currentValue"),
		CurrentDigest:   q.Get("currentDigest"),
	}
	digest, err := s.svc.GetDigest(r.Context(), req, q.Get("value"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DigestResponse{Digest: digest})
}

func lookupRequest(id string, r *http.Request) (datasource.LookupRequest, error) {
	q := r.URL.Query()
	req := datasource.LookupRequest{
		Datasource:          id,
		PackageName:         q.Get("package"),
		RegistryURLs:        q["registryUrl"],
		DefaultRegistryURLs: q["defaultRegistryUrl"],
		ExtractVersion:      q.Get("extractVersion"),
		Versioning:          q.Get("versioning"),
		ReplacementName:     q.Get("replacementName"),
		ReplacementVersion:  q.Get("replacementVersion"),
	}
	if req.PackageName == "" {
		return req, rterrors.New(rterrors.ErrCodeInvalidInput, "package is required")
	}
	if err := rterrors.ValidatePackageName(req.PackageName); err != nil {
		return req, err
	}
	for _, u := range append(append([]string{}, req.RegistryURLs...), req.DefaultRegistryURLs...) {
		if err := rterrors.ValidateURL(u); err != nil {
			return req, rterrors.New(rterrors.ErrCodeInvalidInput, "invalid registryUrl %q: must use http or https", u)
		}
	}

	var err error
	if req.RegistryStrategy, err = datasource.ParseStrategy(q.Get("strategy")); err != nil {
		return req, err
	}
	if req.ConstraintsFiltering, err = datasource.ParseConstraintsFiltering(q.Get("constraintsFiltering")); err != nil {
		return req, err
	}
	for _, c := range q["constraint"] {
		name, rng, ok := strings.Cut(c, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return req, rterrors.New(rterrors.ErrCodeInvalidInput, "invalid constraint %q (expected name:range)", c)
		}
		if req.Constraints == nil {
			req.Constraints = map[string]string{}
		}
		req.Constraints[strings.TrimSpace(name)] = strings.TrimSpace(rng)
	}
	return req, nil
}

// === Errors ===

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := rterrors.GetCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "requestId", w.Header().Get(requestIDHeader), "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     rterrors.UserMessage(err),
		Code:      string(code),
		RequestID: w.Header().Get(requestIDHeader),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case rterrors.Is(err, rterrors.ErrCodeExternalHost):
		return http.StatusBadGateway
	case rterrors.Is(err, rterrors.ErrCodeCapabilityMissing):
		return http.StatusNotImplemented
	case rterrors.Is(err, rterrors.ErrCodeInvalidInput),
		rterrors.Is(err, rterrors.ErrCodeInvalidPackage),
		rterrors.Is(err, rterrors.ErrCodeInvalidStrategy),
		rterrors.Is(err, rterrors.ErrCodeInvalidFormat),
		rterrors.Is(err, rterrors.ErrCodeInvalidVersioning):
		return http.StatusBadRequest
	case errors.Is(err, integrations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, integrations.ErrNetwork), rterrors.Is(err, rterrors.ErrCodeHostDisabled):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code rterrors.Code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: string(code), RequestID: w.Header().Get(requestIDHeader)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// === Middleware ===

// requestID propagates X-Request-Id, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", w.Header().Get(requestIDHeader),
		)
	})
}
