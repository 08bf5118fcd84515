// Package httpapi exposes the host commands over HTTP for the desktop shell.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imagesaid/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	TestConnection(ctx context.Context, apiURL string) types.ConnectionStatus
	GenerateName(ctx context.Context, req types.NameRequest) (types.ProcessingResult, error)
	ApplyRenames(ops []types.RenameOperation) (int, error)
	ImageInfo(path string) types.ImageInfo
	ListModels(ctx context.Context, apiURL string) ([]types.ModelInfo, error)
	ReadImageDataURL(path string) (string, error)
}

// NewMux builds the router. Long-running calls get a context canceled by
// either the client or the server base context.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	if c := corsMiddleware(); c != nil {
		r.Use(c)
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/connection/test", func(w http.ResponseWriter, r *http.Request) {
			var req types.ConnectionRequest
			if !decodeBody(w, r, &req, true) {
				return
			}
			ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
			defer cancel()
			start := time.Now()
			st := svc.TestConnection(ctx, req.APIURL)
			logEnd(r, "test_connection", http.StatusOK, start, nil)
			writeJSON(w, st)
		})

		r.Post("/names", func(w http.ResponseWriter, r *http.Request) {
			var req types.NameRequest
			if !decodeBody(w, r, &req, false) {
				return
			}
			if strings.TrimSpace(req.ImagePath) == "" {
				writeJSONError(w, http.StatusBadRequest, "image_path is required")
				return
			}
			logDebug(r, "generate_name", map[string]any{"path": req.ImagePath, "model": req.Model, "context_length": req.ContextLength})
			ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
			defer cancel()
			start := time.Now()
			res, err := svc.GenerateName(ctx, req)
			if err != nil {
				if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
					// client gone or shutting down
					return
				}
				fail(w, r, "generate_name", start, err)
				return
			}
			logEnd(r, "generate_name", http.StatusOK, start, nil)
			writeJSON(w, res)
		})

		r.Post("/renames", func(w http.ResponseWriter, r *http.Request) {
			var req types.RenamesRequest
			if !decodeBody(w, r, &req, false) {
				return
			}
			start := time.Now()
			n, err := svc.ApplyRenames(req.Renames)
			if err != nil {
				fail(w, r, "apply_renames", start, err)
				return
			}
			logEnd(r, "apply_renames", http.StatusOK, start, nil)
			writeJSON(w, types.RenamesResponse{Applied: n})
		})

		r.Get("/images/info", func(w http.ResponseWriter, r *http.Request) {
			path, ok := requiredQuery(w, r, "path")
			if !ok {
				return
			}
			writeJSON(w, svc.ImageInfo(path))
		})

		r.Get("/images/data-url", func(w http.ResponseWriter, r *http.Request) {
			path, ok := requiredQuery(w, r, "path")
			if !ok {
				return
			}
			start := time.Now()
			u, err := svc.ReadImageDataURL(path)
			if err != nil {
				fail(w, r, "read_image", start, err)
				return
			}
			writeJSON(w, types.DataURLResponse{DataURL: u})
		})

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
			defer cancel()
			start := time.Now()
			models, err := svc.ListModels(ctx, r.URL.Query().Get("api_url"))
			if err != nil {
				fail(w, r, "list_models", start, err)
				return
			}
			logEnd(r, "list_models", http.StatusOK, start, nil)
			writeJSON(w, types.ModelsResponse{Models: models})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func fail(w http.ResponseWriter, r *http.Request, op string, start time.Time, err error) {
	status := statusFor(err)
	logEnd(r, op, status, start, err)
	writeJSONError(w, status, err.Error())
}

// decodeBody enforces a JSON content type and the body size limit. An empty
// body is accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	if ct == "" && !allowEmpty {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return true
	case allowEmpty && errors.Is(err, io.EOF):
		return true
	case errors.As(err, &tooLarge):
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}

func requiredQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if strings.TrimSpace(v) == "" {
		writeJSONError(w, http.StatusBadRequest, key+" is required")
		return "", false
	}
	return v, true
}
