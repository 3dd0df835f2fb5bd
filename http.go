package posview

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/posview/internal/metrics"
	"github.com/hazyhaar/posview/kit"
	"github.com/hazyhaar/posview/viewmode"
)

// maxBody caps JSON request bodies.
const maxBody = 64 << 10

// Handler returns the control API:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /mode          PUT /mode {"mode":"list"}
//	POST /mode/toggle
//	POST /reapply
//	GET  /status
//	GET  /inspect
//	     /mcp           streamable MCP transport
func Handler(e Endpoints, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: "posview", Version: "0.1.0"}, nil)
	e.RegisterMCP(srv)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceRequests(logger))
	r.Use(apiHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())

	r.Get("/mode", serve(e.GetMode, nil))
	r.Put("/mode", serve(e.SetMode, func(w http.ResponseWriter, r *http.Request) (any, error) {
		var req modeRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}))
	r.Post("/mode/toggle", serve(e.Toggle, nil))
	r.Post("/reapply", serve(e.Reapply, nil))
	r.Get("/status", serve(e.Status, nil))
	r.Get("/inspect", serve(e.Inspect, nil))

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
	r.Handle("/mcp", mcpHandler)
	r.Handle("/mcp/*", mcpHandler)
	return r
}

// serve adapts an endpoint to HTTP. A nil decode passes an empty request.
func serve(ep kit.Endpoint, decode func(http.ResponseWriter, *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req any = &emptyRequest{}
		if decode != nil {
			var err error
			if req, err = decode(w, r); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		resp, err := ep(r.Context(), req)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, viewmode.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, ErrInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// traceRequests tags each request with an ID, echoed in X-Request-ID, and
// logs it.
func traceRequests(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.Must(uuid.NewV7()).String()
			}
			w.Header().Set("X-Request-ID", id)
			ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
			logger.Debug("request", "request_id", id, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func apiHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
