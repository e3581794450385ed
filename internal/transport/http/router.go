// Package httptransport wires the HTTP surface: signature-gated mutation
// routes plus the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uidtrust/internal/platform/middleware"
	"uidtrust/internal/signature"
	"uidtrust/internal/transport/http/shared"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Verifier *signature.Verifier

	LinkHandler    signature.HandlerFunc
	DestroyHandler signature.HandlerFunc

	// LinkMaxAge is the freshness window for linking signatures. Zero falls
	// back to the default window.
	LinkMaxAge time.Duration

	// DestroySigners is the closed set of relayer addresses allowed to call
	// the destroy route.
	DestroySigners []common.Address
	// DestroyMaxAge is the tightened freshness window for destruction
	// signatures. Zero falls back to the default window.
	DestroyMaxAge time.Duration

	HealthChecks []HealthCheck
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	r.Post("/linkUserToUid", d.Verifier.Require(signature.Auth{
		Mode:   signature.ModeSignature,
		MaxAge: d.LinkMaxAge,
	}, d.LinkHandler))

	r.Post("/destroyUser", d.Verifier.Require(signature.Auth{
		Mode:      signature.ModeSignatureWithAllowList,
		AllowList: d.DestroySigners,
		MaxAge:    d.DestroyMaxAge,
	}, d.DestroyHandler))

	r.Get("/healthz", healthHandler(d.Logger, d.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", c.Name, "error", err)
				results[c.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "ok"
		}

		shared.WriteJSON(w, status, map[string]any{
			"status":       statusWord(status),
			"dependencies": results,
		})
	}
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
