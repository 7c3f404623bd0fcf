package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/nivra-platform/nivra-core/internal/platform/httpx"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger      *slog.Logger
	Config      *Config
	Tokens      *shared.TokenStore
	Idempotency *shared.IdempotencyStore
}

// MiddlewareStack installs the platform middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	identityMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := cfg.Tokens.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrTokenUnknown) {
					// Unknown tokens fall through anonymous; guarded
					// routes reject the request downstream.
					next.ServeHTTP(w, r)
					return
				}
				cfg.Logger.Error("resolve identity token", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	idempotencyMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if err := cfg.Idempotency.CheckAndInsert(r.Context(), key, r.URL.Path); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}
	rateLimit := 120
	if cfg.Config != nil && cfg.Config.RateLimitPerMinute > 0 {
		rateLimit = cfg.Config.RateLimitPerMinute
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Tokens != nil {
		middlewares = append(middlewares, identityMiddleware)
	}
	if cfg.Idempotency != nil {
		middlewares = append(middlewares, idempotencyMiddleware)
	}
	return middlewares
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
