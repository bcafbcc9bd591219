package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chefstream/chefstream/internal/config"
)

type AuthMiddleware struct {
	config *config.Manager
	logger *slog.Logger
}

// NewAuthMiddleware guards the relay with an optional service key. When
// no key is configured every request passes. The vendor key header
// X-API-Key belongs to the upstream call, so the service token travels
// in the Authorization header only.
func NewAuthMiddleware(config *config.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	am := &AuthMiddleware{
		config: config,
		logger: logger,
	}

	return am.middleware
}

func (am *AuthMiddleware) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := am.authenticate(r); err != nil {
			am.logger.Error("Authentication failed", "error", err, "remote_addr", r.RemoteAddr)
			http.Error(w, "Service API key not authorized", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (am *AuthMiddleware) authenticate(r *http.Request) error {
	cfg := am.config.Get()

	// preflight requests cannot carry credentials
	if r.Method == http.MethodOptions || r.URL.Path == "/health" || cfg.APIKey == "" {
		return nil
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return errors.New("no authentication token provided")
	}

	if strings.TrimPrefix(auth, "Bearer ") != cfg.APIKey {
		return errors.New("invalid service key")
	}

	return nil
}
