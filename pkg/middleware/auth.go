package middleware

import (
	"net/http"

	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserContext middleware untuk resolve identity user.
// Token verification lives in the upstream auth service; by the time a
// request reaches us the gateway has stamped the verified user id into
// X-User-Id. Requests without it are rejected.
func UserContext(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-Id")
			if raw == "" {
				utils.ResponseUnauthorized(w, "Unauthorized, pls login")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				logger.Warn("Malformed user id header",
					zap.String("value", raw),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseUnauthorized(w, "Invalid user identity")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
