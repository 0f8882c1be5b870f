// Package sessionauth attaches verified session identity to request contexts.
package sessionauth

import (
	"net/http"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/requestctx"
	"github.com/harlowe/wholesail/internal/services/session"
	"github.com/harlowe/wholesail/internal/services/shared/httpjson"
)

// Verifier is the slice of the session manager middleware needs.
type Verifier interface {
	Verify(tokenString string) (session.Claims, error)
}

// Middleware resolves the session cookie and stores the member ID on the
// request context. Requests without a valid session pass through
// unauthenticated; individual handlers decide whether identity is required.
func Middleware(verifier Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err == nil && cookie.Value != "" {
			claims, verifyErr := verifier.Verify(cookie.Value)
			if verifyErr == nil {
				r = r.WithContext(requestctx.WithMemberID(r.Context(), claims.MemberID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember rejects requests that carry no authenticated member.
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestctx.MemberIDFromContext(r.Context()) == "" {
			httpjson.WriteStatus(w, http.StatusUnauthorized, string(apperrors.CodeAuthzSessionInvalid), "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
