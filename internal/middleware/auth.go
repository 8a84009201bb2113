package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stride-dev/stride/internal/auth"
	"github.com/stride-dev/stride/internal/store"
	"github.com/stride-dev/stride/internal/types"
)

type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// RequireAuth resolves the session token into an authenticated user and puts
// it on the request context. Without a valid token, browser navigations are
// sent to the login form and JSON callers get a 401.
func RequireAuth(users *store.UserStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := tokenFromRequest(ctx)

		if tokenString == "" {
			reject(ctx)
			return
		}

		userID, err := auth.VerifyJWT(tokenString)

		if err != nil {
			reject(ctx)
			return
		}

		user, err := users.FindByID(userID)

		if err != nil {
			reject(ctx)
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:       user.ID,
			Username: user.Username,
		})
		ctx.Next()
	}
}

// tokenFromRequest prefers the session cookie; the Authorization header is a
// fallback for non-browser clients.
func tokenFromRequest(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(types.SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

func reject(ctx *gin.Context) {
	if strings.Contains(ctx.GetHeader("Accept"), "text/html") {
		ctx.Redirect(http.StatusFound, "/login")
		ctx.Abort()
		return
	}

	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
}
