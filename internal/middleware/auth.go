package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/storeadmin/internal/pkg"
)

const subjectContextKey = "auth_subject"

// BearerAuth returns a gin middleware that requires an HS256 JWT signed with
// secret in the Authorization header. Tokens must carry an expiry.
// The token subject is stored in gin.Context (see GetSubject) and added to
// the request's log attributes.
func BearerAuth(secret []byte, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
			msg := "invalid bearer token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "bearer token expired"
			}
			log.LogAttrs(c.Request.Context(), slog.LevelWarn, "bearer token rejected",
				slog.String("path", c.Request.URL.Path),
				slog.Any("error", err),
			)
			unauthorized(c, msg)
			return
		}

		c.Set(subjectContextKey, claims.Subject)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("subject", claims.Subject))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSubject returns the authenticated token subject, or "".
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectContextKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="catalog"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Response{
		Status:  false,
		Message: msg,
	})
}
