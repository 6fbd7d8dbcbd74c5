package v1

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"png_compression/entity"
)

const bearerPrefix = "Bearer "

// bearerAuth requires "Authorization: Bearer <token>" with an exact match.
// An empty token disables the check.
func bearerAuth(token string) gin.HandlerFunc {
	want := []byte(bearerPrefix + token)

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			errorResponse(c, http.StatusUnauthorized, entity.ErrUnauthorized.Error())
			return
		}

		c.Next()
	}
}
