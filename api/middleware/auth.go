package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"socialgraph/relations"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the acting account. Two variants:
// 1. Authorization: Bearer <token> resolved through the token store
// 2. X-Account-ID header (tests and trusted internal callers)
func AuthMiddleware(tokens *relations.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			accountID, err := tokens.ResolveToken(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			c.Set("account_id", accountID)
			c.Next()
			return
		}

		accountIDHeader := c.GetHeader("X-Account-ID")
		if accountIDHeader != "" {
			accountID, err := strconv.ParseInt(accountIDHeader, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-Account-ID format"})
				c.Abort()
				return
			}
			c.Set("account_id", accountID)
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required: provide Authorization Bearer token or X-Account-ID header"})
		c.Abort()
	}
}
