package middleware

import (
	"net/http"
	"strings"

	"github.com/careline/chatbot-be/types"
	"github.com/careline/chatbot-be/utils"
	"github.com/gin-gonic/gin"
)

const AdminContextKey = "admin"

// AdminAuthMiddleware guards admin routes with a bearer token carrying
// admin claims.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Authorization header is required",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Authorization header format must be Bearer {token}",
			})
			return
		}

		claims, err := utils.ParseAdminToken(parts[1])
		if err != nil || claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Invalid admin token",
			})
			return
		}

		c.Set(AdminContextKey, claims)
		c.Next()
	}
}
