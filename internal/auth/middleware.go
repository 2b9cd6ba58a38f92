package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gymdesk/internal/api"
	"gymdesk/internal/gym"
	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Token is empty"})
			return
		}

		claims, err := ValidateAccessToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Token expired"})
			case errors.Is(err, ErrInvalidTokenType):
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Access token required"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid or malformed token"})
			}
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

type OwnershipChecker interface {
	GetGymByID(ctx context.Context, id int) (*gym.Gym, error)
	CheckOwnership(ctx context.Context, gymID, userID int) error
}

// RequireGymOwner lets the request through only when the caller owns the gym
// named by the :gymID path parameter. Admins skip the ownership check but the
// gym must still exist.
func RequireGymOwner(checker OwnershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
			return
		}

		gymID, err := strconv.Atoi(c.Param("gymID"))
		if err != nil || gymID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
			return
		}

		if role, _ := c.Get("user_role"); role == RoleAdmin {
			_, err = checker.GetGymByID(c.Request.Context(), gymID)
		} else {
			err = checker.CheckOwnership(c.Request.Context(), gymID, userID)
		}

		if err != nil {
			switch {
			case errors.Is(err, gym.ErrGymNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			case errors.Is(err, gym.ErrNotOwner):
				c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "You do not manage this gym"})
			default:
				logger.Error("Ownership check failed", "gym_id", gymID, "user_id", userID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to verify gym ownership"})
			}
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}
