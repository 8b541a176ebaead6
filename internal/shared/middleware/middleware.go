package middleware

import (
	"net/http"
	"strings"

	"tabour/internal/shared/config"
	"tabour/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"

	capabilityKey = "capability"
)

// Capability is the explicit authorization token handed to core operations.
// It is derived from validated JWT claims, never from ambient process state.
type Capability struct {
	UserID   string
	Role     string
	BranchID string // empty for admins, who are not branch-scoped
}

// CanManageBranch reports whether this capability covers the given branch.
func (cap Capability) CanManageBranch(branchID string) bool {
	if cap.Role == RoleAdmin {
		return true
	}
	return cap.Role == RoleManager && cap.BranchID == branchID
}

// JWTAuth creates a JWT authentication middleware
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header is required", nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token claims", nil)
			c.Abort()
			return
		}

		cap := Capability{}
		if v, ok := claims["user_id"].(string); ok {
			cap.UserID = v
		}
		if v, ok := claims["role"].(string); ok {
			cap.Role = v
		}
		if v, ok := claims["branch_id"].(string); ok {
			cap.BranchID = v
		}
		if cap.UserID == "" || cap.Role == "" {
			response.Error(c, http.StatusUnauthorized, "token missing required claims", nil)
			c.Abort()
			return
		}

		c.Set(capabilityKey, cap)
		c.Next()
	}
}

// GetCapability extracts the capability set by JWTAuth.
func GetCapability(c *gin.Context) (Capability, bool) {
	v, exists := c.Get(capabilityKey)
	if !exists {
		return Capability{}, false
	}
	cap, ok := v.(Capability)
	return cap, ok
}

// RequireRole middleware checks if the user has the required role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cap, ok := GetCapability(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
			c.Abort()
			return
		}

		// Admins pass every role gate
		if cap.Role != requiredRole && cap.Role != RoleAdmin {
			response.Error(c, http.StatusForbidden, "insufficient permissions", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireBranchAccess checks that the caller may act on the branch named in
// the route parameter.
func RequireBranchAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cap, ok := GetCapability(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "capability not found in context", nil)
			c.Abort()
			return
		}

		branchID := c.Param(param)
		if branchID != "" && !cap.CanManageBranch(branchID) {
			response.Error(c, http.StatusForbidden, "branch access denied", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
