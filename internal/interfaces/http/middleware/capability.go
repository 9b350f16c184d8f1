package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/interfaces/http/dto"
)

// Role names as resolved by the upstream gateway. Authentication itself is
// out of scope here; the gateway terminates it and forwards the resolved
// role and actor in trusted headers.
const (
	RoleDoctor   = "doctor"
	RoleSalesRep = "sales_rep"
	RoleAdmin    = "admin"
)

// Capability identifies one guarded operation.
type Capability string

const (
	CapCheckout      Capability = "checkout"
	CapOrderRead     Capability = "order:read"
	CapOrderCancel   Capability = "order:cancel"
	CapCodeManage    Capability = "referral_code:manage"
	CapLedgerRead    Capability = "ledger:read"
	CapRosterSync    Capability = "roster:sync"
	CapProspectWrite Capability = "prospect:write"
)

// roleCapabilities declares what each role may do. Capabilities are data, not
// code: routes name the capability they need and this table answers it.
var roleCapabilities = map[string]map[Capability]bool{
	RoleDoctor: {
		CapCheckout:   true,
		CapOrderRead:  true,
		CapLedgerRead: true,
	},
	RoleSalesRep: {
		CapCodeManage:    true,
		CapLedgerRead:    true,
		CapRosterSync:    true,
		CapProspectWrite: true,
	},
	RoleAdmin: {
		CapCheckout:      true,
		CapOrderRead:     true,
		CapOrderCancel:   true,
		CapCodeManage:    true,
		CapLedgerRead:    true,
		CapRosterSync:    true,
		CapProspectWrite: true,
	},
}

// Context keys for the resolved identity.
const (
	roleContextKey  = "resolved_role"
	actorContextKey = "resolved_actor"
)

// ResolveRole reads the gateway-asserted role and actor headers into the
// request context. Requests with no role header proceed unauthenticated;
// guarded routes reject them.
func ResolveRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetHeader("X-Role"); role != "" {
			c.Set(roleContextKey, role)
		}
		if actor := c.GetHeader("X-Actor-ID"); actor != "" {
			c.Set(actorContextKey, actor)
		}
		c.Next()
	}
}

// GetRole returns the resolved role for the request, or "".
func GetRole(c *gin.Context) string {
	return c.GetString(roleContextKey)
}

// GetActorID returns the resolved actor identifier for the request, or "".
func GetActorID(c *gin.Context) string {
	return c.GetString(actorContextKey)
}

// RequireCapability creates middleware that denies requests whose resolved
// role lacks the capability.
func RequireCapability(capability Capability) gin.HandlerFunc {
	return RequireCapabilityWithLogger(capability, nil)
}

// RequireCapabilityWithLogger is RequireCapability with denial logging.
func RequireCapabilityWithLogger(capability Capability, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"No role resolved for this request",
				c.GetString("X-Request-ID"),
			))
			return
		}
		if !roleCapabilities[role][capability] {
			if logger != nil {
				logger.Info("capability denied",
					zap.String("role", role),
					zap.String("capability", string(capability)),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"Role lacks the required capability",
				c.GetString("X-Request-ID"),
			))
			return
		}
		c.Next()
	}
}
