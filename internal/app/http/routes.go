package routes

import (
	adminapi "reflectio/internal/api/admin"
	authapi "reflectio/internal/api/auth"
	"reflectio/internal/api/billing"
	connectionsapi "reflectio/internal/api/connections"
	"reflectio/internal/api/plans"
	postsapi "reflectio/internal/api/posts"
	stripewebhooks "reflectio/internal/api/stripewebhook"
	"reflectio/internal/api/users"
	"reflectio/internal/app/http/middleware"
	domainusers "reflectio/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth        *authapi.Handler
	Users       *users.Handler
	Posts       *postsapi.Handler
	Connections *connectionsapi.Handler
	Billing     *billing.Handler
	Webhook     *stripewebhooks.Handler
	Plans       *plans.Handler
	Admin       *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	// raw body is needed for the signature check
	r.POST("/webhook", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.GET("/plans", h.Plans.ListPlans)

	public.GET("/auth/google", h.Auth.GoogleStart)
	public.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret), middleware.SanitizeAndCleanInputMiddleware())
	auth.GET("/me", h.Users.GetCurrentUser)
	auth.GET("/me/permissions", h.Users.GetPermissions)
	auth.POST("/create-checkout-session", h.Billing.CreateCheckoutSession)
	auth.POST("/billing-portal", h.Billing.CreateBillingPortal)

	auth.POST("/posts", h.Posts.CreatePost)
	auth.GET("/posts/:id", h.Posts.GetPost)
	auth.POST("/posts/:id/reflections", h.Posts.CreateReflection)

	auth.POST("/connections", h.Connections.Request)
	auth.POST("/connections/:id/accept", h.Connections.Accept)
	auth.POST("/connections/:id/decline", h.Connections.Decline)
	auth.POST("/connections/:id/cancel", h.Connections.Cancel)
	auth.DELETE("/connections/:id", h.Connections.Remove)
	auth.GET("/connections/with/:userId/actions", h.Connections.Actions)
	auth.GET("/connections/limitations", h.Connections.Limitations)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(domainusers.RoleAdmin))
	admin.GET("/user/:id", h.Admin.GetUserDetails)
	admin.POST("/sweep-expired", h.Admin.SweepExpired)
	admin.POST("/sync-plans", h.Plans.SyncPlansFromStripe)
}
