package router

import (
	"strings"
	"time"

	"github.com/JonasWeigert/PlanPort/app/controllers"
	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
	"github.com/JonasWeigert/PlanPort/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleHome)
	group.Get("/pricing", loggedInMiddleware, controllers.HandlePricing)
	group.Get("/contact", loggedInMiddleware, controllers.HandleContact)
	group.Post("/contact", loggedInMiddleware, controllers.HandleContact)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)

	// Subscription self-service
	group.Get("/user/billing", middleware.RequireAuth, controllers.HandleUserBilling)
	group.Post("/user/billing/checkout", middleware.RequireAuth, controllers.HandleCheckoutStart)
	group.Post("/user/billing/portal", middleware.RequireAuth, controllers.HandleBillingPortal)

	// Admin overview
	group.Get("/admin/subscriptions", middleware.RequireAdmin, controllers.HandleAdminSubscriptions)
}
