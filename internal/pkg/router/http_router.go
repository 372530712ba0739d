package router

import (
	"time"

	"github.com/JonasWeigert/PlanPort/app/controllers"
	"github.com/JonasWeigert/PlanPort/app/repository"
	"github.com/JonasWeigert/PlanPort/internal/pkg/cache"
	"github.com/JonasWeigert/PlanPort/internal/pkg/database"
	"github.com/JonasWeigert/PlanPort/internal/pkg/middleware"
	"github.com/JonasWeigert/PlanPort/internal/pkg/oauth"
	"github.com/JonasWeigert/PlanPort/internal/pkg/ratelimit"
	"github.com/JonasWeigert/PlanPort/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// init repository factory
	repository.InitializeFactory(database.GetDB())

	// Contact form throttle, 5 messages per hour per IP
	controllers.SetContactLimiter(ratelimit.NewRedisLimiter(cache.GetClient(), "contact", 5, time.Hour))

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context, this just
	// passes through so public routes share one signature
	return c.Next()
}
