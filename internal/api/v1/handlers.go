package apiv1

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/JonasWeigert/PlanPort/app/repository"
	"github.com/JonasWeigert/PlanPort/internal/pkg/entitlements"
	"github.com/JonasWeigert/PlanPort/internal/pkg/usercontext"
)

// APIServer implements the v1 JSON endpoints
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches the v1 endpoints to the given router group
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/me/subscription", s.GetMySubscription)
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// SubscriptionResponse is the JSON shape of the caller's subscription
type SubscriptionResponse struct {
	PlanID             string              `json:"plan_id"`
	Status             string              `json:"status"`
	CurrentPeriodStart time.Time           `json:"current_period_start"`
	CurrentPeriodEnd   time.Time           `json:"current_period_end"`
	CanceledAt         *time.Time          `json:"canceled_at,omitempty"`
	Limits             entitlements.Limits `json:"limits"`
}

// GetMySubscription returns the authenticated user's current subscription.
// Security is enforced via the app session, same as the HTML routes.
func (s *APIServer) GetMySubscription(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	sub, err := repository.GetGlobalRepositories().Subscription.GetActiveByUserID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_subscription"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal"})
	}

	return c.JSON(SubscriptionResponse{
		PlanID:             sub.PlanID,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CanceledAt:         sub.CanceledAt,
		Limits:             entitlements.ForSubscription(sub),
	})
}
