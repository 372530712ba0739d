package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/JonasWeigert/PlanPort/app/models"
	"github.com/JonasWeigert/PlanPort/app/repository"
	"github.com/JonasWeigert/PlanPort/internal/pkg/metrics/counter"
)

const adminPageSize = 50

// HandleAdminSubscriptions lists subscriptions with per-status totals.
func HandleAdminSubscriptions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	repos := repository.GetGlobalRepositories()

	subs, err := repos.Subscription.List((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load subscriptions"}).Redirect("/")
	}

	active, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusActive)
	pastDue, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusPastDue)
	canceled, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusCanceled)

	users, _ := repos.User.Count()

	processed, failed, _ := counter.WebhookSnapshot()

	return c.Render("admin_subscriptions", fiber.Map{
		"Title":         "Subscriptions",
		"Subscriptions": subs,
		"Page":          page,
		"NextPage":      page + 1,
		"CountActive":   active,
		"CountPastDue":  pastDue,
		"CountCanceled": canceled,
		"CountUsers":    users,
		"WebhooksOK":    processed,
		"WebhooksFail":  failed,
		"Flash":         flash.Get(c),
	})
}
