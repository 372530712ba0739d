package controllers

import (
	"errors"
	"strings"

	"github.com/JonasWeigert/PlanPort/app/models"
	"github.com/JonasWeigert/PlanPort/app/repository"
	"github.com/JonasWeigert/PlanPort/internal/pkg/billing"
	"github.com/JonasWeigert/PlanPort/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"
)

// HandleUserBilling renders the subscription overview page.
func HandleUserBilling(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()

	var sub *models.Subscription
	if s, err := repos.Subscription.GetActiveByUserID(userCtx.UserID); err == nil {
		sub = s
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load your subscription"}).Redirect("/")
	}

	var planName string
	if sub != nil {
		if plan, err := repos.Plan.GetByPlanID(sub.PlanID); err == nil {
			planName = plan.Name
		} else {
			planName = sub.PlanID
		}
	}

	return c.Render("billing", fiber.Map{
		"CSRF":         c.Locals("csrf"),
		"Username":     userCtx.Username,
		"Subscription": sub,
		"PlanName":     planName,
		"Flash":        flash.Get(c),
	})
}

// HandleCheckoutStart creates a provider-hosted checkout session for the
// selected plan and redirects the user into it.
func HandleCheckoutStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	planID := strings.TrimSpace(c.FormValue("plan_id"))
	if planID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No plan selected"}).Redirect("/pricing")
	}

	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load your account"}).Redirect("/pricing")
	}

	// One non-canceled subscription per customer; the portal handles plan
	// changes for existing subscribers.
	if _, err := repos.Subscription.GetActiveByUserID(user.ID); err == nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "You already have an active subscription"}).Redirect("/user/billing")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not check your subscription"}).Redirect("/pricing")
	}

	plan, err := repos.Plan.GetByPlanID(planID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Unknown plan"}).Redirect("/pricing")
	}

	url, err := billing.NewCheckoutClientFromEnv().CheckoutURL(user, plan)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout could not be started"}).Redirect("/pricing")
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleBillingPortal redirects an existing subscriber into the provider's
// self-service portal (plan changes, payment methods, cancellation).
func HandleBillingPortal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load your account"}).Redirect("/user/billing")
	}

	url, err := billing.NewCheckoutClientFromEnv().PortalURL(user)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Billing portal is not available"}).Redirect("/user/billing")
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}
