package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/JonasWeigert/PlanPort/app/repository"
	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
	"github.com/JonasWeigert/PlanPort/internal/pkg/usercontext"
)

func HandleHome(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("index", fiber.Map{
		"Title":      env.GetEnv("APP_NAME", "PlanPort"),
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Flash":      flash.Get(c),
	})
}

// HandlePricing lists the active plan catalog.
func HandlePricing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	plans, err := repository.GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load plans"}).Redirect("/")
	}

	return c.Render("pricing", fiber.Map{
		"Title":      "Pricing",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Plans":      plans,
		"CSRF":       c.Locals("csrf"),
		"Flash":      flash.Get(c),
	})
}
