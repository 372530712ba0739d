package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
	"github.com/JonasWeigert/PlanPort/internal/pkg/mail"
	"github.com/JonasWeigert/PlanPort/internal/pkg/ratelimit"
)

// contactLimiter throttles form submissions per client IP. Swapped for an
// in-memory limiter in tests via SetContactLimiter.
var contactLimiter ratelimit.Limiter

func SetContactLimiter(l ratelimit.Limiter) {
	contactLimiter = l
}

func HandleContact(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{
			"type": "error",
		}

		if contactLimiter != nil {
			ok, resetAt, err := contactLimiter.Allow(c.Context(), c.IP())
			if err == nil && !ok {
				wait := time.Until(resetAt).Round(time.Second)
				fm["message"] = fmt.Sprintf("Too many messages, please try again in %s", wait)

				return flash.WithError(c, fm).Redirect("/contact")
			}
		}

		name := strings.TrimSpace(c.FormValue("name"))
		email := strings.TrimSpace(c.FormValue("email"))
		message := strings.TrimSpace(c.FormValue("message"))
		if name == "" || email == "" || message == "" {
			fm["message"] = "Please fill out all fields"

			return flash.WithError(c, fm).Redirect("/contact")
		}

		to := env.GetEnv("CONTACT_MAIL", env.GetEnv("SMTP_SENDER", ""))
		subject := fmt.Sprintf("[%s] Contact form: %s", env.GetEnv("APP_NAME", "PlanPort"), name)
		body := fmt.Sprintf("<p>From: %s &lt;%s&gt;</p><p>%s</p>", name, email, message)
		if err := mail.SendMail(to, subject, body); err != nil {
			fm["message"] = "Your message could not be sent, please try again later"

			return flash.WithError(c, fm).Redirect("/contact")
		}

		return flash.WithSuccess(c, fiber.Map{
			"type":    "success",
			"message": "Thanks, we will get back to you!",
		}).Redirect("/contact")
	}

	return c.Render("contact", fiber.Map{
		"Title": "Contact",
		"CSRF":  c.Locals("csrf"),
		"Flash": flash.Get(c),
	})
}
