package mail

import (
	"context"
	"fmt"

	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
)

// BillingNotifier sends the transactional billing mails over SMTP.
type BillingNotifier struct {
	appName string
}

func NewBillingNotifier() *BillingNotifier {
	return &BillingNotifier{
		appName: env.GetEnv("APP_NAME", "PlanPort"),
	}
}

func (n *BillingNotifier) SubscriptionCreated(_ context.Context, email, name, planName string, amountCents int64) error {
	subject := fmt.Sprintf("%s: your subscription is active", n.appName)
	body := fmt.Sprintf(
		"<h2>Welcome aboard, %s!</h2>"+
			"<p>Your <strong>%s</strong> subscription is now active.</p>",
		name, planName,
	)
	if amountCents > 0 {
		body += fmt.Sprintf("<p>You will be billed %.2f per period.</p>", float64(amountCents)/100)
	}
	body += "<p>You can manage your subscription at any time from your billing page.</p>"
	return SendMail(email, subject, body)
}

func (n *BillingNotifier) SubscriptionCanceled(_ context.Context, email, name, planName string) error {
	subject := fmt.Sprintf("%s: your subscription was canceled", n.appName)
	body := fmt.Sprintf(
		"<h2>Goodbye for now, %s</h2>"+
			"<p>Your <strong>%s</strong> subscription has been canceled. "+
			"You keep access until the end of the current billing period.</p>",
		name, planName,
	)
	return SendMail(email, subject, body)
}
