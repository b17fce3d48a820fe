package emails

import (
	"context"
	"fmt"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
)

// UserLookup resolves the addressee of a notification.
type UserLookup interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Notifier is a lifecycle publisher that emails the other party of a request:
// the donor on REQUESTED, the recipient on ACCEPTED and REJECTED.
type Notifier struct {
	Users  UserLookup
	Sender Sender
}

func (n *Notifier) Publish(ctx context.Context, e lifecycle.Event) error {
	var to uuid.UUID
	switch e.Type {
	case lifecycle.EventRequested:
		to = e.DonorID
	case lifecycle.EventAccepted, lifecycle.EventRejected:
		if e.RecipientID == nil {
			return nil
		}
		to = *e.RecipientID
	default:
		return nil
	}
	u, err := n.Users.FindUserByID(ctx, to)
	if err != nil {
		return fmt.Errorf("emails: lookup %s: %w", to, err)
	}
	subject, html := render(e, u.Fullname)
	return n.Sender.Send(ctx, u.Email, u.Fullname, subject, html)
}

func render(e lifecycle.Event, name string) (string, string) {
	if name == "" {
		name = "there"
	}
	title, _ := e.Data["title"].(string)
	if title == "" {
		title = "your listing"
	}
	greeting := "Hi " + name + ","
	switch e.Type {
	case lifecycle.EventRequested:
		qty := fmt.Sprint(e.Data["requested_quantity"])
		return "New request for " + title,
			EmailLayout("You have a new food request", greeting,
				fmt.Sprintf("A recipient has requested %s of \"%s\". Review it from your dashboard to accept or reject it.", qty, title))
	case lifecycle.EventAccepted:
		return "Your request was accepted",
			EmailLayout("Your request was accepted", greeting,
				fmt.Sprintf("The donor accepted your request for \"%s\". Please coordinate the pickup before the food expires.", title))
	default:
		return "Your request was not accepted",
			EmailLayout("Your request was not accepted", greeting,
				fmt.Sprintf("The donor could not fulfil your request for \"%s\". Other listings may still be available.", title))
	}
}
