package webhook

import (
	"context"

	"github.com/bizvoice/console/internal/catalog"
)

// ProductEvents adapts a Sender to the catalog's mutation-notifier
// capability. The store calls it after each committed mutation; the outcome
// is observable only through the sender's logs.
type ProductEvents struct {
	sender Sender
}

// NewProductEvents wraps sender for catalog wiring.
func NewProductEvents(sender Sender) *ProductEvents {
	return &ProductEvents{sender: sender}
}

func (pe *ProductEvents) NotifyProductAction(ctx context.Context, action catalog.Action, product catalog.Product, previous *catalog.Product) {
	pe.sender.Send(ctx, NewProductActionEvent(action, product, previous))
}

var _ catalog.Notifier = (*ProductEvents)(nil)
