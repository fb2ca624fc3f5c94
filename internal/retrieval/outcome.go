package retrieval

import (
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
)

// State is a step of one actor's interaction.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingVariant State = "awaiting_variant"
	StateFetching        State = "fetching"
	StateDelivered       State = "delivered"
	StateFailed          State = "failed"
)

// Outcome is the single result of SubmitLink or SelectVariant. Exactly one of
// Media (AwaitingVariant), Delivery (Delivered) or Err (Failed) is set.
type Outcome struct {
	State    State
	Link     domain.Link
	Tier     domain.TierKey
	Media    *domain.ResolvedMedia
	Delivery *Delivery
	Err      error
}

// Delivery describes a file handed to the messenger.
type Delivery struct {
	Filename string
	Bytes    int64
	Caption  string
}

// ErrorType returns the failure category, or "" unless the outcome failed.
func (o *Outcome) ErrorType() tmserrors.ErrorType {
	if o == nil || o.State != StateFailed {
		return ""
	}
	return tmserrors.TypeOf(o.Err)
}

func failed(link domain.Link, tier domain.TierKey, err error) *Outcome {
	return &Outcome{State: StateFailed, Link: link, Tier: tier, Err: err}
}
