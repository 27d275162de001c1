// Package channel implements the pluggable delivery strategies used by the
// fanout engine. Every strategy satisfies the same Send contract and owns
// its own transport credentials and timeout; the engine stays agnostic to
// transport specifics.
package channel

import (
	"context"
	"errors"
	"fmt"

	"jobwatch/notify-service/internal/model"
)

// ErrAuthentication marks a delivery failure caused by rejected channel
// credentials, as opposed to a transient transport failure. Callers detect
// it with errors.Is through the DeliveryError wrapper.
var ErrAuthentication = errors.New("channel credentials rejected")

// DeliveryError wraps a channel-level send failure. It is isolated per
// recipient by the fanout engine and never propagates.
type DeliveryError struct {
	Channel model.Channel
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender delivers one job posting to one recipient.
type Sender interface {
	Send(ctx context.Context, rec model.Recipient, job model.JobPosting) error
}

// Registry maps channel types to their configured strategies.
type Registry struct {
	senders map[model.Channel]Sender
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[model.Channel]Sender)}
}

// Register installs a strategy for ch, replacing any previous one.
func (r *Registry) Register(ch model.Channel, s Sender) {
	r.senders[ch] = s
}

// Lookup resolves the strategy for ch.
func (r *Registry) Lookup(ch model.Channel) (Sender, bool) {
	s, ok := r.senders[ch]
	return s, ok
}

// Channels lists the registered channel types.
func (r *Registry) Channels() []model.Channel {
	chs := make([]model.Channel, 0, len(r.senders))
	for ch := range r.senders {
		chs = append(chs, ch)
	}
	return chs
}
