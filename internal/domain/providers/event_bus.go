package providers

import (
	"context"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
)

// Event bus channels
const (
	EventChannelProviderUpdates = "providers:updates"
)

// EventBus defines the interface for publishing and subscribing to
// provider change events.
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.ProviderEvent) error
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProviderEvent, error)
	Close() error
}
