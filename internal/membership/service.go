// internal/membership/service.go
package membership

import (
	"context"
)

// Service defines the interface for processing a single queue message.
type Service interface {
	ProcessMessage(ctx context.Context, msg Message, src Source) (string, error)
}

// Records reads the stored state a message is enriched with. Single-entity
// lookups fail with ErrNotFound on a miss; collection lookups return an
// empty slice.
type Records interface {
	GetMember(ctx context.Context, memberID string) (*Member, error)
	GetContracts(ctx context.Context, memberID string) ([]Contract, error)
	GetActiveSuspensions(ctx context.Context, contractID string) ([]Suspension, error)
	GetProspect(ctx context.Context, prospectID string) (*Prospect, error)
}

// Sender posts a payload to a webhook endpoint. An empty endpoint means the
// webhook is not configured.
type Sender interface {
	Send(ctx context.Context, endpoint string, payload any) (string, error)
}

// Acknowledger removes a processed message from its queue.
type Acknowledger interface {
	Delete(ctx context.Context, queueARN, receiptHandle string) error
}

// Endpoints holds the webhook URLs events are forwarded to.
type Endpoints struct {
	Member   string
	Prospect string
}
