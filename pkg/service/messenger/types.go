package messenger

import (
	"context"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// Notification is one user-facing message derived from a resolved
// event. What to say is decided by the caller; this service only
// delivers it.
type Notification struct {
	// Thread addresses the destination conversation. Empty means the
	// configured default channel.
	Thread types.ThreadID

	// Mention, when set, prefixes the message with a platform mention
	// of the mapped user.
	Mention types.MessengerUserID

	Text string
}

// Service delivers notifications to the messaging platform.
type Service interface {
	Post(ctx context.Context, note *Notification) error
}
