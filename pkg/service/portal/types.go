package portal

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// ErrRemoteUnavailable tags any failure to reach the portal API.
// Callers degrade gracefully: the reconciler keeps serving existing
// mappings, the resolver retries within its attempt budget.
var ErrRemoteUnavailable = goerr.New("portal API unavailable")

// Task is the subset of portal task fields the bridge needs.
type Task struct {
	ID            types.PortalTaskID
	Title         string
	ResponsibleID types.PortalUserID
	Deadline      string
	ChatID        types.PortalChatID
}

// ChatMessage is one message in a task discussion chat.
type ChatMessage struct {
	ID       types.PortalMessageID
	ChatID   types.PortalChatID
	AuthorID types.PortalUserID
	Message  string
}

// User is a portal user record, including the custom profile fields
// that link it to the messaging platform.
type User struct {
	ID                types.PortalUserID
	Name              string
	LastName          string
	Email             string
	Active            bool
	MessengerID       types.MessengerUserID
	MessengerUsername types.MessengerUsername
}

// Service is the remote task/chat API client.
type Service interface {
	// GetTask retrieves a task by ID, including its discussion chat ID.
	GetTask(ctx context.Context, taskID types.PortalTaskID) (*Task, error)

	// GetChatMessage retrieves a single chat message. A missing
	// message returns (nil, nil); only transport and API failures
	// are errors.
	GetChatMessage(ctx context.Context, chatID types.PortalChatID, messageID types.PortalMessageID) (*ChatMessage, error)

	// ListRecentChatMessages retrieves the newest messages of a chat.
	ListRecentChatMessages(ctx context.Context, chatID types.PortalChatID, limit int) ([]*ChatMessage, error)

	// ListUsers enumerates the portal's user records for reconciliation.
	ListUsers(ctx context.Context) ([]*User, error)

	// TaskURL builds the portal deep link for a task.
	TaskURL(taskID types.PortalTaskID, userID types.PortalUserID) string
}
