package model

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// ErrUnknownEvent indicates an event type with no registered family.
// Callers log and skip it rather than treating it as fatal.
var ErrUnknownEvent = goerr.New("unknown event type")

// CommentIDSentinel is the placeholder the portal sends when a comment
// event carries no real identifier in its nominal ID field.
const CommentIDSentinel = "0"

// CanonicalEvent is the typed, family-specific extraction of an
// envelope's payload.
type CanonicalEvent interface {
	Family() types.EventFamily
}

// TaskMutated is a task create/update/delete.
type TaskMutated struct {
	TaskID        types.PortalTaskID
	ChangedFields []string
	IsCreate      bool
	IsDelete      bool
}

func (TaskMutated) Family() types.EventFamily { return types.FamilyTask }

// CommentMutated is a task comment create/update/delete. The nominal
// comment ID may be a sentinel; ResolvedMessageID, when present, is
// the authoritative identifier.
type CommentMutated struct {
	TaskID            types.PortalTaskID
	NominalCommentID  string
	ResolvedMessageID string
	IsCreate          bool
	IsUpdate          bool
	IsDelete          bool
}

func (CommentMutated) Family() types.EventFamily { return types.FamilyComment }

// UserMutated is a portal user profile change.
type UserMutated struct {
	RemoteUserID  types.PortalUserID
	ProfileFields map[string]string
}

func (UserMutated) Family() types.EventFamily { return types.FamilyUser }

// ChatMessageAdded is a new message in a portal chat.
type ChatMessageAdded struct {
	ChatID    types.PortalChatID
	MessageID types.PortalMessageID
}

func (ChatMessageAdded) Family() types.EventFamily { return types.FamilyChatMessage }

// Classify inspects the envelope's event type and extracts the
// family-specific canonical event from its payload.
func Classify(ctx context.Context, env *Envelope) (CanonicalEvent, error) {
	switch env.EventType.Family() {
	case types.FamilyTask:
		return classifyTask(env)
	case types.FamilyComment:
		return classifyComment(env)
	case types.FamilyUser:
		return classifyUser(ctx, env)
	case types.FamilyChatMessage:
		return classifyChatMessage(env)
	default:
		return nil, goerr.Wrap(ErrUnknownEvent, "no registered event family", goerr.V("event", env.EventType.String()))
	}
}

func classifyTask(env *Envelope) (CanonicalEvent, error) {
	after, ok := env.Data.Sub("FIELDS_AFTER")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "task event has no FIELDS_AFTER", goerr.V("event", env.EventType.String()))
	}

	taskID, ok := after.Lookup("ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "task event has no task ID", goerr.V("event", env.EventType.String()))
	}

	ev := TaskMutated{
		TaskID:   types.PortalTaskID(taskID),
		IsCreate: env.EventType.IsAdd(),
		IsDelete: env.EventType.IsDelete(),
	}

	// FIELDS_BEFORE is optional; without it every field counts as changed
	before, _ := env.Data.Sub("FIELDS_BEFORE")
	beforeFields := before.StringMap()
	afterFields := after.StringMap()
	for _, key := range after.Keys() {
		afterVal, ok := afterFields[key]
		if !ok {
			continue
		}
		if beforeVal, ok := beforeFields[key]; ok && beforeVal == afterVal {
			continue
		}
		ev.ChangedFields = append(ev.ChangedFields, key)
	}

	return ev, nil
}

func classifyComment(env *Envelope) (CanonicalEvent, error) {
	after, ok := env.Data.Sub("FIELDS_AFTER")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "comment event has no FIELDS_AFTER", goerr.V("event", env.EventType.String()))
	}

	nominalID, ok := after.Lookup("ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "comment event has no comment ID", goerr.V("event", env.EventType.String()))
	}
	taskID, ok := after.Lookup("TASK_ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "comment event has no task ID", goerr.V("event", env.EventType.String()))
	}

	ev := CommentMutated{
		TaskID:           types.PortalTaskID(taskID),
		NominalCommentID: nominalID,
		IsCreate:         env.EventType.IsAdd(),
		IsUpdate:         env.EventType.IsUpdate(),
		IsDelete:         env.EventType.IsDelete(),
	}

	// MESSAGE_ID is only delivered by newer portal versions
	if messageID, ok := after.Lookup("MESSAGE_ID"); ok {
		ev.ResolvedMessageID = messageID
	}

	return ev, nil
}

// classifyUser handles both payload shapes the portal emits for user
// events: fields nested under FIELDS (newer API versions) or flattened
// directly in data (older versions). Nested wins; the upstream contract
// documents no discriminator, so an ambiguous payload matching both
// shapes is logged rather than guessed about.
func classifyUser(ctx context.Context, env *Envelope) (CanonicalEvent, error) {
	fields, nested := env.Data.Sub("FIELDS")
	if !nested {
		fields = env.Data
	}

	userID, ok := fields.Lookup("ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "user event has no user ID", goerr.V("event", env.EventType.String()))
	}

	if nested {
		if flatID, ok := env.Data.Lookup("ID"); ok && flatID != userID {
			logging.From(ctx).Warn("user event matches both nested and flat shapes, keeping nested",
				"event", env.EventType.String(),
				"nested_id", userID,
				"flat_id", flatID,
			)
		}
	}

	return UserMutated{
		RemoteUserID:  types.PortalUserID(userID),
		ProfileFields: fields.StringMap(),
	}, nil
}

func classifyChatMessage(env *Envelope) (CanonicalEvent, error) {
	after, ok := env.Data.Sub("FIELDS_AFTER")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "chat message event has no FIELDS_AFTER", goerr.V("event", env.EventType.String()))
	}

	chatID, ok := after.Lookup("CHAT_ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "chat message event has no chat ID", goerr.V("event", env.EventType.String()))
	}
	messageID, ok := after.Lookup("ID")
	if !ok {
		return nil, goerr.Wrap(ErrDecode, "chat message event has no message ID", goerr.V("event", env.EventType.String()))
	}

	return ChatMessageAdded{
		ChatID:    types.PortalChatID(chatID),
		MessageID: types.PortalMessageID(messageID),
	}, nil
}

// ResolvedEvent is a canonical event whose ambiguous identifiers have
// been resolved to their authoritative values.
type ResolvedEvent struct {
	Event CanonicalEvent

	// MessageID, ChatID and ResponsibleID are populated for comment
	// events only; the latter two come from the owning task lookup.
	MessageID     types.PortalMessageID
	ChatID        types.PortalChatID
	ResponsibleID types.PortalUserID
}
