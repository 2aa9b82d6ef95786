package types

import "strings"

// EventType is the raw event tag delivered by the portal webhook,
// e.g. "ONTASKADD", "ONTASKCOMMENTUPDATE", "ONIMMESSAGEADD".
type EventType string

// EventFamily groups event types that share a payload shape.
type EventFamily int

const (
	FamilyUnknown EventFamily = iota
	FamilyTask
	FamilyComment
	FamilyUser
	FamilyChatMessage
)

func (f EventFamily) String() string {
	switch f {
	case FamilyTask:
		return "task"
	case FamilyComment:
		return "comment"
	case FamilyUser:
		return "user"
	case FamilyChatMessage:
		return "chat_message"
	default:
		return "unknown"
	}
}

// Family classifies the event type into its payload family. Comment
// events must be checked before task events because every comment
// event type also contains "TASK".
func (t EventType) Family() EventFamily {
	name := strings.ToUpper(string(t))

	switch {
	case strings.Contains(name, "TASKCOMMENT"):
		return FamilyComment
	case strings.Contains(name, "TASK"):
		return FamilyTask
	case strings.Contains(name, "IMMESSAGE"):
		return FamilyChatMessage
	case strings.Contains(name, "USER"):
		return FamilyUser
	default:
		return FamilyUnknown
	}
}

// IsAdd reports whether the event is a creation.
func (t EventType) IsAdd() bool {
	return strings.HasSuffix(strings.ToUpper(string(t)), "ADD")
}

// IsUpdate reports whether the event is a mutation of an existing record.
func (t EventType) IsUpdate() bool {
	return strings.HasSuffix(strings.ToUpper(string(t)), "UPDATE")
}

// IsDelete reports whether the event is a deletion.
func (t EventType) IsDelete() bool {
	return strings.HasSuffix(strings.ToUpper(string(t)), "DELETE")
}

func (t EventType) String() string { return string(t) }
