package types

// PortalUserID identifies a user in the project-management portal.
type PortalUserID string

// PortalTaskID identifies a task in the portal.
type PortalTaskID string

// PortalChatID identifies a task discussion chat in the portal.
type PortalChatID string

// PortalMessageID identifies a chat message in the portal.
type PortalMessageID string

// PortalDepartmentID identifies an organizational unit in the portal.
type PortalDepartmentID string

// MessengerUserID identifies a user on the messaging platform.
type MessengerUserID string

// MessengerUsername is a messaging platform username (always stored
// lowercased, without the leading "@").
type MessengerUsername string

// ThreadID identifies a messaging platform conversation thread.
type ThreadID string

func (x PortalUserID) String() string    { return string(x) }
func (x PortalTaskID) String() string    { return string(x) }
func (x PortalChatID) String() string    { return string(x) }
func (x PortalMessageID) String() string { return string(x) }
