package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/messenger"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
)

// mockPortalService is a mock implementation of portal.Service for testing
type mockPortalService struct {
	mu             sync.Mutex
	tasks          map[types.PortalTaskID]*portal.Task
	users          []*portal.User
	getTaskErr     error
	getTaskFailN   int
	getTaskCalled  int
	listUsersErr   error
	listUsersCalls int
}

func newMockPortalService() *mockPortalService {
	return &mockPortalService{
		tasks: map[types.PortalTaskID]*portal.Task{},
	}
}

func (m *mockPortalService) GetTask(ctx context.Context, taskID types.PortalTaskID) (*portal.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getTaskCalled++
	if m.getTaskFailN > 0 {
		m.getTaskFailN--
		return nil, portal.ErrRemoteUnavailable
	}
	if m.getTaskErr != nil {
		return nil, m.getTaskErr
	}

	task, ok := m.tasks[taskID]
	if !ok {
		return nil, portal.ErrRemoteUnavailable
	}
	copied := *task
	return &copied, nil
}

func (m *mockPortalService) GetChatMessage(ctx context.Context, chatID types.PortalChatID, messageID types.PortalMessageID) (*portal.ChatMessage, error) {
	return nil, nil
}

func (m *mockPortalService) ListRecentChatMessages(ctx context.Context, chatID types.PortalChatID, limit int) ([]*portal.ChatMessage, error) {
	return nil, nil
}

func (m *mockPortalService) ListUsers(ctx context.Context) ([]*portal.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listUsersCalls++
	if m.listUsersErr != nil {
		return nil, m.listUsersErr
	}

	result := make([]*portal.User, len(m.users))
	for i, u := range m.users {
		copied := *u
		result[i] = &copied
	}
	return result, nil
}

func (m *mockPortalService) TaskURL(taskID types.PortalTaskID, userID types.PortalUserID) string {
	uid := "0"
	if userID != "" {
		uid = string(userID)
	}
	return fmt.Sprintf("https://portal.test/company/personal/user/%s/tasks/task/view/%s/", uid, taskID)
}

// mockNotifier records delivered notifications
type mockNotifier struct {
	mu      sync.Mutex
	posted  []*messenger.Notification
	postErr error
}

func (m *mockNotifier) Post(ctx context.Context, note *messenger.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postErr != nil {
		return m.postErr
	}
	copied := *note
	m.posted = append(m.posted, &copied)
	return nil
}

func (m *mockNotifier) notifications() []*messenger.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*messenger.Notification, len(m.posted))
	copy(result, m.posted)
	return result
}
