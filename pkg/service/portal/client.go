package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/safe"
)

// Custom portal user profile fields carrying the messenger link. They
// also surface in user-mutation webhook payloads, which is how the
// bridge learns new associations from live traffic.
const (
	FieldMessengerID       = "UF_MESSENGER_ID"
	FieldMessengerUsername = "UF_MESSENGER_USERNAME"
)

const (
	defaultTimeout = 10 * time.Second
	listPageSize   = 50
)

// client implements Service against the portal REST API
// (https://{domain}/rest/{token}/{method}).
type client struct {
	domain  string
	token   types.Secret
	httpCli *http.Client
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func WithHTTPClient(httpCli *http.Client) Option {
	return func(c *client) {
		c.httpCli = httpCli
	}
}

// New creates a portal API client. The outbound token is distinct from
// the inbound webhook application token.
func New(domain string, token types.Secret, opts ...Option) (Service, error) {
	if domain == "" {
		return nil, goerr.New("portal domain is required")
	}
	if token.Unveil() == "" {
		return nil, goerr.New("portal API token is required")
	}

	c := &client{
		domain:  strings.TrimSuffix(domain, "/"),
		token:   token,
		httpCli: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// apiResponse is the portal's uniform response envelope.
type apiResponse struct {
	Result           json.RawMessage `json:"result"`
	Next             int             `json:"next"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (c *client) call(ctx context.Context, method string, params any) (*apiResponse, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal request params", goerr.V("method", method))
	}

	url := fmt.Sprintf("https://%s/rest/%s/%s", c.domain, c.token.Unveil(), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("method", method))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "request failed", goerr.V("method", method), goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "unexpected status", goerr.V("method", method), goerr.V("status", resp.StatusCode))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "failed to decode response", goerr.V("method", method), goerr.V("cause", err.Error()))
	}

	return &apiResp, nil
}

func (c *client) GetTask(ctx context.Context, taskID types.PortalTaskID) (*Task, error) {
	resp, err := c.call(ctx, "tasks.task.get", map[string]any{
		"taskId": string(taskID),
		"select": []string{"ID", "TITLE", "RESPONSIBLE_ID", "DEADLINE", "CHAT_ID"},
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "portal rejected task lookup",
			goerr.V("taskID", taskID), goerr.V("api_error", resp.Error), goerr.V("description", resp.ErrorDescription))
	}

	var result struct {
		Task struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			ResponsibleID string `json:"responsibleId"`
			Deadline      string `json:"deadline"`
			ChatID        string `json:"chatId"`
		} `json:"task"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "malformed task payload", goerr.V("taskID", taskID))
	}

	return &Task{
		ID:            types.PortalTaskID(result.Task.ID),
		Title:         result.Task.Title,
		ResponsibleID: types.PortalUserID(result.Task.ResponsibleID),
		Deadline:      result.Task.Deadline,
		ChatID:        types.PortalChatID(result.Task.ChatID),
	}, nil
}

// chatMessageDoc is the wire shape of a chat message record.
type chatMessageDoc struct {
	ID       string `json:"id"`
	ChatID   string `json:"chat_id"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

func (d *chatMessageDoc) toMessage() *ChatMessage {
	return &ChatMessage{
		ID:       types.PortalMessageID(d.ID),
		ChatID:   types.PortalChatID(d.ChatID),
		AuthorID: types.PortalUserID(d.AuthorID),
		Message:  d.Text,
	}
}

func (c *client) GetChatMessage(ctx context.Context, chatID types.PortalChatID, messageID types.PortalMessageID) (*ChatMessage, error) {
	resp, err := c.call(ctx, "im.message.get", map[string]any{
		"CHAT_ID":    string(chatID),
		"MESSAGE_ID": string(messageID),
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		// A missing message is an absence, not a failure
		if strings.Contains(resp.Error, "NOT_FOUND") {
			return nil, nil
		}
		return nil, goerr.Wrap(ErrRemoteUnavailable, "portal rejected message lookup",
			goerr.V("chatID", chatID), goerr.V("messageID", messageID), goerr.V("api_error", resp.Error))
	}

	var doc chatMessageDoc
	if err := json.Unmarshal(resp.Result, &doc); err != nil {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "malformed message payload", goerr.V("messageID", messageID))
	}
	if doc.ID == "" {
		return nil, nil
	}

	return doc.toMessage(), nil
}

func (c *client) ListRecentChatMessages(ctx context.Context, chatID types.PortalChatID, limit int) ([]*ChatMessage, error) {
	resp, err := c.call(ctx, "im.dialog.messages.get", map[string]any{
		"CHAT_ID": string(chatID),
		"LIMIT":   limit,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "portal rejected message list",
			goerr.V("chatID", chatID), goerr.V("api_error", resp.Error))
	}

	var result struct {
		Messages []chatMessageDoc `json:"messages"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, goerr.Wrap(ErrRemoteUnavailable, "malformed message list payload", goerr.V("chatID", chatID))
	}

	messages := make([]*ChatMessage, 0, len(result.Messages))
	for i := range result.Messages {
		messages = append(messages, result.Messages[i].toMessage())
	}
	return messages, nil
}

func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	start := 0

	for {
		resp, err := c.call(ctx, "user.get", map[string]any{
			"ADMIN_MODE": false,
			"start":      start,
		})
		if err != nil {
			return nil, err
		}
		if resp.Error != "" {
			return nil, goerr.Wrap(ErrRemoteUnavailable, "portal rejected user list",
				goerr.V("api_error", resp.Error), goerr.V("description", resp.ErrorDescription))
		}

		var page []struct {
			ID                string `json:"ID"`
			Name              string `json:"NAME"`
			LastName          string `json:"LAST_NAME"`
			Email             string `json:"EMAIL"`
			Active            bool   `json:"ACTIVE"`
			MessengerID       string `json:"UF_MESSENGER_ID"`
			MessengerUsername string `json:"UF_MESSENGER_USERNAME"`
		}
		if err := json.Unmarshal(resp.Result, &page); err != nil {
			return nil, goerr.Wrap(ErrRemoteUnavailable, "malformed user list payload")
		}

		for _, rec := range page {
			users = append(users, &User{
				ID:                types.PortalUserID(rec.ID),
				Name:              rec.Name,
				LastName:          rec.LastName,
				Email:             rec.Email,
				Active:            rec.Active,
				MessengerID:       types.MessengerUserID(rec.MessengerID),
				MessengerUsername: types.MessengerUsername(strings.ToLower(strings.TrimPrefix(rec.MessengerUsername, "@"))),
			})
		}

		if resp.Next == 0 || len(page) < listPageSize {
			break
		}
		start = resp.Next
	}

	return users, nil
}

// TaskURL builds the portal deep link for a task, personalized when the
// viewer is known.
func (c *client) TaskURL(taskID types.PortalTaskID, userID types.PortalUserID) string {
	uid := "0"
	if userID != "" {
		uid = string(userID)
	}
	return fmt.Sprintf("https://%s/company/personal/user/%s/tasks/task/view/%s/", c.domain, uid, taskID)
}
