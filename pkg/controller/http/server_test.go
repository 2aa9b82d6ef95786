package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/taskbridge-dev/taskbridge/pkg/controller/http"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/repository/memory"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
)

// stubPortalService satisfies portal.Service with canned data
type stubPortalService struct {
	users []*portal.User
}

func (s *stubPortalService) GetTask(ctx context.Context, taskID types.PortalTaskID) (*portal.Task, error) {
	return &portal.Task{ID: taskID, ChatID: "chat1"}, nil
}

func (s *stubPortalService) GetChatMessage(ctx context.Context, chatID types.PortalChatID, messageID types.PortalMessageID) (*portal.ChatMessage, error) {
	return nil, nil
}

func (s *stubPortalService) ListRecentChatMessages(ctx context.Context, chatID types.PortalChatID, limit int) ([]*portal.ChatMessage, error) {
	return nil, nil
}

func (s *stubPortalService) ListUsers(ctx context.Context) ([]*portal.User, error) {
	return s.users, nil
}

func (s *stubPortalService) TaskURL(taskID types.PortalTaskID, userID types.PortalUserID) string {
	return fmt.Sprintf("https://portal.test/tasks/%s/", taskID)
}

func newTestServer(t *testing.T, repo interfaces.Repository, portalSvc portal.Service) *httpctrl.Server {
	t.Helper()

	uc := usecase.New(repo, portalSvc, types.Secret("expected-token"))
	return httpctrl.New(uc)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(), &stubPortalService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestWebhookEndpoint(t *testing.T) {
	newRequest := func(token string) *http.Request {
		body := "event=ONUSERUPDATE" +
			"&data%5BFIELDS%5D%5BID%5D=77" +
			"&data%5BFIELDS%5D%5BUF_MESSENGER_ID%5D=U123" +
			"&auth%5Bmember_id%5D=abc" +
			"&auth%5Bapplication_token%5D=" + token
		req := httptest.NewRequest(http.MethodPost, "/hooks/portal/event", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("valid delivery acked with 200", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, newRequest("expected-token"))

		gt.Value(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("token mismatch rejected with 401", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, newRequest("wrong-token"))

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("401 body never echoes the token", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, newRequest("wrong-token"))

		gt.Bool(t, strings.Contains(rec.Body.String(), "wrong-token")).False()
	})

	t.Run("unknown content type rejected with 400", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		req := httptest.NewRequest(http.MethodPost, "/hooks/portal/event", strings.NewReader("<xml/>"))
		req.Header.Set("Content-Type", "text/xml")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("envelope without event rejected with 400", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		req := httptest.NewRequest(http.MethodPost, "/hooks/portal/event",
			strings.NewReader(`{"auth":{"application_token":"expected-token"}}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("json delivery accepted", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), &stubPortalService{})

		req := httptest.NewRequest(http.MethodPost, "/hooks/portal/event", strings.NewReader(`{
			"event": "ONTASKADD",
			"auth": {"application_token": "expected-token"},
			"data": {"FIELDS_AFTER": {"ID": "41000"}}
		}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestSyncEndpoint(t *testing.T) {
	repo := memory.New()
	srv := newTestServer(t, repo, &stubPortalService{
		users: []*portal.User{
			{ID: "77", Active: true, MessengerID: "U123", MessengerUsername: "jdoe"},
		},
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var report struct {
		Created   int `json:"created"`
		Updated   int `json:"updated"`
		Unchanged int `json:"unchanged"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report)).Required()
	gt.Value(t, report.Created).Equal(2)
}

func TestMappingsEndpoint(t *testing.T) {
	repo := memory.New()
	srv := newTestServer(t, repo, &stubPortalService{})

	gt.NoError(t, repo.UserMap().Put(context.Background(), "77", "U123", types.SourceSynced)).Required()

	t.Run("lists known domain", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mappings/users", nil))

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Domain  string `json:"domain"`
			Entries []struct {
				Key    string `json:"key"`
				Value  string `json:"value"`
				Source string `json:"source"`
			} `json:"entries"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.String(t, resp.Domain).Equal("users")
		gt.Array(t, resp.Entries).Length(1).Required()
		gt.String(t, resp.Entries[0].Key).Equal("77")
		gt.String(t, resp.Entries[0].Value).Equal("U123")
		gt.String(t, resp.Entries[0].Source).Equal("synced")
	})

	t.Run("unknown domain is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mappings/departments", nil))

		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}
