package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/repository/memory"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
)

func TestResolveCommentMessageIDPrecedence(t *testing.T) {
	portalSvc := newMockPortalService()
	portalSvc.tasks["40927"] = &portal.Task{
		ID:            "40927",
		ChatID:        "chat55",
		ResponsibleID: "77",
	}
	uc := usecase.New(memory.New(), portalSvc, "tok")

	t.Run("explicit message ID wins over sentinel nominal ID", func(t *testing.T) {
		resolved, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:            "40927",
			NominalCommentID:  "0",
			ResolvedMessageID: "1741081",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, resolved.MessageID).Equal(types.PortalMessageID("1741081"))
		gt.Value(t, resolved.ChatID).Equal(types.PortalChatID("chat55"))
		gt.Value(t, resolved.ResponsibleID).Equal(types.PortalUserID("77"))
	})

	t.Run("nominal ID used when no message ID delivered", func(t *testing.T) {
		resolved, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:           "40927",
			NominalCommentID: "338729",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, resolved.MessageID).Equal(types.PortalMessageID("338729"))
	})

	t.Run("explicit message ID wins over real nominal ID", func(t *testing.T) {
		resolved, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:            "40927",
			NominalCommentID:  "338729",
			ResolvedMessageID: "1741081",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, resolved.MessageID).Equal(types.PortalMessageID("1741081"))
	})

	t.Run("all sentinel identifiers fail", func(t *testing.T) {
		_, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:           "40927",
			NominalCommentID: "0",
		})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrUnresolvableIdentifier)).True()
	})
}

func TestResolveNonCommentIsPure(t *testing.T) {
	portalSvc := newMockPortalService()
	uc := usecase.New(memory.New(), portalSvc, "tok")

	resolved, err := uc.Resolve(context.Background(), model.TaskMutated{TaskID: "40927", IsCreate: true})
	gt.NoError(t, err).Required()
	gt.Value(t, resolved.MessageID).Equal(types.PortalMessageID(""))
	gt.Value(t, portalSvc.getTaskCalled).Equal(0)
}

func TestResolveTaskLookupRetries(t *testing.T) {
	t.Run("recovers within retry budget", func(t *testing.T) {
		portalSvc := newMockPortalService()
		portalSvc.tasks["40927"] = &portal.Task{ID: "40927", ChatID: "chat55"}
		portalSvc.getTaskFailN = 2

		uc := usecase.New(memory.New(), portalSvc, "tok",
			usecase.WithLookupRetry(3, time.Millisecond))

		resolved, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:           "40927",
			NominalCommentID: "338729",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, resolved.ChatID).Equal(types.PortalChatID("chat55"))
		gt.Value(t, portalSvc.getTaskCalled).Equal(3)
	})

	t.Run("gives up after budget exhausted", func(t *testing.T) {
		portalSvc := newMockPortalService()
		portalSvc.getTaskErr = portal.ErrRemoteUnavailable

		uc := usecase.New(memory.New(), portalSvc, "tok",
			usecase.WithLookupRetry(3, time.Millisecond))

		_, err := uc.Resolve(context.Background(), model.CommentMutated{
			TaskID:           "40927",
			NominalCommentID: "338729",
		})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrDependencyLookup)).True()
		gt.Value(t, portalSvc.getTaskCalled).Equal(3)
	})
}
