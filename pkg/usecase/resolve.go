package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
)

// Resolve turns a canonical event into one with authoritative
// identifiers. Task, user and chat-message events resolve without I/O.
// Comment events apply the message ID precedence and look up the
// owning task's chat through the portal client.
func (uc *UseCases) Resolve(ctx context.Context, event model.CanonicalEvent) (*model.ResolvedEvent, error) {
	comment, ok := event.(model.CommentMutated)
	if !ok {
		return &model.ResolvedEvent{Event: event}, nil
	}

	messageID, err := resolveMessageID(comment)
	if err != nil {
		return nil, err
	}

	resolved := &model.ResolvedEvent{
		Event:     event,
		MessageID: messageID,
	}

	task, err := uc.lookupTask(ctx, comment.TaskID)
	if err != nil {
		return nil, err
	}
	resolved.ChatID = task.ChatID
	resolved.ResponsibleID = task.ResponsibleID

	return resolved, nil
}

// resolveMessageID applies the comment identifier precedence: the
// explicit message ID when real, the nominal comment ID when real,
// otherwise the event cannot be meaningfully processed.
func resolveMessageID(comment model.CommentMutated) (types.PortalMessageID, error) {
	if id := comment.ResolvedMessageID; id != "" && id != model.CommentIDSentinel {
		return types.PortalMessageID(id), nil
	}
	if id := comment.NominalCommentID; id != "" && id != model.CommentIDSentinel {
		return types.PortalMessageID(id), nil
	}

	return "", goerr.Wrap(ErrUnresolvableIdentifier, "comment event has only sentinel identifiers",
		goerr.V("taskID", comment.TaskID),
		goerr.V("nominal_comment_id", comment.NominalCommentID),
		goerr.V("resolved_message_id", comment.ResolvedMessageID),
	)
}

// lookupTask fetches a task with bounded retries. The portal webhook
// sender retries deliveries on its side, so exhausting the budget here
// only skips this delivery attempt.
func (uc *UseCases) lookupTask(ctx context.Context, taskID types.PortalTaskID) (*portal.Task, error) {
	backoff := uc.lookupBackoff

	var lastErr error
	for attempt := 0; attempt < uc.lookupAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return nil, goerr.Wrap(ErrDependencyLookup, "task lookup abandoned",
					goerr.V("taskID", taskID), goerr.V("cause", ctx.Err().Error()))
			}
		}

		task, err := uc.portal.GetTask(ctx, taskID)
		if err == nil {
			return task, nil
		}
		lastErr = err
	}

	return nil, goerr.Wrap(ErrDependencyLookup, "task lookup failed",
		goerr.V("taskID", taskID),
		goerr.V("attempts", uc.lookupAttempts),
		goerr.V("cause", lastErr.Error()),
	)
}
