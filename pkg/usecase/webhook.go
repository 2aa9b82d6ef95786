package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/messenger"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// VerifyEnvelope authenticates an envelope against the configured
// application token. Called before any event interpretation.
func (uc *UseCases) VerifyEnvelope(env *model.Envelope) error {
	got := []byte(env.Auth.ApplicationToken.Unveil())
	want := []byte(uc.expectedToken.Unveil())

	if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
		return goerr.Wrap(ErrAuthRejected, "application token mismatch",
			goerr.V("member_id", env.Auth.MemberID),
			goerr.V("portal_domain", env.Auth.PortalDomain),
		)
	}
	return nil
}

// ProcessEnvelope runs one webhook delivery through the pipeline:
// classify, resolve identifiers, learn identity mappings and hand the
// resolved event to the notification dispatcher. It is called after
// the HTTP response has been sent; errors surface through the
// operational channel only.
func (uc *UseCases) ProcessEnvelope(ctx context.Context, env *model.Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, uc.processTimeout)
	defer cancel()

	logger := logging.From(ctx).With(
		"envelope_id", uuid.NewString(),
		"event", env.EventType.String(),
		"handler_id", env.HandlerID,
	)
	ctx = logging.With(ctx, logger)

	event, err := model.Classify(ctx, env)
	if err != nil {
		if errors.Is(err, model.ErrUnknownEvent) {
			// Local policy: unknown families are not fatal
			logger.Warn("skipping event with unknown type", "event", env.EventType.String())
			return nil
		}
		return err
	}

	if user, ok := event.(model.UserMutated); ok {
		// User mutations feed the mapping store; nothing to dispatch
		return uc.learnFromUser(ctx, user)
	}

	resolved, err := uc.Resolve(ctx, event)
	if err != nil {
		return err
	}

	return uc.dispatch(ctx, resolved)
}

// learnFromUser upserts "learned" mapping entries from the messenger
// link fields of a user-mutation payload.
func (uc *UseCases) learnFromUser(ctx context.Context, user model.UserMutated) error {
	logger := logging.From(ctx)

	messengerID := user.ProfileFields[portal.FieldMessengerID]
	username := strings.ToLower(strings.TrimPrefix(user.ProfileFields[portal.FieldMessengerUsername], "@"))

	if messengerID == "" && username == "" {
		logger.Debug("user event carries no messenger link fields", "portal_user_id", user.RemoteUserID)
		return nil
	}

	if messengerID != "" {
		if err := uc.repo.UserMap().Put(ctx, string(user.RemoteUserID), messengerID, types.SourceLearned); err != nil {
			return goerr.Wrap(err, "failed to learn user mapping", goerr.V("portal_user_id", user.RemoteUserID))
		}
		logger.Info("learned user mapping", "portal_user_id", user.RemoteUserID, "messenger_user_id", messengerID)
	}

	if username != "" {
		if err := uc.repo.UsernameMap().Put(ctx, username, string(user.RemoteUserID), types.SourceLearned); err != nil {
			return goerr.Wrap(err, "failed to learn username mapping", goerr.V("username", username))
		}
		logger.Info("learned username mapping", "username", username, "portal_user_id", user.RemoteUserID)
	}

	return nil
}

// mentionFor translates a portal user to a messenger mention target.
// An unmapped user simply gets no mention; only backend failures are
// logged.
func (uc *UseCases) mentionFor(ctx context.Context, userID types.PortalUserID) types.MessengerUserID {
	if userID == "" {
		return ""
	}

	entry, err := uc.repo.UserMap().Get(ctx, string(userID))
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			logging.From(ctx).Error("failed to read user mapping", "portal_user_id", userID, "error", err.Error())
		}
		return ""
	}
	return types.MessengerUserID(entry.Value)
}

// dispatch hands a resolved event to the notification dispatcher.
// Message content beyond identification of the event is the
// dispatcher's concern.
func (uc *UseCases) dispatch(ctx context.Context, resolved *model.ResolvedEvent) error {
	logger := logging.From(ctx)

	if uc.notifier == nil {
		logger.Info("no notifier configured, dropping resolved event", "family", resolved.Event.Family().String())
		return nil
	}

	note := &messenger.Notification{}

	switch ev := resolved.Event.(type) {
	case model.TaskMutated:
		note.Text = taskText(ev, uc.portal.TaskURL(ev.TaskID, ""))

	case model.CommentMutated:
		note.Mention = uc.mentionFor(ctx, resolved.ResponsibleID)
		note.Text = commentText(ev, uc.portal.TaskURL(ev.TaskID, resolved.ResponsibleID))

	case model.ChatMessageAdded:
		note.Text = fmt.Sprintf("new message %s in task chat %s", ev.MessageID, ev.ChatID)

	default:
		logger.Warn("no dispatch rule for event family", "family", resolved.Event.Family().String())
		return nil
	}

	if err := uc.notifier.Post(ctx, note); err != nil {
		return goerr.Wrap(err, "failed to dispatch notification", goerr.V("family", resolved.Event.Family().String()))
	}

	logger.Info("dispatched notification", "family", resolved.Event.Family().String())
	return nil
}

func taskText(ev model.TaskMutated, url string) string {
	switch {
	case ev.IsCreate:
		return fmt.Sprintf("task <%s|%s> was created", url, ev.TaskID)
	case ev.IsDelete:
		return fmt.Sprintf("task %s was deleted", ev.TaskID)
	default:
		return fmt.Sprintf("task <%s|%s> was updated (%s)", url, ev.TaskID, strings.Join(ev.ChangedFields, ", "))
	}
}

func commentText(ev model.CommentMutated, url string) string {
	switch {
	case ev.IsCreate:
		return fmt.Sprintf("new comment on task <%s|%s>", url, ev.TaskID)
	case ev.IsDelete:
		return fmt.Sprintf("a comment on task <%s|%s> was deleted", url, ev.TaskID)
	default:
		return fmt.Sprintf("a comment on task <%s|%s> was edited", url, ev.TaskID)
	}
}
