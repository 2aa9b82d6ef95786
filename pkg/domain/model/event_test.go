package model_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

func envelopeFromJSON(t *testing.T, body string) *model.Envelope {
	t.Helper()

	tree, err := model.DecodeTree([]byte(body), "application/json")
	gt.NoError(t, err).Required()
	env, err := model.ParseEnvelope(tree)
	gt.NoError(t, err).Required()
	return env
}

func TestClassifyComment(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONTASKCOMMENTADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "338729", "TASK_ID": "40927"}}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	comment := gt.Cast[model.CommentMutated](t, event)
	gt.Value(t, comment.TaskID).Equal(types.PortalTaskID("40927"))
	gt.String(t, comment.NominalCommentID).Equal("338729")
	gt.String(t, comment.ResolvedMessageID).Equal("")
	gt.Bool(t, comment.IsCreate).True()
	gt.Bool(t, comment.IsDelete).False()
}

func TestClassifyCommentWithMessageID(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONTASKCOMMENTUPDATE",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "0", "TASK_ID": "40927", "MESSAGE_ID": "1741081"}}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	comment := gt.Cast[model.CommentMutated](t, event)
	gt.String(t, comment.NominalCommentID).Equal("0")
	gt.String(t, comment.ResolvedMessageID).Equal("1741081")
	gt.Bool(t, comment.IsUpdate).True()
}

func TestClassifyTask(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONTASKUPDATE",
		"auth": {"application_token": "tok"},
		"data": {
			"FIELDS_BEFORE": {"ID": "40927", "STATUS": "2", "TITLE": "old"},
			"FIELDS_AFTER": {"ID": "40927", "STATUS": "5", "TITLE": "old"}
		}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	task := gt.Cast[model.TaskMutated](t, event)
	gt.Value(t, task.TaskID).Equal(types.PortalTaskID("40927"))
	gt.Value(t, task.ChangedFields).Equal([]string{"STATUS"})
	gt.Bool(t, task.IsCreate).False()
	gt.Bool(t, task.IsDelete).False()
}

func TestClassifyTaskWithoutBefore(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONTASKADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "41000", "TITLE": "new task"}}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	task := gt.Cast[model.TaskMutated](t, event)
	gt.Bool(t, task.IsCreate).True()
	// No FIELDS_BEFORE: every delivered field counts as changed
	gt.Value(t, task.ChangedFields).Equal([]string{"ID", "TITLE"})
}

func TestClassifyUserNested(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONUSERADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS": {"ID": "77", "UF_MESSENGER_ID": "U123"}}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	user := gt.Cast[model.UserMutated](t, event)
	gt.Value(t, user.RemoteUserID).Equal(types.PortalUserID("77"))
	gt.String(t, user.ProfileFields["UF_MESSENGER_ID"]).Equal("U123")
}

func TestClassifyUserFlat(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONUSERUPDATE",
		"auth": {"application_token": "tok"},
		"data": {"ID": "78", "UF_MESSENGER_USERNAME": "jdoe"}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	user := gt.Cast[model.UserMutated](t, event)
	gt.Value(t, user.RemoteUserID).Equal(types.PortalUserID("78"))
	gt.String(t, user.ProfileFields["UF_MESSENGER_USERNAME"]).Equal("jdoe")
}

func TestClassifyChatMessage(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONIMMESSAGEADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "1741090", "CHAT_ID": "chat55"}}
	}`)

	event, err := model.Classify(context.Background(), env)
	gt.NoError(t, err).Required()

	msg := gt.Cast[model.ChatMessageAdded](t, event)
	gt.Value(t, msg.ChatID).Equal(types.PortalChatID("chat55"))
	gt.Value(t, msg.MessageID).Equal(types.PortalMessageID("1741090"))
}

func TestClassifyUnknownEvent(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONCALENDARENTRYADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "9"}}
	}`)

	_, err := model.Classify(context.Background(), env)
	gt.Value(t, err).NotNil()
	gt.Bool(t, errors.Is(err, model.ErrUnknownEvent)).True()
}

func TestClassifyCommentMissingTaskID(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"event": "ONTASKCOMMENTADD",
		"auth": {"application_token": "tok"},
		"data": {"FIELDS_AFTER": {"ID": "338729"}}
	}`)

	_, err := model.Classify(context.Background(), env)
	gt.Value(t, err).NotNil()
	gt.Bool(t, errors.Is(err, model.ErrDecode)).True()
}
