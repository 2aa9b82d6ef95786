package messenger

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// client implements Service on the Slack Web API.
type client struct {
	api            *slack.Client
	defaultChannel string
}

// New creates a messenger service with the provided bot token. The
// default channel receives notifications whose thread mapping is
// unknown.
func New(token types.Secret, defaultChannel string) (Service, error) {
	if token.Unveil() == "" {
		return nil, goerr.New("messenger bot token is required")
	}
	if defaultChannel == "" {
		return nil, goerr.New("messenger default channel is required")
	}

	return &client{
		api:            slack.New(token.Unveil()),
		defaultChannel: defaultChannel,
	}, nil
}

func (c *client) Post(ctx context.Context, note *Notification) error {
	channel, threadTS := splitThread(note.Thread)
	if channel == "" {
		channel = c.defaultChannel
	}

	text := note.Text
	if note.Mention != "" {
		text = fmt.Sprintf("<@%s> %s", note.Mention, text)
	}

	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return goerr.Wrap(err, "failed to post notification", goerr.V("channel", channel), goerr.V("thread_ts", threadTS))
	}

	return nil
}

// splitThread decomposes a thread ID of the form "channel" or
// "channel:thread_ts".
func splitThread(thread types.ThreadID) (channel, threadTS string) {
	parts := strings.SplitN(string(thread), ":", 2)
	channel = parts[0]
	if len(parts) == 2 {
		threadTS = parts[1]
	}
	return channel, threadTS
}
