package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/messenger"
)

// Messenger holds CLI flags for the messaging platform client
type Messenger struct {
	botToken       string
	defaultChannel string
}

// Flags returns CLI flags for messenger configuration
func (m *Messenger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack bot token for notification delivery",
			Sources:     cli.EnvVars("TASKBRIDGE_SLACK_BOT_TOKEN"),
			Destination: &m.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Default Slack channel for notifications without a thread mapping",
			Sources:     cli.EnvVars("TASKBRIDGE_SLACK_CHANNEL"),
			Destination: &m.defaultChannel,
		},
	}
}

// IsConfigured reports whether notification delivery is enabled.
func (m *Messenger) IsConfigured() bool {
	return m.botToken != ""
}

// Configure builds the messenger notification service.
func (m *Messenger) Configure() (messenger.Service, error) {
	svc, err := messenger.New(types.Secret(m.botToken), m.defaultChannel)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize messenger client")
	}
	return svc, nil
}
