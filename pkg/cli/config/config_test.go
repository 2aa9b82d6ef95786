package config_test

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// applyFlag parses one flag value into a config bundle the same way the
// real CLI does.
func applyFlag(t *testing.T, cfg interface{ Flags() []cli.Flag }, name, value string) error {
	t.Helper()

	cmd := &cli.Command{
		Name:  "test",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}
	return cmd.Run(context.Background(), []string{"test", "--" + name, value})
}
