package types_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

func TestSecretNeverPrinted(t *testing.T) {
	secret := types.Secret("super-secret-token")

	gt.String(t, secret.String()).Equal("[REDACTED]")
	gt.String(t, secret.Unveil()).Equal("super-secret-token")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("test", "token", secret)

	gt.Bool(t, strings.Contains(buf.String(), "super-secret-token")).False()
}

func TestMappingSourceValidate(t *testing.T) {
	gt.NoError(t, types.SourceSynced.Validate())
	gt.NoError(t, types.SourceLearned.Validate())
	gt.Value(t, types.MappingSource("guessed").Validate()).NotNil()
}
