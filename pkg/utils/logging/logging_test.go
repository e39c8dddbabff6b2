package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

func TestFromFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	orig := logging.Default()
	logging.SetDefault(logger)
	t.Cleanup(func() { logging.SetDefault(orig) })

	gt.Value(t, logging.From(context.Background())).Equal(logger)
}

func TestWithStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "slack_id", "U123")

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record)).Required()
	gt.Value(t, record["msg"]).Equal("hello")
	gt.Value(t, record["slack_id"]).Equal("U123")
}

func TestSecretsAreMasked(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	type credential struct {
		Username string
		Password string
	}
	logger.Info("login", "cred", credential{Username: "checkerboard", Password: "hunter2"})

	gt.String(t, buf.String()).Contains("checkerboard")
	gt.Bool(t, strings.Contains(buf.String(), "hunter2")).False()
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)

	logger.Info("dropped")
	gt.Number(t, buf.Len()).Equal(0)

	logger.Warn("kept")
	gt.Bool(t, buf.Len() > 0).True()
}
