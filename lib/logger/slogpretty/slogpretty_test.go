package slogpretty

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerKeepsInheritedAttrs(t *testing.T) {
	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.With(slog.String("op", "service.session.start")).
		With(slog.String("class_id", "class-1")).
		Info("session started", sl.Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "session started")
	assert.Contains(t, out, `"op": "service.session.start"`)
	assert.Contains(t, out, `"class_id": "class-1"`)
	assert.Contains(t, out, `"error": "boom"`)
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestPrettyHandlerNestsGroups(t *testing.T) {
	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.With(slog.String("op", "realtime.publish")).
		WithGroup("event").
		With(slog.String("type", "mute-all")).
		Info("event published", slog.Int("recipients", 3), slog.Group("session", slog.String("id", "s-1")))

	out := buf.String()
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0, out)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &fields))
	assert.Equal(t, "realtime.publish", fields["op"])
	assert.Equal(t, map[string]any{
		"type":       "mute-all",
		"recipients": float64(3),
		"session":    map[string]any{"id": "s-1"},
	}, fields["event"])
}
