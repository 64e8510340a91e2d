package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	level   slog.Level
	err     error
	handled int
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, _ slog.Record) error {
	h.handled++
	return h.err
}

func (h *recordingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(_ string) slog.Handler      { return h }

func TestMultiHandlerRoutesByLevel(t *testing.T) {
	info := &recordingHandler{level: slog.LevelInfo}
	errOnly := &recordingHandler{level: slog.LevelError}
	m := NewMultiHandler(info, errOnly)
	ctx := context.Background()

	require.True(t, m.Enabled(ctx, slog.LevelInfo))

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "presence connected", 0)
	require.NoError(t, m.Handle(ctx, record))
	assert.Equal(t, 1, info.handled)
	assert.Zero(t, errOnly.handled)

	record = slog.NewRecord(time.Now(), slog.LevelError, "location persistence failed", 0)
	require.NoError(t, m.Handle(ctx, record))
	assert.Equal(t, 2, info.handled)
	assert.Equal(t, 1, errOnly.handled)
}

func TestMultiHandlerFailingSinkDoesNotStarveOthers(t *testing.T) {
	broken := &recordingHandler{level: slog.LevelInfo, err: errors.New("db unavailable")}
	healthy := &recordingHandler{level: slog.LevelInfo}
	m := NewMultiHandler(broken, healthy)

	record := slog.NewRecord(time.Now(), slog.LevelError, "sos fan-out failed", 0)
	err := m.Handle(context.Background(), record)

	assert.Error(t, err)
	assert.Equal(t, 1, healthy.handled)
}
