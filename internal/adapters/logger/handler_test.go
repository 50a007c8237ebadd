package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/ripple/internal/adapters/logger"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{name: "info", level: slog.LevelInfo, msg: "information message", goldenName: "handler_info"},
		{name: "warn", level: slog.LevelWarn, msg: "warning message", goldenName: "handler_warn"},
		{name: "error", level: slog.LevelError, msg: "error message", goldenName: "handler_error"},
		{name: "debug filtered", level: slog.LevelDebug, msg: "debug message", goldenName: "handler_debug_filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name  string
		build func(h slog.Handler) slog.Handler
		args  []any
		want  string
	}{
		{
			name:  "record attrs",
			build: func(h slog.Handler) slog.Handler { return h },
			args:  []any{"unit", "core", "count", 2},
			want:  "msg unit=core count=2\n",
		},
		{
			name: "handler attrs come first",
			build: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("cmd", "plan")})
			},
			args: []any{"unit", "core"},
			want: "msg cmd=plan unit=core\n",
		},
		{
			name: "nested groups",
			build: func(h slog.Handler) slog.Handler {
				return h.WithGroup("a").WithGroup("b")
			},
			args: []any{"k", "v"},
			want: "msg a.b.k=v\n",
		},
		{
			name:  "group attribute",
			build: func(h slog.Handler) slog.Handler { return h },
			args:  []any{slog.Group("g", slog.String("k", "v"), slog.Int("n", 1))},
			want:  "msg g.k=v g.n=1\n",
		},
		{
			name: "attrs keep the group they were added under",
			build: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("x", "1")}).WithGroup("g")
			},
			args: []any{"y", "2"},
			want: "msg x=1 g.y=2\n",
		},
		{
			name:  "empty group name is ignored",
			build: func(h slog.Handler) slog.Handler { return h.WithGroup("") },
			args:  []any{"k", "v"},
			want:  "msg k=v\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(tt.build(logger.NewPrettyHandler(buf, nil)))
			lg.Info("msg", tt.args...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}
