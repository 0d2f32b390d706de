// Package logging sets up the slog logger carried in the context.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
)

// Setup installs a tint handler writing to w as the default logger and
// returns ctx carrying it. verbose lowers the level to debug.
func Setup(ctx context.Context, w io.Writer, verbose, color bool) context.Context {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	tintHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !color,
	})

	ctxHandler := slogctx.NewHandler(tintHandler, nil)

	logger := slog.New(ctxHandler)
	slog.SetDefault(logger)

	return slogctx.NewCtx(ctx, logger)
}
