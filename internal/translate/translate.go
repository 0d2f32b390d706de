// Package translate runs the header to .pxd pipeline: preprocess, parse,
// filter, resolve and emit.
package translate

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/k0kubun/pp/v3"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"gopxd/internal/config"
	"gopxd/internal/cpp"
	"gopxd/internal/generator"
	"gopxd/internal/model"
	"gopxd/internal/parser"
)

// Translator turns headers into .pxd text. Runs share no state, so one
// Translator may serve several goroutines.
type Translator struct {
	config *config.Config
	cpp    *cpp.Preprocessor

	// DumpAST, when set, receives a dump of every filtered unit.
	DumpAST io.Writer
	dumpMu  sync.Mutex
}

// New creates a Translator. defines are passed to the preprocessor as -D
// flags.
func New(cfg *config.Config, defines []string) *Translator {
	return &Translator{
		config: cfg,
		cpp: &cpp.Preprocessor{
			Command:     cfg.Options.CPP,
			Args:        cfg.Options.CPPArgs,
			IncludeDirs: cfg.Options.IncludeDirs,
			Defines:     defines,
		},
	}
}

// Translate writes the .pxd text for source, the content of header, to w.
// Nothing is written on failure.
func (t *Translator) Translate(ctx context.Context, header string, source []byte, w io.Writer) error {
	ctx = slogctx.With(ctx, "run", uuid.NewString(), "header", header)

	if !t.config.Options.NoCPP {
		out, err := t.cpp.Run(ctx, header, source)
		if err != nil {
			return err
		}
		slogctx.Debug(ctx, "preprocessed", "in", humanize.Bytes(uint64(len(source))), "out", humanize.Bytes(uint64(len(out))))
		source = out
	}

	p := parser.New()
	defer p.Close()

	file, err := p.Parse(ctx, source, header)
	if err != nil {
		return err
	}

	cfg := t.config.ForHeader(header)
	gen := generator.New(cfg)

	if bad := gen.Rejected(file); len(bad) > 0 {
		c := bad[0].Coord
		return &parser.ParseError{Message: bad[0].Message, File: c.File, Line: c.Line, Column: c.Column}
	}

	kept := gen.Filter(file.Decls)
	slogctx.Debug(ctx, "parsed", "declarations", len(file.Decls), "kept", len(kept))

	if t.DumpAST != nil {
		if err := t.dump(&model.File{Path: file.Path, Decls: kept}); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := gen.Generate(&model.File{Path: file.Path, Decls: kept}, header, &buf); err != nil {
		return errors.Errorf("translating %s: %w", header, err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	slogctx.Info(ctx, "translated", "size", humanize.Bytes(uint64(buf.Len())))
	return nil
}

// TranslateFile reads header from disk and translates it to w.
func (t *Translator) TranslateFile(ctx context.Context, header string, w io.Writer) error {
	source, err := os.ReadFile(header)
	if err != nil {
		return &parser.FileReadError{Path: header, Err: err}
	}
	return t.Translate(ctx, header, source, w)
}

// Batch translates every header into its own .pxd file, running up to jobs
// translations at once. The first failure cancels the rest.
func (t *Translator) Batch(ctx context.Context, headers []string, outDir string, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for _, header := range headers {
		header := header
		g.Go(func() error {
			var buf bytes.Buffer
			if err := t.TranslateFile(ctx, header, &buf); err != nil {
				return err
			}
			out := OutputPath(header, outDir)
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return errors.Errorf("writing %s: %w", out, err)
			}
			slogctx.Debug(ctx, "wrote output", "path", out)
			return nil
		})
	}

	return g.Wait()
}

// OutputPath returns where the .pxd for header goes: next to the header, or
// in outDir when one is given.
func OutputPath(header, outDir string) string {
	base := filepath.Base(header)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".pxd"
	if outDir == "" {
		return filepath.Join(filepath.Dir(header), name)
	}
	return filepath.Join(outDir, name)
}

func (t *Translator) dump(file *model.File) error {
	t.dumpMu.Lock()
	defer t.dumpMu.Unlock()

	printer := pp.New()
	printer.SetColoringEnabled(false)
	printer.SetExportedOnly(true)
	if _, err := printer.Fprintln(t.DumpAST, file); err != nil {
		return errors.Errorf("dumping declarations: %w", err)
	}
	return nil
}
