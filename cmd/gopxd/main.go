// gopxd translates C headers into Cython .pxd declaration files.
package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"gopxd/internal/config"
	"gopxd/internal/logging"
	"gopxd/internal/translate"
)

var (
	configFile  string
	includeDirs []string
	defines     []string
	whitelist   []string
	ignore      string
	noCPP       bool
	cppCommand  string
	outputFile  string
	outDir      string
	jobs        int
	dumpAST     bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "gopxd [flags] HEADER...",
	Short: "Translate C headers into Cython .pxd files",
	Long: `gopxd reads C headers, runs them through the C preprocessor and writes the
matching Cython "cdef extern from" declarations.

With a single header the result goes to stdout or --output. With several
headers, or with --out-dir, every header gets its own <name>.pxd.

Only declarations from the header itself are kept unless --whitelist names
the files to take declarations from.

Examples:
  gopxd foo.h > foo.pxd
  gopxd -I include -D FOO_API= include/foo.h -o foo.pxd
  gopxd --out-dir pxd -j 4 include/*.h
  gopxd --no-cpp --dump-ast foo.h`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (YAML/JSON)")
	flags.StringSliceVarP(&includeDirs, "include-dir", "I", nil, "Add an include directory for the preprocessor")
	flags.StringSliceVarP(&defines, "define", "D", nil, "Define a preprocessor macro (NAME or NAME=VALUE)")
	flags.StringSliceVarP(&whitelist, "whitelist", "w", nil, "Only translate declarations from these files (default: the input header)")
	flags.StringVar(&ignore, "ignore", "", "Also ignore these top-level names (comma-separated)")
	flags.BoolVar(&noCPP, "no-cpp", false, "Parse the header without preprocessing it")
	flags.StringVar(&cppCommand, "cpp", "", "Preprocessor command (default: cpp)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file for a single header (default: stdout)")
	flags.StringVar(&outDir, "out-dir", "", "Write <name>.pxd files into this directory")
	flags.IntVarP(&jobs, "jobs", "j", 0, "Headers translated at once (default: config or unlimited)")
	flags.BoolVar(&dumpAST, "dump-ast", false, "Dump the filtered declaration tree to stderr")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func main() {
	ctx := logging.Setup(context.Background(), os.Stderr, false, isatty.IsTerminal(os.Stderr.Fd()))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := logging.Setup(cmd.Context(), os.Stderr, verbose, isatty.IsTerminal(os.Stderr.Fd()))

	// Load configuration
	cfg := config.New()
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return errors.Errorf("loading config: %w", err)
		}
	}

	// Apply CLI overrides
	if noCPP {
		cfg.Options.NoCPP = true
	}
	if cppCommand != "" {
		cfg.Options.CPP = cppCommand
	}
	cfg.Options.IncludeDirs = append(cfg.Options.IncludeDirs, includeDirs...)
	if len(whitelist) > 0 {
		cfg.Options.Whitelist = whitelist
	}
	if ignore != "" {
		cfg.AddIgnore(parseCommaSeparated(ignore)...)
	}
	if jobs > 0 {
		cfg.Options.Jobs = jobs
	}

	t := translate.New(cfg, defines)
	if dumpAST {
		t.DumpAST = os.Stderr
	}

	if len(args) > 1 || outDir != "" {
		if outputFile != "" {
			return errors.New("--output takes a single header; use --out-dir for several")
		}
		return t.Batch(ctx, args, outDir, cfg.Options.Jobs)
	}

	return writeSingle(ctx, t, args[0], outputFile, os.Stdout)
}

// writeSingle translates header to outputFile, or to stdout when no file is
// given. The file is only created once translation has succeeded.
func writeSingle(ctx context.Context, t *translate.Translator, header, outputFile string, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := t.TranslateFile(ctx, header, &buf); err != nil {
		return err
	}

	if outputFile == "" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return errors.Errorf("writing output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(outputFile, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing output file: %w", err)
	}
	return nil
}

// parseCommaSeparated splits a comma-separated string into a slice of trimmed strings.
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
