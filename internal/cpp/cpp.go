// Package cpp runs the C preprocessor over header source.
package cpp

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrPreprocess is returned when the preprocessor exits unsuccessfully.
var ErrPreprocess = errors.Base("invoking C preprocessor failed")

// Preprocessor describes how to invoke the C preprocessor.
type Preprocessor struct {
	Command     string   // Executable, looked up in PATH
	Args        []string // Extra arguments, passed before the include flags
	IncludeDirs []string // Searched after the header's own directory
	Defines     []string // NAME or NAME=VALUE
}

// Arguments returns the command line used for header. Source is always read
// from standard input so that the main file is reported as <stdin>.
func (p *Preprocessor) Arguments(header string) []string {
	args := append([]string{}, p.Args...)
	if header != "" {
		args = append(args, "-I", filepath.Dir(header))
	}
	for _, dir := range p.IncludeDirs {
		args = append(args, "-I", dir)
	}
	for _, def := range p.Defines {
		args = append(args, "-D"+def)
	}
	return append(args, "-")
}

// Run preprocesses source, the content of header, and returns the output
// with its line markers.
func (p *Preprocessor) Run(ctx context.Context, header string, source []byte) ([]byte, error) {
	command := p.Command
	if command == "" {
		command = "cpp"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, p.Arguments(header)...)
	cmd.Stdin = bytes.NewReader(source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Errorf("%w: %s: %s", ErrPreprocess, header, msg)
	}
	return stdout.Bytes(), nil
}
