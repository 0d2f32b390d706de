package generator

import (
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"

	"gopxd/internal/pxd"
)

// Emit writes the .pxd text for a resolved unit declared by header.
func Emit(w io.Writer, header string, res *Result) error {
	var b strings.Builder
	if len(res.Stdint) > 0 {
		b.WriteString("from libc.stdint cimport " + strings.Join(res.Stdint, ", ") + "\n\n")
	}

	lines := []string{`cdef extern from "` + header + `":`, ""}
	for _, decl := range res.Decls {
		for _, line := range decl.Lines() {
			lines = append(lines, pxd.Indent+line)
		}
		lines = append(lines, "")
	}
	b.WriteString(strings.Join(lines, "\n"))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}
