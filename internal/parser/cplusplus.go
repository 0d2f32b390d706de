package parser

import (
	"bytes"
	"regexp"
)

var (
	cplusplusIf  = regexp.MustCompile(`^#\s*(?:ifdef\s+__cplusplus\b|if\s+defined\s*\(?\s*__cplusplus\b)`)
	directiveIf  = regexp.MustCompile(`^#\s*if`)
	directiveEl  = regexp.MustCompile(`^#\s*(?:else|elif)\b`)
	directiveEnd = regexp.MustCompile(`^#\s*endif\b`)
)

// stripCPlusPlus blanks the C++-only branches of "#ifdef __cplusplus" blocks
// in unpreprocessed source, together with their directives, keeping any #else
// branch and the row count intact.
func stripCPlusPlus(src []byte) []byte {
	if !bytes.Contains(src, []byte("__cplusplus")) {
		return src
	}

	lines := bytes.Split(src, []byte("\n"))

	// Each open conditional records whether it is a __cplusplus block.
	var open []bool
	skipping := 0 // depth of the innermost C++ branch being blanked, 0 when none

	for row, line := range lines {
		trimmed := bytes.TrimLeft(line, " \t")
		switch {
		case cplusplusIf.Match(trimmed):
			open = append(open, true)
			if skipping == 0 {
				skipping = len(open)
			}
			lines[row] = nil
			continue
		case directiveIf.Match(trimmed):
			open = append(open, false)
		case directiveEl.Match(trimmed) && len(open) > 0 && open[len(open)-1]:
			if skipping == len(open) {
				skipping = 0
			}
			lines[row] = nil
			continue
		case directiveEnd.Match(trimmed) && len(open) > 0:
			top := open[len(open)-1]
			if skipping == len(open) {
				skipping = 0
			}
			open = open[:len(open)-1]
			if top {
				lines[row] = nil
				continue
			}
		}
		if skipping > 0 {
			lines[row] = nil
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
