package parser

import (
	"bytes"
	"regexp"
	"sort"
	"strconv"
)

// linemarker matches preprocessor line markers such as
//
//	# 12 "include/foo.h" 2
//	#line 12 "foo.h"
var linemarker = regexp.MustCompile(`^#\s*(?:line\s+)?(\d+)\s+"((?:[^"\\]|\\.)*)"`)

// stdinName is how cpp reports source read from standard input.
const stdinName = "<stdin>"

type mark struct {
	row  int    // first source row the marker applies to
	file string // file named by the marker
	line int    // line number of row within file
}

// lineMap maps rows of preprocessed text back to the files they came from.
type lineMap struct {
	name  string
	marks []mark
}

// scanLinemarkers blanks out line markers in src, keeping the row count
// intact, and records where each marked region starts.
func scanLinemarkers(src []byte, name string) ([]byte, *lineMap) {
	lm := &lineMap{name: name}
	lines := bytes.Split(src, []byte("\n"))
	for row, line := range lines {
		m := linemarker.FindSubmatch(bytes.TrimLeft(line, " \t"))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		file := string(m[2])
		if unq, err := strconv.Unquote(`"` + file + `"`); err == nil {
			file = unq
		}
		if file == stdinName {
			file = name
		}
		lm.marks = append(lm.marks, mark{row: row + 1, file: file, line: n})
		lines[row] = nil
	}
	return bytes.Join(lines, []byte("\n")), lm
}

// locate returns the file and 1-based line of a 0-based row.
func (lm *lineMap) locate(row int) (string, int) {
	i := sort.Search(len(lm.marks), func(i int) bool { return lm.marks[i].row > row })
	if i == 0 {
		return lm.name, row + 1
	}
	m := lm.marks[i-1]
	return m.file, m.line + row - m.row
}
