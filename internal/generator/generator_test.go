package generator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"gopxd/internal/config"
	"gopxd/internal/model"
)

func at(file string, n *model.Node) *model.Node {
	n.Coord = model.Coord{File: file, Line: 1, Column: 1}
	return n
}

func TestGeneratorFilter(t *testing.T) {
	cfg := config.New()
	cfg.Options.Whitelist = []string{"main.h"}
	g := New(cfg)

	decls := []*model.Node{
		at("main.h", field("kept", "int")),
		at("other.h", field("foreign", "int")),
		at("main.h", typedef("size_t", typeDecl("size_t", ident("unsigned", "long")))),
		at("main.h", field("also_kept", "char")),
	}

	var names []string
	for _, d := range g.Filter(decls) {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"kept", "also_kept"}, names)
}

func TestGeneratorRejected(t *testing.T) {
	cfg := config.New()
	cfg.Options.Whitelist = []string{"main.h"}
	g := New(cfg)

	file := &model.File{Invalid: []model.Issue{
		{Coord: model.Coord{File: "system.h", Line: 4}, Message: "syntax error"},
		{Coord: model.Coord{File: "main.h", Line: 9}, Message: "syntax error"},
	}}
	assert.Equal(t, []model.Issue{
		{Coord: model.Coord{File: "main.h", Line: 9}, Message: "syntax error"},
	}, g.Rejected(file))
}

func TestGeneratorGenerate(t *testing.T) {
	g := New(config.New())
	file := &model.File{Decls: []*model.Node{field("x", "int"), field("y", "uint8_t")}}

	var buf bytes.Buffer
	require.NoError(t, g.Generate(file, "inc/point.h", &buf))
	assert.Equal(t, `from libc.stdint cimport uint8_t

cdef extern from "inc/point.h":

    int x

    uint8_t y
`, buf.String())
}

func TestGeneratorGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(config.New()).Generate(&model.File{}, "empty.h", &buf))
	assert.Equal(t, "cdef extern from \"empty.h\":\n", buf.String())
}

func TestGeneratorGenerateWritesNothingOnError(t *testing.T) {
	file := &model.File{Decls: []*model.Node{field("x", "int"), {Kind: "Bogus"}}}

	var buf bytes.Buffer
	require.Error(t, New(config.New()).Generate(file, "bad.h", &buf))
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEmitWriteError(t *testing.T) {
	err := Emit(failingWriter{}, "x.h", &Result{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
