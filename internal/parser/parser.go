// Package parser turns C source text into the declaration tree of package
// model, using the tree-sitter C grammar.
//
// Source is expected to be preprocessed already; line markers left by the
// preprocessor are used to attribute every declaration to the file it came
// from. Unpreprocessed source is accepted too: include guards are looked
// through, the C++ branches of "#ifdef __cplusplus" blocks are blanked and
// other conditional blocks are dropped.
package parser

import (
	"context"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"gopxd/internal/model"
)

// Parser parses C source into declaration trees. A Parser is not safe for
// concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new Parser.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source as the unit called name. Top-level items that fail to
// parse or use unsupported constructs are reported in File.Invalid rather
// than as an error, so callers can decide whether they matter.
func (p *Parser) Parse(ctx context.Context, source []byte, name string) (*model.File, error) {
	cleaned, lines := scanLinemarkers(stripCPlusPlus(source), name)

	tree, err := p.parser.ParseCtx(ctx, nil, cleaned)
	if err != nil {
		return nil, &ParseError{File: name, Message: err.Error()}
	}
	defer tree.Close()

	conv := &converter{src: cleaned, lines: lines}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		conv.item(root.NamedChild(i))
	}

	return &model.File{
		Path:    name,
		Decls:   conv.decls,
		Invalid: conv.invalid,
	}, nil
}

// ParseFile parses a file from disk, naming the unit after its base name.
func (p *Parser) ParseFile(ctx context.Context, path string) (*model.File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return p.Parse(ctx, source, filepath.Base(path))
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}
