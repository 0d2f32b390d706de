// Package generator resolves C declaration trees into Cython .pxd
// declarations and writes them out.
package generator

import (
	"io"

	"gopxd/internal/config"
	"gopxd/internal/model"
)

// Generator filters and translates parsed units.
type Generator struct {
	config *config.Config
}

// New creates a new Generator.
func New(cfg *config.Config) *Generator {
	return &Generator{
		config: cfg,
	}
}

// Generate writes the .pxd text for file, declared as coming from header.
// Nothing is written when resolution fails.
func (g *Generator) Generate(file *model.File, header string, w io.Writer) error {
	res, err := Resolve(g.Filter(file.Decls))
	if err != nil {
		return err
	}
	return Emit(w, header, res)
}

// Filter returns the top-level declarations that take part in the
// translation, keeping their order.
func (g *Generator) Filter(decls []*model.Node) []*model.Node {
	var result []*model.Node

	for _, d := range decls {
		if g.config.ShouldIncludeDecl(d.Name, d.Coord.File) {
			result = append(result, d)
		}
	}

	return result
}

// Rejected returns the invalid items of file that fall inside the whitelist.
func (g *Generator) Rejected(file *model.File) []model.Issue {
	var result []model.Issue

	for _, issue := range file.Invalid {
		if g.config.ShouldIncludeDecl("", issue.Coord.File) {
			result = append(result, issue)
		}
	}

	return result
}
