package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"gopxd/internal/model"
)

// converter builds model nodes from a tree-sitter concrete syntax tree.
type converter struct {
	src     []byte
	lines   *lineMap
	decls   []*model.Node
	invalid []model.Issue
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) coord(n *sitter.Node) model.Coord {
	p := n.StartPoint()
	file, line := c.lines.locate(int(p.Row))
	return model.Coord{File: file, Line: line, Column: int(p.Column) + 1}
}

// item converts one top-level item. Items that fail to parse or convert
// are recorded as issues; whether they matter depends on the file they come
// from.
func (c *converter) item(n *sitter.Node) {
	switch n.Type() {
	case "preproc_ifdef", "preproc_if":
		c.conditional(n)
		return
	}

	if n.Type() == "ERROR" || n.HasError() {
		c.invalid = append(c.invalid, model.Issue{Coord: c.coord(firstError(n)), Message: "syntax error"})
		return
	}

	switch n.Type() {
	case "declaration", "type_definition", "struct_specifier", "union_specifier", "enum_specifier":
	default:
		// Function bodies, directives, comments and stray statements carry
		// no declarations.
		return
	}

	var (
		decls []*model.Node
		err   error
	)
	switch n.Type() {
	case "declaration":
		decls, err = c.declaration(n, model.KindDecl)
	case "type_definition":
		decls, err = c.declaration(n, model.KindTypedef)
	default:
		// struct foo { ... };
		var base *model.Node
		base, err = c.typeSpecifier(n)
		decls = []*model.Node{{Kind: model.KindDecl, Type: base}}
	}

	coord := c.coord(n)
	if err != nil {
		c.invalid = append(c.invalid, model.Issue{Coord: coord, Message: err.Error()})
		return
	}

	for _, d := range decls {
		d.Coord = coord
	}
	c.decls = append(c.decls, decls...)
}

// conditional handles #if/#ifdef/#ifndef blocks, which only survive in
// unpreprocessed input. An #ifndef is taken to be an include guard and its
// body is converted. Every other branch is dropped.
func (c *converter) conditional(n *sitter.Node) {
	if n.Type() != "preproc_ifdef" || n.ChildByFieldName("name") == nil {
		return
	}
	if n.Child(0).Type() != "#ifndef" {
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.FieldNameForChild(i) {
		case "name", "alternative":
			continue
		}
		if ch := n.Child(i); ch.IsNamed() {
			c.item(ch)
		}
	}
}

// declaration converts a declaration, type definition or field declaration
// into one node of the given kind per declarator.
func (c *converter) declaration(n *sitter.Node, kind model.Kind) ([]*model.Node, error) {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return nil, errors.Errorf("%w: declaration without a type", ErrUnsupported)
	}
	base, err := c.typeSpecifier(typ)
	if err != nil {
		return nil, err
	}

	var out []*model.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" || n.Child(i).Type() == "gnu_asm_expression" {
			continue
		}
		b := base
		if len(out) > 0 {
			// struct foo { ... } a, b; defines foo once.
			b = reference(base, out[0])
		}
		chain, name, err := c.declarator(n.Child(i), b)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.Node{Kind: kind, Name: name, Type: chain})
	}
	if len(out) == 0 {
		out = append(out, &model.Node{Kind: kind, Type: base})
	}
	return out, nil
}

// reference returns a body-less stand-in for an aggregate or enum defined
// by the first declarator of a declaration: its tag when it has one, or the
// typedef name when first names the anonymous definition directly.
func reference(base, first *model.Node) *model.Node {
	switch base.Kind {
	case model.KindStruct, model.KindUnion, model.KindEnum:
	default:
		return base
	}
	if !base.HasBody() {
		return base
	}
	if base.Name != "" {
		return &model.Node{Kind: base.Kind, Name: base.Name}
	}
	// typedef struct { ... } A, *PA;
	if first.Kind == model.KindTypedef && first.Type.Kind == model.KindTypeDecl {
		return &model.Node{Kind: model.KindIdentifierType, Names: []string{first.Name}}
	}
	return base
}

func (c *converter) typeSpecifier(n *sitter.Node) (*model.Node, error) {
	switch n.Type() {
	case "primitive_type", "type_identifier", "sized_type_specifier", "macro_type_specifier":
		return &model.Node{Kind: model.KindIdentifierType, Names: strings.Fields(c.text(n))}, nil
	case "struct_specifier":
		return c.aggregate(n, model.KindStruct)
	case "union_specifier":
		return c.aggregate(n, model.KindUnion)
	case "enum_specifier":
		return c.enum(n), nil
	}
	return nil, errors.Errorf("%w: type specifier %s", ErrUnsupported, n.Type())
}

func (c *converter) aggregate(n *sitter.Node, kind model.Kind) (*model.Node, error) {
	node := &model.Node{Kind: kind}
	if name := n.ChildByFieldName("name"); name != nil {
		node.Name = c.text(name)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return node, nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		decls, err := c.declaration(field, model.KindDecl)
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, decls...)
	}
	return node, nil
}

func (c *converter) enum(n *sitter.Node) *model.Node {
	node := &model.Node{Kind: model.KindEnum}
	if name := n.ChildByFieldName("name"); name != nil {
		node.Name = c.text(name)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return node
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		if item.Type() != "enumerator" {
			continue
		}
		name := item.ChildByFieldName("name")
		if name == nil {
			continue
		}
		node.Enumerators = append(node.Enumerators, model.Enumerator{
			Name:  c.text(name),
			Value: c.expr(item.ChildByFieldName("value")),
		})
	}
	return node
}

func (c *converter) expr(n *sitter.Node) *model.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "number_literal":
		return &model.Expr{Kind: model.ExprLiteral, Text: c.text(n)}
	case "identifier":
		return &model.Expr{Kind: model.ExprIdentifier, Text: c.text(n)}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return c.expr(n.NamedChild(0))
		}
	}
	return &model.Expr{Kind: model.ExprOther, Text: c.text(n)}
}

// declarator converts a tree-sitter declarator into a declarator chain over
// base and returns the chain with its declared name.
//
// tree-sitter nests declarators the way they are written: in "*a[3]" the
// pointer wraps the array. The chain nests them the way they apply to the
// type, so walking the written form from the outside in and wrapping the
// chain built so far yields array-of-pointer here.
func (c *converter) declarator(d *sitter.Node, base *model.Node) (*model.Node, string, error) {
	td := &model.Node{Kind: model.KindTypeDecl, Type: base}
	head := td

	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			td.Name = c.text(d)
			return head, td.Name, nil
		case "pointer_declarator", "abstract_pointer_declarator":
			head = &model.Node{Kind: model.KindPtrDecl, Type: head}
		case "array_declarator", "abstract_array_declarator":
			head = &model.Node{Kind: model.KindArrayDecl, Type: head, Dim: c.expr(d.ChildByFieldName("size"))}
		case "function_declarator", "abstract_function_declarator":
			params, variadic, err := c.parameters(d.ChildByFieldName("parameters"))
			if err != nil {
				return nil, "", err
			}
			head = &model.Node{Kind: model.KindFuncDecl, Type: head, Params: params, Variadic: variadic}
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			d = innerDeclarator(d)
			continue
		case "init_declarator":
		default:
			return nil, "", errors.Errorf("%w: declarator %s", ErrUnsupported, d.Type())
		}
		d = d.ChildByFieldName("declarator")
	}
	return head, "", nil
}

func (c *converter) parameters(list *sitter.Node) ([]*model.Node, bool, error) {
	if list == nil {
		return nil, false, nil
	}
	var (
		params   []*model.Node
		variadic bool
	)
	for i := 0; i < int(list.ChildCount()); i++ {
		p := list.Child(i)
		switch p.Type() {
		case "parameter_declaration":
			typ := p.ChildByFieldName("type")
			if typ == nil {
				return nil, false, errors.Errorf("%w: parameter without a type", ErrUnsupported)
			}
			base, err := c.typeSpecifier(typ)
			if err != nil {
				return nil, false, err
			}
			chain, name, err := c.declarator(p.ChildByFieldName("declarator"), base)
			if err != nil {
				return nil, false, err
			}
			params = append(params, &model.Node{Kind: model.KindDecl, Name: name, Type: chain})
		case "variadic_parameter", "...":
			variadic = true
		}
	}
	return params, variadic, nil
}

// innerDeclarator returns the declarator inside parentheses or attributes.
func innerDeclarator(d *sitter.Node) *sitter.Node {
	for i := 0; i < int(d.NamedChildCount()); i++ {
		ch := d.NamedChild(i)
		switch ch.Type() {
		case "comment", "attribute_specifier", "attribute_declaration", "ms_call_modifier", "type_qualifier", "gnu_asm_expression":
			continue
		}
		return ch
	}
	return nil
}

// firstError returns the first ERROR or missing node below n, or n itself.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.HasError() || ch.IsMissing() {
			return firstError(ch)
		}
	}
	return n
}
