// Package pxd models Cython declaration fragments and renders them as text.
package pxd

import (
	"strconv"
	"strings"
)

// Indent is the per-level indentation unit.
const Indent = "    "

// Node is a renderable declaration fragment.
type Node interface {
	Lines() []string
}

// Statement is the keyword that opens a top-level block.
type Statement string

const (
	Cdef     Statement = "cdef"
	Ctypedef Statement = "ctypedef"
)

// Kind is the aggregate keyword of a Block.
type Kind string

const (
	Struct Kind = "struct"
	Union  Kind = "union"
)

// NamedType is a plain "type name" declaration. Name may be empty.
type NamedType struct {
	Name string
	Type string
}

// Pointer adds one level of indirection to Inner.
type Pointer struct {
	Inner Node
}

// Dim is one array extent. An unknown extent renders as [].
type Dim struct {
	Size  int
	Known bool
}

// Array appends one or more extents to the declared name of Inner.
type Array struct {
	Inner Node
	Dims  []Dim
}

// Function is a function signature.
type Function struct {
	Return   string
	Name     string
	Params   []Node
	Variadic bool
}

// Block is a struct or union definition.
type Block struct {
	Name      string
	Kind      Kind
	Fields    []Node
	Statement Statement
}

// Enum is an enum definition. An empty Name renders an anonymous enum.
type Enum struct {
	Name      string
	Items     []string
	Statement Statement
}

// Alias turns Inner into a ctypedef.
type Alias struct {
	Inner Node
}

func (n NamedType) Lines() []string { return []string{Declaration(n)} }
func (n Pointer) Lines() []string   { return []string{Declaration(n)} }
func (n Array) Lines() []string     { return []string{Declaration(n)} }
func (n Function) Lines() []string  { return []string{Declaration(n)} }

func (n Block) Lines() []string {
	lines := []string{string(n.Statement) + " " + string(n.Kind) + " " + n.Name + ":"}
	for _, f := range n.Fields {
		for _, l := range f.Lines() {
			lines = append(lines, Indent+l)
		}
	}
	return lines
}

func (n Enum) Lines() []string {
	var lines []string
	if n.Name != "" {
		lines = append(lines, string(n.Statement)+" enum "+n.Name+":")
	} else {
		lines = append(lines, "cdef enum:")
	}
	for _, item := range n.Items {
		lines = append(lines, Indent+item)
	}
	return lines
}

func (n Alias) Lines() []string {
	lines := n.Inner.Lines()
	lines[0] = string(Ctypedef) + " " + lines[0]
	return lines
}

func (d Dim) String() string {
	if !d.Known {
		return ""
	}
	return strconv.Itoa(d.Size)
}

// NameOf returns the declared name of a declarator node.
func NameOf(n Node) string {
	switch n := n.(type) {
	case NamedType:
		return n.Name
	case Pointer:
		return NameOf(n.Inner)
	case Array:
		return NameOf(n.Inner)
	case Function:
		return n.Name
	case Block:
		return n.Name
	case Enum:
		return n.Name
	case Alias:
		return NameOf(n.Inner)
	}
	return ""
}

// Declaration renders a declarator node on a single line, e.g.
// "char* name", "int grid[4][4]" or "void (*cb)(int)".
func Declaration(n Node) string {
	return join(declare(n, NameOf(n)))
}

// TypeText renders the type of a declarator node with its name omitted.
func TypeText(n Node) string {
	return join(declare(n, ""))
}

// declare wraps the declarator text d in the modifiers of n, outermost
// first, and returns the base type together with the finished declarator.
func declare(n Node, d string) (string, string) {
	switch n := n.(type) {
	case NamedType:
		return n.Type, d
	case Pointer:
		return declare(n.Inner, "*"+d)
	case Array:
		var b strings.Builder
		b.WriteString(group(d))
		for _, dim := range n.Dims {
			b.WriteString("[" + dim.String() + "]")
		}
		return declare(n.Inner, b.String())
	case Function:
		return n.Return, group(d) + "(" + params(n) + ")"
	}
	lines := n.Lines()
	return lines[0], d
}

// group parenthesizes a pointer declarator before a postfix modifier.
func group(d string) string {
	if strings.HasPrefix(d, "*") {
		return "(" + d + ")"
	}
	return d
}

// join moves leading stars onto the type when no parentheses are involved,
// so "int", "**p" renders as "int** p".
func join(base, d string) string {
	if !strings.HasPrefix(d, "(") {
		stars := len(d) - len(strings.TrimLeft(d, "*"))
		base += d[:stars]
		d = d[stars:]
	}
	if d == "" {
		return base
	}
	return base + " " + d
}

func params(f Function) string {
	args := make([]string, 0, len(f.Params)+1)
	for _, p := range f.Params {
		args = append(args, Declaration(p))
	}
	if f.Variadic {
		args = append(args, "...")
	}
	return strings.Join(args, ", ")
}
