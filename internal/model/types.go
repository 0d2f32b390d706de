// Package model defines the declaration tree the generator consumes.
//
// The tree follows the usual shape of a C declaration AST: a Decl or Typedef
// at the top, a chain of PtrDecl/ArrayDecl/FuncDecl wrappers, then a TypeDecl
// carrying the declared name above the base type.
package model

// Kind represents the category of a declaration node.
type Kind string

const (
	KindIdentifierType Kind = "IdentifierType"
	KindTypeDecl       Kind = "TypeDecl"
	KindDecl           Kind = "Decl"
	KindTypedef        Kind = "Typedef"
	KindPtrDecl        Kind = "PtrDecl"
	KindArrayDecl      Kind = "ArrayDecl"
	KindFuncDecl       Kind = "FuncDecl"
	KindStruct         Kind = "Struct"
	KindUnion          Kind = "Union"
	KindEnum           Kind = "Enum"
)

// File represents a parsed translation unit.
type File struct {
	Path    string  // Header name the unit was parsed as
	Decls   []*Node // Top-level Decl and Typedef nodes, in source order
	Invalid []Issue // Top-level items that could not be converted
}

// Issue is a top-level item that failed to parse or convert.
type Issue struct {
	Coord   Coord
	Message string
}

// Coord is a source location.
type Coord struct {
	File   string // Originating file, as reported by the preprocessor
	Line   int    // 1-based line in File
	Column int    // 1-based column
}

// Node is a single declaration tree node.
type Node struct {
	Kind Kind
	Name string // Declared name, declname or tag; empty when anonymous
	Type *Node  // Inner type or declarator

	Names []string // Type words (IdentifierType)
	Dim   *Expr    // Size expression (ArrayDecl); nil for []

	Params   []*Node // Parameter Decls (FuncDecl)
	Variadic bool    // Trailing ... (FuncDecl)

	Fields      []*Node      // Member Decls (Struct, Union); empty means no body
	Enumerators []Enumerator // Enumerators (Enum); empty means no body

	Coord Coord
}

// ExprKind represents the category of a constant expression.
type ExprKind string

const (
	ExprLiteral    ExprKind = "literal"
	ExprIdentifier ExprKind = "identifier"
	ExprOther      ExprKind = "other"
)

// Expr is a constant expression kept as source text.
type Expr struct {
	Kind ExprKind
	Text string
}

// Enumerator is a single enum constant.
type Enumerator struct {
	Name  string
	Value *Expr // nil when the value is implicit
}

// HasBody reports whether an aggregate or enum node carries a definition.
func (n *Node) HasBody() bool {
	switch n.Kind {
	case KindStruct, KindUnion:
		return len(n.Fields) > 0
	case KindEnum:
		return len(n.Enumerators) > 0
	}
	return false
}

// DeclName returns the name held by the innermost TypeDecl of a declarator
// chain, or "" when the chain has none.
func (n *Node) DeclName() string {
	for cur := n; cur != nil; cur = cur.Type {
		switch cur.Kind {
		case KindTypeDecl:
			return cur.Name
		case KindIdentifierType, KindStruct, KindUnion, KindEnum:
			return ""
		}
	}
	return ""
}
