package generator

import (
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"

	"gopxd/internal/model"
	"gopxd/internal/pxd"
)

var (
	// ErrUnsupportedShape is returned when a declarator chain does not
	// resolve to exactly one result where one is required.
	ErrUnsupportedShape = errors.Base("unsupported declarator shape")

	// ErrUnknownNode is returned for a node kind outside the model.
	ErrUnknownNode = errors.Base("unknown node kind")
)

// result is what a declarator resolves to: either bare type text that still
// needs a name, or a shaped node. A nil result means the declarator produced
// nothing at its call site (a hoisted definition, for instance).
type result interface{ isResult() }

type bare string

type shaped struct{ node pxd.Node }

func (bare) isResult()   {}
func (shaped) isResult() {}

// lineage is the kind of a node's parent and grandparent.
type lineage struct {
	parent      model.Kind
	grandparent model.Kind
}

func (l lineage) under(k model.Kind) lineage {
	return lineage{parent: k, grandparent: l.parent}
}

// Result is the resolved form of a translation unit.
type Result struct {
	Stdint []string   // Fixed-width integer names, in first-use order
	Decls  []pxd.Node // Top-level nodes, in resolution order
}

// Resolve walks the top-level declarations and returns the nodes to emit.
// Each call is independent; nothing is shared between runs.
func Resolve(decls []*model.Node) (*Result, error) {
	r := &resolver{consts: constants{}}
	out := &Result{}
	for _, d := range decls {
		res, hoist, err := r.resolve(d, lineage{})
		if err != nil {
			return nil, errors.Errorf("%s:%d: %w", d.Coord.File, d.Coord.Line, err)
		}
		out.Decls = append(out.Decls, hoist...)
		if node := named(res, d.Name); node != nil {
			out.Decls = append(out.Decls, node)
		}
	}
	out.Stdint = r.stdint.names
	return out, nil
}

type resolver struct {
	names  naming
	consts constants
	stdint stdintSet
}

func (r *resolver) resolve(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	return r.visit(n, lin, nil)
}

// visit dispatches on the node kind. dims carries the extents of enclosing
// ArrayDecls that are still waiting for their element type.
func (r *resolver) visit(n *model.Node, lin lineage, dims []pxd.Dim) (result, []pxd.Node, error) {
	if n == nil {
		return nil, nil, nil
	}
	r.names.push(n.Name)
	defer r.names.pop()

	switch n.Kind {
	case model.KindIdentifierType:
		return r.identifierType(n), nil, nil
	case model.KindTypeDecl, model.KindDecl:
		return r.decl(n, lin)
	case model.KindTypedef:
		return r.typedef(n, lin)
	case model.KindPtrDecl:
		return r.ptrDecl(n, lin)
	case model.KindArrayDecl:
		return r.arrayDecl(n, lin, dims)
	case model.KindFuncDecl:
		return r.funcDecl(n, lin)
	case model.KindStruct:
		return r.aggregate(n, lin, pxd.Struct, tagStruct)
	case model.KindUnion:
		return r.aggregate(n, lin, pxd.Union, tagUnion)
	case model.KindEnum:
		return r.enum(n, lin)
	}
	return nil, nil, errors.Errorf("%w: %q", ErrUnknownNode, n.Kind)
}

func (r *resolver) identifierType(n *model.Node) result {
	for _, name := range n.Names {
		r.stdint.add(name)
	}
	return bare(strings.Join(n.Names, " "))
}

// decl resolves a Decl or TypeDecl, giving bare type text the node's name.
func (r *resolver) decl(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	res, hoist, err := r.resolve(n.Type, lin.under(n.Kind))
	if err != nil {
		return nil, nil, err
	}
	if node := named(res, n.Name); node != nil {
		return shaped{node}, hoist, nil
	}
	return nil, hoist, nil
}

func (r *resolver) typedef(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	res, hoist, err := r.resolve(n.Type, lin.under(model.KindTypedef))
	if err != nil {
		return nil, nil, err
	}
	node := named(res, n.Name)
	if node == nil {
		return nil, hoist, nil
	}
	// typedef struct foo foo;
	if nt, ok := node.(pxd.NamedType); ok && nt.Name == nt.Type {
		return nil, hoist, nil
	}
	return nil, append(hoist, pxd.Alias{Inner: node}), nil
}

func (r *resolver) ptrDecl(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	res, hoist, err := r.resolve(n.Type, lin.under(model.KindPtrDecl))
	if err != nil {
		return nil, nil, err
	}
	switch res := res.(type) {
	case bare:
		// The pointer level is part of the synthesized function type.
		if n.Type.Kind == model.KindFuncDecl {
			return res, hoist, nil
		}
		return res + "*", hoist, nil
	case shaped:
		return shaped{pxd.Pointer{Inner: res.node}}, hoist, nil
	}
	return nil, nil, shapeError(n, "pointer to nothing")
}

func (r *resolver) arrayDecl(n *model.Node, lin lineage, outer []pxd.Dim) (result, []pxd.Node, error) {
	size, known := r.consts.dimension(n.Dim)
	dims := append(slices.Clone(outer), pxd.Dim{Size: size, Known: known})

	inner := lin.under(model.KindArrayDecl)
	if n.Type != nil && n.Type.Kind == model.KindArrayDecl {
		return r.visit(n.Type, inner, dims)
	}

	res, hoist, err := r.resolve(n.Type, inner)
	if err != nil {
		return nil, nil, err
	}
	switch res := res.(type) {
	case bare:
		elem := pxd.NamedType{Name: n.DeclName(), Type: string(res)}
		return shaped{pxd.Array{Inner: elem, Dims: dims}}, hoist, nil
	case shaped:
		return shaped{pxd.Array{Inner: res.node, Dims: dims}}, hoist, nil
	}
	return nil, nil, shapeError(n, "array of nothing")
}

func (r *resolver) funcDecl(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	var hoist []pxd.Node

	params := make([]pxd.Node, 0, len(n.Params))
	for _, p := range n.Params {
		res, h, err := r.resolve(p, lin.under(model.KindFuncDecl))
		if err != nil {
			return nil, nil, err
		}
		hoist = append(hoist, h...)
		if node := named(res, p.Name); node != nil {
			params = append(params, node)
		}
	}
	// f(void) takes no arguments.
	if len(params) == 1 && !n.Variadic {
		if nt, ok := params[0].(pxd.NamedType); ok && nt.Type == "void" {
			params = nil
		}
	}

	res, h, err := r.resolve(n.Type, lin.under(model.KindFuncDecl))
	if err != nil {
		return nil, nil, err
	}
	hoist = append(hoist, h...)

	fn := pxd.Function{Params: params, Variadic: n.Variadic}
	switch res := res.(type) {
	case bare:
		fn.Return, fn.Name = string(res), n.DeclName()
	case shaped:
		// Only prefix return types ("int*", "char**") can be written in
		// front of the function name.
		ret := pxd.TypeText(res.node)
		if strings.ContainsAny(ret, "()[]") {
			return nil, nil, shapeError(n, "function returning "+ret)
		}
		fn.Return, fn.Name = ret, pxd.NameOf(res.node)
	default:
		return nil, nil, shapeError(n, "function without return type")
	}

	if lin.parent == model.KindPtrDecl && lin.grandparent != model.KindTypedef {
		fn.Name = r.names.path(tagFuncType)
		hoist = append(hoist, pxd.Alias{Inner: pxd.Pointer{Inner: fn}})
		return bare(fn.Name), hoist, nil
	}
	return shaped{fn}, hoist, nil
}

func (r *resolver) aggregate(n *model.Node, lin lineage, kind pxd.Kind, tag string) (result, []pxd.Node, error) {
	typeDecl := lin.parent == model.KindTypeDecl
	typedefTarget := typeDecl && lin.grandparent == model.KindTypedef

	name := n.Name
	if name == "" {
		if typedefTarget {
			name = r.names.path("")
		} else {
			name = r.names.path(tag)
		}
	}

	if !n.HasBody() {
		if typeDecl {
			return bare(name), nil, nil
		}
		return nil, nil, nil
	}

	var hoist []pxd.Node
	fields := make([]pxd.Node, 0, len(n.Fields))
	for _, f := range n.Fields {
		res, h, err := r.resolve(f, lin.under(n.Kind))
		if err != nil {
			return nil, nil, err
		}
		hoist = append(hoist, h...)
		if node := named(res, f.Name); node != nil {
			fields = append(fields, node)
		}
	}

	if typedefTarget && n.Name == "" {
		return nil, append(hoist, pxd.Block{Name: name, Kind: kind, Fields: fields, Statement: pxd.Ctypedef}), nil
	}
	hoist = append(hoist, pxd.Block{Name: name, Kind: kind, Fields: fields, Statement: pxd.Cdef})
	if typeDecl {
		return bare(name), hoist, nil
	}
	return nil, hoist, nil
}

func (r *resolver) enum(n *model.Node, lin lineage) (result, []pxd.Node, error) {
	items := r.consts.enumerate(n.Enumerators)

	typeDecl := lin.parent == model.KindTypeDecl
	typedefTarget := typeDecl && lin.grandparent == model.KindTypedef

	name := n.Name
	if name == "" {
		switch {
		case typedefTarget:
			name = r.names.path("")
		case typeDecl:
			name = r.names.path(tagEnum)
		}
	}

	var hoist []pxd.Node
	if len(items) > 0 {
		if typedefTarget && n.Name == "" {
			return nil, []pxd.Node{pxd.Enum{Name: name, Items: items, Statement: pxd.Ctypedef}}, nil
		}
		hoist = append(hoist, pxd.Enum{Name: name, Items: items, Statement: pxd.Cdef})
	}
	if typeDecl {
		return bare(name), hoist, nil
	}
	return nil, hoist, nil
}

// named gives bare type text a declared name.
func named(res result, name string) pxd.Node {
	switch res := res.(type) {
	case bare:
		return pxd.NamedType{Name: name, Type: string(res)}
	case shaped:
		return res.node
	}
	return nil
}

func shapeError(n *model.Node, what string) error {
	if name := n.DeclName(); name != "" {
		return errors.Errorf("%w: %s (%s in %q)", ErrUnsupportedShape, what, n.Kind, name)
	}
	return errors.Errorf("%w: %s (%s)", ErrUnsupportedShape, what, n.Kind)
}
