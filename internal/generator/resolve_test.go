package generator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"gopxd/internal/model"
	"gopxd/internal/pxd"
)

func ident(words ...string) *model.Node {
	return &model.Node{Kind: model.KindIdentifierType, Names: words}
}

func typeDecl(name string, typ *model.Node) *model.Node {
	return &model.Node{Kind: model.KindTypeDecl, Name: name, Type: typ}
}

func decl(name string, typ *model.Node) *model.Node {
	return &model.Node{Kind: model.KindDecl, Name: name, Type: typ}
}

func typedef(name string, typ *model.Node) *model.Node {
	return &model.Node{Kind: model.KindTypedef, Name: name, Type: typ}
}

func ptr(typ *model.Node) *model.Node {
	return &model.Node{Kind: model.KindPtrDecl, Type: typ}
}

func array(dim *model.Expr, typ *model.Node) *model.Node {
	return &model.Node{Kind: model.KindArrayDecl, Dim: dim, Type: typ}
}

func fn(typ *model.Node, params ...*model.Node) *model.Node {
	return &model.Node{Kind: model.KindFuncDecl, Type: typ, Params: params}
}

func field(name string, words ...string) *model.Node {
	return decl(name, typeDecl(name, ident(words...)))
}

func lit(text string) *model.Expr { return &model.Expr{Kind: model.ExprLiteral, Text: text} }

func ref(text string) *model.Expr { return &model.Expr{Kind: model.ExprIdentifier, Text: text} }

// render resolves decls and returns the emitted lines below the extern header.
func render(t *testing.T, decls ...*model.Node) string {
	t.Helper()

	res, err := Resolve(decls)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, "test.h", res))
	return buf.String()
}

func TestResolveAnonymousTypedefStruct(t *testing.T) {
	// typedef struct { int x; } foo_t;
	s := &model.Node{Kind: model.KindStruct, Fields: []*model.Node{field("x", "int")}}
	out := render(t, typedef("foo_t", typeDecl("foo_t", s)))

	assert.Equal(t, "cdef extern from \"test.h\":\n\n    ctypedef struct foo_t:\n        int x\n", out)
	assert.NotContains(t, out, "ctypedef foo_t")
}

func TestResolveFunctionPointerField(t *testing.T) {
	// struct bar { void (*cb)(int); };
	cb := decl("cb", ptr(fn(typeDecl("cb", ident("void")), decl("", typeDecl("", ident("int"))))))
	s := &model.Node{Kind: model.KindStruct, Name: "bar", Fields: []*model.Node{cb}}

	res, err := Resolve([]*model.Node{decl("", s)})
	require.NoError(t, err)
	require.Len(t, res.Decls, 2)

	assert.Equal(t, []string{"ctypedef void (*_bar_cb_ft)(int)"}, res.Decls[0].Lines())
	assert.Equal(t, []string{"cdef struct bar:", "    _bar_cb_ft cb"}, res.Decls[1].Lines())
}

func TestResolvePointerToFunctionPointer(t *testing.T) {
	// void (**cb)(int);
	cb := decl("cb", ptr(ptr(fn(typeDecl("cb", ident("void")), decl("", typeDecl("", ident("int")))))))

	res, err := Resolve([]*model.Node{cb})
	require.NoError(t, err)
	require.Len(t, res.Decls, 2)

	alias := res.Decls[0].Lines()[0]
	assert.Equal(t, "ctypedef void (*_cb_ft)(int)", alias)
	assert.Equal(t, []string{"_cb_ft* cb"}, res.Decls[1].Lines())
}

func TestResolveTypedefFunctionPointer(t *testing.T) {
	// typedef int (*cmp)(void *a);
	a := decl("a", ptr(typeDecl("a", ident("void"))))
	out := render(t, typedef("cmp", ptr(fn(typeDecl("cmp", ident("int")), a))))

	assert.Contains(t, out, "    ctypedef int (*cmp)(void* a)\n")
	assert.NotContains(t, out, "_ft")
}

func TestResolveEnumValues(t *testing.T) {
	// enum { A, B = 5, C }; int arr[C];
	e := &model.Node{Kind: model.KindEnum, Enumerators: []model.Enumerator{
		{Name: "A"}, {Name: "B", Value: lit("5")}, {Name: "C"},
	}}
	arr := decl("arr", array(ref("C"), typeDecl("arr", ident("int"))))

	res, err := Resolve([]*model.Node{decl("", e), arr})
	require.NoError(t, err)
	require.Len(t, res.Decls, 2)

	assert.Equal(t, []string{"cdef enum:", "    A", "    B", "    C"}, res.Decls[0].Lines())
	assert.Equal(t, []string{"int arr[6]"}, res.Decls[1].Lines())
}

func TestResolveEnumNonLiteralContinues(t *testing.T) {
	// enum { A = 2, B = A | 1, C }; int arr[C];
	e := &model.Node{Kind: model.KindEnum, Name: "e", Enumerators: []model.Enumerator{
		{Name: "A", Value: lit("2")},
		{Name: "B", Value: &model.Expr{Kind: model.ExprOther, Text: "A | 1"}},
		{Name: "C"},
	}}
	arr := decl("arr", array(ref("C"), typeDecl("arr", ident("int"))))

	res, err := Resolve([]*model.Node{decl("", e), arr})
	require.NoError(t, err)
	assert.Equal(t, []string{"int arr[4]"}, res.Decls[1].Lines())
}

func TestResolveArrays(t *testing.T) {
	tests := []struct {
		name string
		node *model.Node
		want string
	}{
		{"literal", decl("a", array(lit("0x10"), typeDecl("a", ident("char")))), "char a[16]"},
		{"unknown size", decl("a", array(nil, typeDecl("a", ident("char")))), "char a[]"},
		{"unknown constant", decl("a", array(ref("N"), typeDecl("a", ident("char")))), "char a[]"},
		{"two dimensions", decl("g", array(lit("2"), array(lit("3"), typeDecl("g", ident("int"))))), "int g[2][3]"},
		{"of pointers", decl("p", array(lit("3"), ptr(typeDecl("p", ident("int"))))), "int* p[3]"},
		{"pointer to", decl("p", ptr(array(lit("3"), typeDecl("p", ident("int"))))), "int (*p)[3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve([]*model.Node{tt.node})
			require.NoError(t, err)
			require.Len(t, res.Decls, 1)
			assert.Equal(t, []string{tt.want}, res.Decls[0].Lines())
		})
	}
}

func TestResolveVoidParameterElided(t *testing.T) {
	// int get(void);
	f := decl("get", fn(typeDecl("get", ident("int")), decl("", typeDecl("", ident("void")))))
	res, err := Resolve([]*model.Node{f})
	require.NoError(t, err)
	assert.Equal(t, []string{"int get()"}, res.Decls[0].Lines())

	// void* take(void* p) keeps its parameter.
	p := decl("p", ptr(typeDecl("p", ident("void"))))
	g := decl("take", fn(ptr(typeDecl("take", ident("void"))), p))
	res, err = Resolve([]*model.Node{g})
	require.NoError(t, err)
	assert.Equal(t, []string{"void* take(void* p)"}, res.Decls[0].Lines())
}

func TestResolveVariadic(t *testing.T) {
	f := fn(typeDecl("printf", ident("int")), decl("fmt", ptr(typeDecl("fmt", ident("char")))))
	f.Variadic = true

	res, err := Resolve([]*model.Node{decl("printf", f)})
	require.NoError(t, err)
	assert.Equal(t, []string{"int printf(char* fmt, ...)"}, res.Decls[0].Lines())
}

func TestResolveStdintConsolidation(t *testing.T) {
	s := &model.Node{Kind: model.KindStruct, Name: "c", Fields: []*model.Node{
		field("a", "uint8_t"),
		field("b", "int64_t"),
		field("c", "uint8_t"),
		field("d", "unsigned", "int"),
	}}
	g := decl("g", typeDecl("g", ident("int64_t")))

	res, err := Resolve([]*model.Node{decl("", s), g})
	require.NoError(t, err)
	assert.Equal(t, []string{"uint8_t", "int64_t"}, res.Stdint)

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, "test.h", res))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("cimport")))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("from libc.stdint cimport uint8_t, int64_t\n\ncdef extern from \"test.h\":\n")))
}

func TestResolveSelfTypedefDropped(t *testing.T) {
	// typedef struct node { int v; } node;
	s := &model.Node{Kind: model.KindStruct, Name: "node", Fields: []*model.Node{field("v", "int")}}
	res, err := Resolve([]*model.Node{typedef("node", typeDecl("node", s))})
	require.NoError(t, err)

	require.Len(t, res.Decls, 1)
	assert.Equal(t, "cdef struct node:", res.Decls[0].Lines()[0])
}

func TestResolveTypedefAliases(t *testing.T) {
	res, err := Resolve([]*model.Node{
		typedef("u32", typeDecl("u32", ident("unsigned", "int"))),
		typedef("str", ptr(typeDecl("str", ident("char")))),
		typedef("opaque_t", typeDecl("opaque_t", &model.Node{Kind: model.KindStruct, Name: "opaque"})),
	})
	require.NoError(t, err)
	require.Len(t, res.Decls, 3)

	assert.Equal(t, []string{"ctypedef unsigned int u32"}, res.Decls[0].Lines())
	assert.Equal(t, []string{"ctypedef char* str"}, res.Decls[1].Lines())
	assert.Equal(t, []string{"ctypedef opaque opaque_t"}, res.Decls[2].Lines())
}

func TestResolveNestedAnonymousAggregates(t *testing.T) {
	// struct outer { union { int i; float f; } u; struct { int a; }; enum { X } kind; };
	u := &model.Node{Kind: model.KindUnion, Fields: []*model.Node{field("i", "int"), field("f", "float")}}
	inner := &model.Node{Kind: model.KindStruct, Fields: []*model.Node{field("a", "int")}}
	kind := &model.Node{Kind: model.KindEnum, Enumerators: []model.Enumerator{{Name: "X"}}}
	outer := &model.Node{Kind: model.KindStruct, Name: "outer", Fields: []*model.Node{
		decl("u", typeDecl("u", u)),
		decl("", inner),
		decl("kind", typeDecl("kind", kind)),
	}}

	res, err := Resolve([]*model.Node{decl("", outer)})
	require.NoError(t, err)

	var heads []string
	for _, d := range res.Decls {
		heads = append(heads, d.Lines()[0])
	}
	assert.Equal(t, []string{
		"cdef union _outer_u_u:",
		"cdef struct _outer_s:",
		"cdef enum _outer_kind_e:",
		"cdef struct outer:",
	}, heads)
	assert.Equal(t, []string{
		"cdef struct outer:",
		"    _outer_u_u u",
		"    _outer_kind_e kind",
	}, res.Decls[3].Lines())
}

func TestResolveTopLevelNamesUnique(t *testing.T) {
	cb := func(name string) *model.Node {
		return decl(name, ptr(fn(typeDecl(name, ident("void")))))
	}
	a := &model.Node{Kind: model.KindStruct, Name: "a", Fields: []*model.Node{cb("cb")}}
	b := &model.Node{Kind: model.KindStruct, Name: "b", Fields: []*model.Node{cb("cb")}}

	res, err := Resolve([]*model.Node{decl("", a), decl("", b), cb("cb")})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, d := range res.Decls {
		name := pxd.NameOf(d)
		assert.False(t, seen[name], "duplicate %q", name)
		seen[name] = true
	}
}

func TestResolveDeterministic(t *testing.T) {
	build := func() []*model.Node {
		u := &model.Node{Kind: model.KindUnion, Fields: []*model.Node{field("i", "int32_t")}}
		cb := decl("cb", ptr(fn(typeDecl("cb", ident("void")))))
		s := &model.Node{Kind: model.KindStruct, Name: "s", Fields: []*model.Node{decl("v", typeDecl("v", u)), cb}}
		return []*model.Node{decl("", s)}
	}

	assert.Equal(t, render(t, build()...), render(t, build()...))
}

func TestResolveUnknownKind(t *testing.T) {
	_, err := Resolve([]*model.Node{{Kind: "Bogus", Coord: model.Coord{File: "x.h", Line: 3}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownNode))
	assert.Contains(t, err.Error(), "x.h:3")
}

func TestResolveUnsupportedShape(t *testing.T) {
	// A pointer whose target resolves to nothing.
	bad := decl("p", ptr(&model.Node{Kind: model.KindEnum, Enumerators: []model.Enumerator{{Name: "Z"}}}))

	_, err := Resolve([]*model.Node{bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
}

func TestResolveFunctionReturningArrayPointer(t *testing.T) {
	// int (*fp_ret(void))[3];
	bad := decl("fp_ret", fn(ptr(array(lit("3"), typeDecl("fp_ret", ident("int")))), decl("", typeDecl("", ident("void")))))

	_, err := Resolve([]*model.Node{bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
	assert.Contains(t, err.Error(), "fp_ret")
}

func TestResolveFunctionReturningPointer(t *testing.T) {
	// char **names(int n);
	f := decl("names", fn(ptr(ptr(typeDecl("names", ident("char")))), decl("n", typeDecl("n", ident("int")))))

	assert.Contains(t, render(t, f), "    char** names(int n)\n")
}
