package resolver

import (
	stderrors "errors"
	"testing"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/errors"
	"github.com/wasmerio/wai/parser"
)

func mustResolve(t *testing.T, source string) *wai.Interface {
	t.Helper()
	doc, err := parser.Parse("test", source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	iface, err := Resolve(doc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return iface
}

func resolveErr(t *testing.T, source string) error {
	t.Helper()
	doc, err := parser.Parse("test", source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	_, err = Resolve(doc)
	if err == nil {
		t.Fatal("expected resolve error, got nil")
	}
	return err
}

func wantKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	target := errors.New(errors.PhaseResolve, kind).Build()
	if !stderrors.Is(err, target) {
		t.Errorf("error = %v, want resolve kind %v", err, kind)
	}
}

func TestResolveRecord(t *testing.T) {
	iface := mustResolve(t, `
record point {
    x: u32,
    y: u32,
}
`)
	td := iface.TypeDef("point")
	if td == nil {
		t.Fatal("point not resolved")
	}
	rec, ok := td.Kind.(*wai.Record)
	if !ok {
		t.Fatalf("kind = %T, want *wai.Record", td.Kind)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(rec.Fields))
	}
	if _, ok := rec.Fields[0].Type.(wai.U32); !ok {
		t.Errorf("field x type = %T, want wai.U32", rec.Fields[0].Type)
	}
}

func TestResolveForwardReference(t *testing.T) {
	iface := mustResolve(t, `
record outer {
    inner: inner,
}

record inner {
    value: u64,
}
`)
	outer := iface.TypeDef("outer").Kind.(*wai.Record)
	inner, ok := outer.Fields[0].Type.(*wai.TypeDef)
	if !ok {
		t.Fatalf("field type = %T, want *wai.TypeDef", outer.Fields[0].Type)
	}
	if inner != iface.TypeDef("inner") {
		t.Error("forward reference did not bind to the inner typedef")
	}
}

func TestResolveAliasChain(t *testing.T) {
	iface := mustResolve(t, `
record payload { data: list<u8> }
type a = payload
type b = a
`)
	b := iface.TypeDef("b")
	if b.Root() != iface.TypeDef("payload") {
		t.Error("Root did not strip the alias chain down to payload")
	}
}

func TestResolveAnonymousTypes(t *testing.T) {
	iface := mustResolve(t, `get: func() -> option<tuple<u32, string>>`)
	fn := iface.Function("get")
	opt, ok := fn.Result.(*wai.TypeDef)
	if !ok {
		t.Fatalf("result = %T, want anonymous *wai.TypeDef", fn.Result)
	}
	inner, ok := opt.Kind.(*wai.Option)
	if !ok {
		t.Fatalf("result kind = %T, want *wai.Option", opt.Kind)
	}
	tup := inner.Type.(*wai.TypeDef).Kind.(*wai.Tuple)
	if len(tup.Types) != 2 {
		t.Errorf("tuple arity = %d, want 2", len(tup.Types))
	}
}

func TestResolveUnitResultDropped(t *testing.T) {
	iface := mustResolve(t, `ping: func() -> unit`)
	if iface.Function("ping").Result != nil {
		t.Error("unit result should resolve to nil")
	}
}

func TestResolveResource(t *testing.T) {
	iface := mustResolve(t, `
resource file {
    static open: func(path: string) -> expected<file, u32>
    read: func(count: u32) -> list<u8>
}
`)
	td := iface.TypeDef("file")
	res, ok := td.Kind.(*wai.Resource)
	if !ok {
		t.Fatalf("kind = %T, want *wai.Resource", td.Kind)
	}
	if len(iface.Resources) != 1 || iface.Resources[0] != td {
		t.Error("resource not listed in Resources")
	}
	if len(res.Functions) != 2 {
		t.Fatalf("members = %d, want 2", len(res.Functions))
	}

	open := res.Functions[0]
	if open.Kind != wai.Static || open.Resource != td {
		t.Errorf("open kind = %v, resource = %v", open.Kind, open.Resource)
	}
	if len(open.Params) != 1 {
		t.Errorf("static member should not get a self param, got %d params", len(open.Params))
	}
	exp := open.Result.(*wai.TypeDef).Kind.(*wai.Expected)
	if exp.OK != wai.Type(td) {
		t.Error("resource member may not reference its own resource")
	}

	read := res.Functions[1]
	if read.Kind != wai.Method {
		t.Errorf("read kind = %v, want method", read.Kind)
	}
	if len(read.Params) != 2 || read.Params[0].Name != "self" {
		t.Fatalf("method params = %+v, want injected self first", read.Params)
	}
	if read.Params[0].Type != wai.Type(td) {
		t.Error("self param type should be the owning resource")
	}
}

func TestResolveCycles(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"alias pair", "type a = b\ntype b = a"},
		{"alias self", "type a = a"},
		{"record self via list", "record node { children: list<node> }"},
		{"record pair", "record a { b: b }\nrecord b { a: a }"},
		{"variant payload", "variant v { leaf, tree(v) }"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wantKind(t, resolveErr(t, tc.source), errors.KindCycle)
		})
	}
}

func TestResolveDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"two records", "record a { x: u32 }\nrecord a { y: u32 }"},
		{"type and function", "type a = u32\na: func()"},
		{"record fields", "record r { x: u32, x: u64 }"},
		{"variant cases", "variant v { a, a }"},
		{"enum cases", "enum e { a, b, a }"},
		{"function params", "f: func(x: u32, x: u64)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wantKind(t, resolveErr(t, tc.source), errors.KindDuplicateName)
		})
	}
}

func TestResolveUnknownName(t *testing.T) {
	err := resolveErr(t, "record r { x: missing }")
	wantKind(t, err, errors.KindUnknownName)

	err = resolveErr(t, "f: func()\nrecord r { x: f }")
	wantKind(t, err, errors.KindUnknownName)
}

func addDoc(t *testing.T, s *Set, name, source string) {
	t.Helper()
	doc, err := parser.Parse(name, source)
	if err != nil {
		t.Fatalf("Parse %s failed: %v", name, err)
	}
	if err := s.Add(doc); err != nil {
		t.Fatalf("Add %s failed: %v", name, err)
	}
}

func TestResolveImports(t *testing.T) {
	s := NewSet()
	addDoc(t, s, "types", `
type size = u64
enum errno { access, badf, noent }
`)
	addDoc(t, s, "fs", `
use { errno, size as file-size } from types

stat: func(path: string) -> expected<file-size, errno>
`)

	ifaces, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	fs := ifaces["fs"]
	if fs.TypeDef("errno") != ifaces["types"].TypeDef("errno") {
		t.Error("plain import should share the original typedef")
	}
	alias := fs.TypeDef("file-size")
	if alias == nil {
		t.Fatal("aliased import not bound")
	}
	if alias.Root() != ifaces["types"].TypeDef("size").Root() {
		t.Error("aliased import should resolve to the original definition")
	}

	exp := fs.Function("stat").Result.(*wai.TypeDef).Kind.(*wai.Expected)
	if exp.Err != wai.Type(ifaces["types"].TypeDef("errno")) {
		t.Error("signature should reference the imported errno")
	}
}

func TestResolveImportAll(t *testing.T) {
	s := NewSet()
	addDoc(t, s, "types", "type size = u64\ntype offset = u64")
	addDoc(t, s, "fs", "use * from types\nseek: func(o: offset) -> size")

	ifaces, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ifaces["fs"].TypeDef("offset") == nil || ifaces["fs"].TypeDef("size") == nil {
		t.Error("use * should bind every exported name")
	}
}

func TestResolveImportErrors(t *testing.T) {
	t.Run("unknown document", func(t *testing.T) {
		s := NewSet()
		addDoc(t, s, "fs", "use { errno } from types")
		_, err := s.Resolve()
		if err == nil {
			t.Fatal("expected error")
		}
		wantKind(t, err, errors.KindUnknownDocument)
	})

	t.Run("unknown imported name", func(t *testing.T) {
		s := NewSet()
		addDoc(t, s, "types", "type size = u64")
		addDoc(t, s, "fs", "use { missing } from types")
		_, err := s.Resolve()
		if err == nil {
			t.Fatal("expected error")
		}
		wantKind(t, err, errors.KindUnknownName)
	})

	t.Run("import collides with local item", func(t *testing.T) {
		s := NewSet()
		addDoc(t, s, "types", "type size = u64")
		addDoc(t, s, "fs", "use { size } from types\ntype size = u32")
		_, err := s.Resolve()
		if err == nil {
			t.Fatal("expected error")
		}
		wantKind(t, err, errors.KindDuplicateName)
	})

	t.Run("document cycle", func(t *testing.T) {
		s := NewSet()
		addDoc(t, s, "a", "use { t } from b\ntype u = u32")
		addDoc(t, s, "b", "use { u } from a\ntype t = u32")
		_, err := s.Resolve()
		if err == nil {
			t.Fatal("expected error")
		}
		wantKind(t, err, errors.KindCycle)
	})
}

func TestResolveDeclarationOrderKept(t *testing.T) {
	iface := mustResolve(t, `
type a = u32
type b = u32
type c = u32
`)
	var names []string
	for _, td := range iface.TypeDefs {
		names = append(names, td.Name)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("typedef order = %v, want %v", names, want)
		}
	}
}
