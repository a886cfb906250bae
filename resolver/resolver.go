// Package resolver binds parsed documents into resolved wai interfaces.
//
// Resolution runs in three passes per document. Collection indexes every
// named item and rejects duplicates. Imports bind names from other
// documents in the set. Type resolution then walks items depth-first,
// marking each name in-progress while its definition is being built so any
// reference back into an in-progress definition is reported as a cycle.
// Resources are the one exception: a resource is registered before its
// member functions resolve, so members may mention their own resource.
package resolver

import (
	"go.uber.org/zap"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/ast"
	"github.com/wasmerio/wai/errors"
)

// Set is a collection of parsed documents that may reference each other
// through use declarations.
type Set struct {
	docs  map[string]*ast.Document
	order []string
}

// NewSet creates an empty document set.
func NewSet() *Set {
	return &Set{docs: make(map[string]*ast.Document)}
}

// Add registers a parsed document under its name. Adding two documents with
// the same name is an error.
func (s *Set) Add(doc *ast.Document) error {
	if _, ok := s.docs[doc.Name]; ok {
		return errors.New(errors.PhaseResolve, errors.KindDuplicateName).
			Name(doc.Name).
			Detail("document added twice").
			Build()
	}
	s.docs[doc.Name] = doc
	s.order = append(s.order, doc.Name)
	return nil
}

// Resolve resolves every document in the set and returns the resolved
// interfaces keyed by document name. Documents are processed in dependency
// order; a use cycle between documents is an error.
func (s *Set) Resolve() (map[string]*wai.Interface, error) {
	sorted, err := s.sortByUses()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*wai.Interface, len(sorted))
	for _, name := range sorted {
		iface, err := resolveDocument(s.docs[name], out)
		if err != nil {
			return nil, err
		}
		out[name] = iface
		wai.Logger().Debug("resolved document",
			zap.String("document", name),
			zap.Int("typedefs", len(iface.TypeDefs)),
			zap.Int("functions", len(iface.Functions)),
			zap.Int("resources", len(iface.Resources)))
	}
	return out, nil
}

// Resolve resolves a single document with no imports.
func Resolve(doc *ast.Document) (*wai.Interface, error) {
	s := NewSet()
	if err := s.Add(doc); err != nil {
		return nil, err
	}
	ifaces, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	return ifaces[doc.Name], nil
}

type color uint8

const (
	white color = iota // not visited
	grey               // in progress
	black              // done
)

// sortByUses orders documents so every document comes after the documents
// it uses.
func (s *Set) sortByUses() ([]string, error) {
	state := make(map[string]color, len(s.docs))
	sorted := make([]string, 0, len(s.docs))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case black:
			return nil
		case grey:
			return errors.Cycle(errors.Span{}, append(stack, name)...)
		}
		state[name] = grey
		stack = append(stack, name)
		for _, use := range s.docs[name].Uses {
			if _, ok := s.docs[use.From]; !ok {
				return errors.New(errors.PhaseResolve, errors.KindUnknownDocument).
					Span(use.Span).
					Name(use.From).
					Detail("document not in set").
					Build()
			}
			if err := visit(use.From); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = black
		sorted = append(sorted, name)
		return nil
	}

	for _, name := range s.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

type docResolver struct {
	doc      *ast.Document
	resolved map[string]*wai.Interface

	items map[string]ast.Item     // local named items, functions included
	defs  map[string]*wai.TypeDef // bound type names, imported and resolved
	state map[string]color
	stack []string // in-progress names for cycle reporting

	out *wai.Interface
}

func resolveDocument(doc *ast.Document, resolved map[string]*wai.Interface) (*wai.Interface, error) {
	r := &docResolver{
		doc:      doc,
		resolved: resolved,
		items:    make(map[string]ast.Item),
		defs:     make(map[string]*wai.TypeDef),
		state:    make(map[string]color),
		out:      &wai.Interface{Name: doc.Name},
	}
	if err := r.collect(); err != nil {
		return nil, err
	}
	if err := r.imports(); err != nil {
		return nil, err
	}
	if err := r.resolveAll(); err != nil {
		return nil, err
	}
	return r.out, nil
}

// collect indexes every named item. Types, resources and functions share
// one namespace.
func (r *docResolver) collect() error {
	for _, item := range r.doc.Items {
		name := item.ItemName()
		if _, ok := r.items[name]; ok {
			return errors.DuplicateName(item.ItemSpan(), name)
		}
		r.items[name] = item
	}
	return nil
}

// imports binds names from used documents into this document's scope.
func (r *docResolver) imports() error {
	for _, use := range r.doc.Uses {
		iface, ok := r.resolved[use.From]
		if !ok {
			return errors.New(errors.PhaseResolve, errors.KindUnknownDocument).
				Span(use.Span).
				Name(use.From).
				Detail("document not in set").
				Build()
		}

		if use.All {
			for _, td := range iface.TypeDefs {
				if err := r.bind(td.Name, td, use.Span); err != nil {
					return err
				}
			}
			continue
		}

		for _, un := range use.Names {
			td := iface.TypeDef(un.Name)
			if td == nil {
				return errors.New(errors.PhaseResolve, errors.KindUnknownName).
					Span(use.Span).
					Name(un.Name).
					Path(use.From).
					Detail("name not defined by document %q", use.From).
					Build()
			}
			local := un.Name
			if un.As != "" {
				// rebinding keeps a local alias def so lookups by the
				// local name work
				local = un.As
				td = &wai.TypeDef{
					Name: local,
					Kind: &wai.Alias{Type: td},
					Span: use.Span,
				}
			}
			if err := r.bind(local, td, use.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *docResolver) bind(name string, td *wai.TypeDef, span errors.Span) error {
	if _, ok := r.items[name]; ok {
		return errors.DuplicateName(span, name)
	}
	if _, ok := r.defs[name]; ok {
		return errors.DuplicateName(span, name)
	}
	r.defs[name] = td
	r.state[name] = black
	r.out.TypeDefs = append(r.out.TypeDefs, td)
	return nil
}

// resolveAll resolves every local item in declaration order.
func (r *docResolver) resolveAll() error {
	for _, item := range r.doc.Items {
		if fn, ok := item.(*ast.Function); ok {
			resolved, err := r.resolveFunction(fn, nil, false)
			if err != nil {
				return err
			}
			r.out.Functions = append(r.out.Functions, resolved)
			continue
		}
		if _, err := r.resolveName(item.ItemName(), item.ItemSpan()); err != nil {
			return err
		}
	}
	return nil
}

// resolveName returns the resolved definition of a local or imported name,
// resolving it on first use.
func (r *docResolver) resolveName(name string, ref errors.Span) (*wai.TypeDef, error) {
	if td, ok := r.defs[name]; ok {
		return td, nil
	}
	if r.state[name] == grey {
		return nil, errors.Cycle(ref, append(r.stack, name)...)
	}
	item, ok := r.items[name]
	if !ok {
		return nil, errors.UnknownName(ref, name)
	}
	if _, ok := item.(*ast.Function); ok {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnknownName).
			Span(ref).
			Name(name).
			Detail("refers to a function, not a type").
			Build()
	}

	r.state[name] = grey
	r.stack = append(r.stack, name)
	td, err := r.resolveItem(item)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}
	r.state[name] = black
	if _, ok := r.defs[name]; !ok {
		// resources self-register before their members resolve
		r.defs[name] = td
		r.out.TypeDefs = append(r.out.TypeDefs, td)
	}
	return td, nil
}

func (r *docResolver) resolveItem(item ast.Item) (*wai.TypeDef, error) {
	td := &wai.TypeDef{
		Name: item.ItemName(),
		Docs: item.ItemDocs(),
		Span: item.ItemSpan(),
	}

	switch it := item.(type) {
	case *ast.TypeAlias:
		ty, err := r.resolveExpr(it.Type)
		if err != nil {
			return nil, err
		}
		td.Kind = &wai.Alias{Type: ty}

	case *ast.Record:
		rec := &wai.Record{Fields: make([]wai.Field, 0, len(it.Fields))}
		seen := make(map[string]bool, len(it.Fields))
		for _, f := range it.Fields {
			if seen[f.Name] {
				return nil, errors.DuplicateName(f.Span, f.Name)
			}
			seen[f.Name] = true
			ty, err := r.resolveExpr(f.Type)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, wai.Field{Name: f.Name, Type: ty, Docs: f.Docs})
		}
		td.Kind = rec

	case *ast.Flags:
		fl := &wai.Flags{Flags: make([]wai.Flag, 0, len(it.Flags))}
		seen := make(map[string]bool, len(it.Flags))
		for _, f := range it.Flags {
			if seen[f.Name] {
				return nil, errors.DuplicateName(f.Span, f.Name)
			}
			seen[f.Name] = true
			fl.Flags = append(fl.Flags, wai.Flag{Name: f.Name, Docs: f.Docs})
		}
		td.Kind = fl

	case *ast.Variant:
		v := &wai.Variant{Cases: make([]wai.Case, 0, len(it.Cases))}
		seen := make(map[string]bool, len(it.Cases))
		for _, c := range it.Cases {
			if seen[c.Name] {
				return nil, errors.DuplicateName(c.Span, c.Name)
			}
			seen[c.Name] = true
			wc := wai.Case{Name: c.Name, Docs: c.Docs}
			if c.Type != nil {
				ty, err := r.resolveExpr(c.Type)
				if err != nil {
					return nil, err
				}
				wc.Type = ty
			}
			v.Cases = append(v.Cases, wc)
		}
		td.Kind = v

	case *ast.Enum:
		e := &wai.Enum{Cases: make([]wai.EnumCase, 0, len(it.Cases))}
		seen := make(map[string]bool, len(it.Cases))
		for _, c := range it.Cases {
			if seen[c.Name] {
				return nil, errors.DuplicateName(c.Span, c.Name)
			}
			seen[c.Name] = true
			e.Cases = append(e.Cases, wai.EnumCase{Name: c.Name, Docs: c.Docs})
		}
		td.Kind = e

	case *ast.Union:
		u := &wai.Union{Types: make([]wai.Type, 0, len(it.Types))}
		for _, t := range it.Types {
			ty, err := r.resolveExpr(t)
			if err != nil {
				return nil, err
			}
			u.Types = append(u.Types, ty)
		}
		td.Kind = u

	case *ast.Resource:
		return r.resolveResource(it, td)

	default:
		return nil, errors.Internal("unhandled item %T", item)
	}

	return td, nil
}

// resolveResource registers the resource definition before resolving its
// members so member signatures may refer back to it.
func (r *docResolver) resolveResource(it *ast.Resource, td *wai.TypeDef) (*wai.TypeDef, error) {
	res := &wai.Resource{}
	td.Kind = res
	r.defs[td.Name] = td
	r.state[td.Name] = black
	r.out.TypeDefs = append(r.out.TypeDefs, td)
	r.out.Resources = append(r.out.Resources, td)

	seen := make(map[string]bool, len(it.Functions))
	for _, member := range it.Functions {
		if seen[member.Func.Name] {
			return nil, errors.DuplicateName(member.Func.Span, member.Func.Name)
		}
		seen[member.Func.Name] = true
		fn, err := r.resolveFunction(member.Func, td, member.Static)
		if err != nil {
			return nil, err
		}
		res.Functions = append(res.Functions, fn)
	}
	return td, nil
}

// resolveFunction resolves a signature. Non-static resource members get a
// leading self parameter of the owning resource's handle type.
func (r *docResolver) resolveFunction(fn *ast.Function, res *wai.TypeDef, static bool) (*wai.Function, error) {
	out := &wai.Function{
		Name:     fn.Name,
		Docs:     fn.Docs,
		Resource: res,
		Kind:     wai.Freestanding,
		IsAsync:  fn.IsAsync,
		Span:     fn.Span,
	}
	switch {
	case res != nil && static:
		out.Kind = wai.Static
	case res != nil:
		out.Kind = wai.Method
		out.Params = append(out.Params, wai.Param{Name: "self", Type: res})
	}

	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if p.Name == "self" && out.Kind == wai.Method {
			return nil, errors.DuplicateName(p.Span, p.Name)
		}
		if seen[p.Name] {
			return nil, errors.DuplicateName(p.Span, p.Name)
		}
		seen[p.Name] = true
		ty, err := r.resolveExpr(p.Type)
		if err != nil {
			return nil, err
		}
		out.Params = append(out.Params, wai.Param{Name: p.Name, Type: ty})
	}

	if fn.Result != nil {
		ty, err := r.resolveExpr(fn.Result)
		if err != nil {
			return nil, err
		}
		if _, isUnit := ty.(wai.Unit); !isUnit {
			out.Result = ty
		}
	}
	return out, nil
}

// resolveExpr resolves one type expression. Compound expressions become
// anonymous typedefs so downstream layout code sees a uniform shape.
func (r *docResolver) resolveExpr(expr ast.TypeExpr) (wai.Type, error) {
	switch e := expr.(type) {
	case *ast.Prim:
		return primType(e.Kind)

	case *ast.Named:
		return r.resolveName(e.Name, e.Span)

	case *ast.ListExpr:
		elem, err := r.resolveExpr(e.Elem)
		if err != nil {
			return nil, err
		}
		return &wai.TypeDef{Kind: &wai.List{Type: elem}, Span: e.Span}, nil

	case *ast.OptionExpr:
		elem, err := r.resolveExpr(e.Elem)
		if err != nil {
			return nil, err
		}
		return &wai.TypeDef{Kind: &wai.Option{Type: elem}, Span: e.Span}, nil

	case *ast.TupleExpr:
		types := make([]wai.Type, 0, len(e.Types))
		for _, t := range e.Types {
			ty, err := r.resolveExpr(t)
			if err != nil {
				return nil, err
			}
			types = append(types, ty)
		}
		return &wai.TypeDef{Kind: &wai.Tuple{Types: types}, Span: e.Span}, nil

	case *ast.ExpectedExpr:
		ok, err := r.resolveExpr(e.OK)
		if err != nil {
			return nil, err
		}
		errTy, err := r.resolveExpr(e.Err)
		if err != nil {
			return nil, err
		}
		return &wai.TypeDef{Kind: &wai.Expected{OK: ok, Err: errTy}, Span: e.Span}, nil

	case *ast.FutureExpr:
		elem, err := r.resolveExpr(e.Elem)
		if err != nil {
			return nil, err
		}
		return &wai.TypeDef{Kind: &wai.Future{Type: elem}, Span: e.Span}, nil

	case *ast.StreamExpr:
		element, err := r.resolveExpr(e.Element)
		if err != nil {
			return nil, err
		}
		end, err := r.resolveExpr(e.End)
		if err != nil {
			return nil, err
		}
		return &wai.TypeDef{Kind: &wai.Stream{Element: element, End: end}, Span: e.Span}, nil

	default:
		return nil, errors.Internal("unhandled type expression %T", expr)
	}
}

func primType(kind ast.PrimKind) (wai.Type, error) {
	switch kind {
	case ast.PrimBool:
		return wai.Bool{}, nil
	case ast.PrimU8:
		return wai.U8{}, nil
	case ast.PrimU16:
		return wai.U16{}, nil
	case ast.PrimU32:
		return wai.U32{}, nil
	case ast.PrimU64:
		return wai.U64{}, nil
	case ast.PrimS8:
		return wai.S8{}, nil
	case ast.PrimS16:
		return wai.S16{}, nil
	case ast.PrimS32:
		return wai.S32{}, nil
	case ast.PrimS64:
		return wai.S64{}, nil
	case ast.PrimF32:
		return wai.F32{}, nil
	case ast.PrimF64:
		return wai.F64{}, nil
	case ast.PrimChar:
		return wai.Char{}, nil
	case ast.PrimString:
		return wai.String{}, nil
	case ast.PrimUnit:
		return wai.Unit{}, nil
	}
	return nil, errors.Internal("unhandled primitive kind %d", kind)
}
