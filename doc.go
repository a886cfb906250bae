// Package wai is the core of an interface-definition compiler for
// cross-language WebAssembly calls. It parses `.wai` documents, resolves
// them into an immutable interface representation, and classifies every
// type under the canonical ABI so language backends can emit glue code
// that agrees bit-for-bit on memory layout, discriminants, and flattening.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wai/             Root package with the resolved interface representation
//	├── lexer/       Spanned tokenizer for the wai grammar
//	├── parser/      Recursive-descent parser producing unresolved ASTs
//	├── ast/         Unresolved documents, items, and type expressions
//	├── resolver/    Multi-document merging and lazy type resolution
//	├── abi/         Canonical ABI classification: layout, discriminants, flattening
//	├── transcoder/  Value lowering/lifting against classified layouts
//	├── resource/    Refcounted handle table with slab allocation
//	└── errors/      Structured error types for diagnostics
//
// # Quick Start
//
// Compile a document to a resolved interface and inspect its ABI:
//
//	doc, err := parser.Parse("shapes", source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	iface, err := resolver.Resolve(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	calc := abi.NewCalculator()
//	for _, td := range iface.TypeDefs {
//	    info, err := calc.Calculate(td)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(td.Name, info.Size, info.Align)
//	}
//
// # Type System
//
// The resolved representation covers the full wai type system:
//
//   - Primitives: bool, u8-u64, s8-s64, float32, float64, char, string, unit
//   - Compound: list<T>, option<T>, expected<T, E>, tuple<...>, future<T>, stream<T, E>
//   - Named: type aliases, record, variant, enum, union, flags
//   - Resources: opaque handles with member functions
//
// # Immutability
//
// An Interface is built once per compilation and never mutated afterward.
// Backends read it concurrently without coordination; separate compilations
// are fully independent. The resource handle table is the only long-lived
// mutable state in this module, and it is scoped per Table instance.
package wai
