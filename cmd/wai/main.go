package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
	"github.com/wasmerio/wai/parser"
	"github.com/wasmerio/wai/resolver"
)

func main() {
	var (
		funcName    = flag.String("func", "", "Describe a single function (optional)")
		checkOnly   = flag.Bool("check", false, "Parse and resolve, report errors only")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: wai [flags] <file.wai> [more.wai ...]")
		fmt.Fprintln(os.Stderr, "       wai -check <file.wai> ...")
		fmt.Fprintln(os.Stderr, "       wai -i <file.wai> ...  (interactive mode)")
		os.Exit(1)
	}

	ifaces, err := compile(files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *checkOnly {
		fmt.Printf("ok: %d document(s)\n", len(ifaces))
		return
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(ifaces); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := report(ifaces, *funcName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compile parses every file into one document set and resolves them
// together, so use statements can reach across files. Interfaces come
// back in command-line order.
func compile(files []string) ([]*wai.Interface, error) {
	set := resolver.NewSet()
	var names []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		name := docName(file)
		doc, err := parser.Parse(name, string(data))
		if err != nil {
			return nil, err
		}
		if err := set.Add(doc); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	resolved, err := set.Resolve()
	if err != nil {
		return nil, err
	}

	ifaces := make([]*wai.Interface, 0, len(names))
	for _, name := range names {
		ifaces = append(ifaces, resolved[name])
	}
	return ifaces, nil
}

// docName turns a file path into the document name use statements refer
// to: the base name without its extension.
func docName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func report(ifaces []*wai.Interface, funcName string) error {
	calc := abi.NewCalculator()

	if funcName != "" {
		for _, iface := range ifaces {
			if fn := iface.Function(funcName); fn != nil {
				fmt.Print(functionDetail(calc, fn))
				return nil
			}
			// Resource members are addressed as resource.name.
			for _, res := range iface.Resources {
				for _, fn := range res.Kind.(*wai.Resource).Functions {
					if res.Name+"."+fn.Name == funcName {
						fmt.Print(functionDetail(calc, fn))
						return nil
					}
				}
			}
		}
		return fmt.Errorf("function %q not found", funcName)
	}

	for _, iface := range ifaces {
		fmt.Printf("Document: %s\n", iface.Name)
		fmt.Printf("Types: %d\n", len(iface.TypeDefs))
		fmt.Printf("Functions: %d\n", len(iface.Functions))

		if len(iface.TypeDefs) > 0 {
			fmt.Printf("\nTypes:\n")
			for _, td := range iface.TypeDefs {
				info, err := calc.Calculate(td)
				if err != nil {
					return err
				}
				fmt.Printf("  %s %s (size %d, align %d)\n",
					kindString(td.Kind), td.Name, info.Size, info.Align)
			}
		}

		if len(iface.Functions) > 0 {
			fmt.Printf("\nFunctions:\n")
			for _, fn := range iface.Functions {
				fmt.Printf("  %s\n", functionSummary(fn))
				fmt.Printf("    core: %s\n", coreSignature(abi.FlattenFunction(fn)))
			}
		}
		fmt.Println()
	}
	return nil
}
