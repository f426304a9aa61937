// Package inspect enumerates the publicly exported symbols of an installed library.
package inspect

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ochairo/apigather/internal/domain/entities"
	"github.com/ochairo/apigather/internal/domain/interfaces"
)

// Inspector walks an installed library's source tree and records every
// publicly reachable exported symbol as a qualified dotted path. Unexported
// identifiers and unreachable packages (internal, vendor, testdata, hidden
// or underscore-prefixed directories, package main) are excluded. A file
// that fails to parse is reported and skipped, never a fatal abort.
type Inspector struct {
	logger interfaces.Logger
}

// NewInspector creates a new inspector
func NewInspector(logger interfaces.Logger) *Inspector {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Inspector{logger: logger}
}

// Inspect enumerates the exported symbols of an installation
func (i *Inspector) Inspect(inst *entities.Installation) (*entities.GatherResult, error) {
	result := &entities.GatherResult{
		Library: inst.Library,
		Version: strings.TrimPrefix(inst.Version, "v"),
		Symbols: make(map[string]entities.SymbolInfo),
	}

	base := path.Base(inst.Library)
	fset := token.NewFileSet()

	err := filepath.WalkDir(inst.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != inst.Dir && excludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") ||
			strings.HasSuffix(d.Name(), "_test.go") ||
			strings.HasPrefix(d.Name(), ".") ||
			strings.HasPrefix(d.Name(), "_") {
			return nil
		}

		rel, err := filepath.Rel(inst.Dir, filepath.Dir(p))
		if err != nil {
			return fmt.Errorf("failed to resolve package path: %w", err)
		}

		file, err := parser.ParseFile(fset, p, nil, parser.SkipObjectResolution)
		if err != nil {
			// Per-file isolation: one broken file never aborts the gather
			i.logger.Warn("skipping unparsable file",
				interfaces.F("file", p),
				interfaces.F("error", err))
			return nil
		}

		// Only importable packages are publicly reachable
		if file.Name.Name == "main" {
			return nil
		}

		prefix := qualifiedPrefix(base, rel)
		i.collectFile(fset, file, prefix, result.Symbols)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s@%s: %w", inst.Library, inst.Version, err)
	}

	return result, nil
}

// collectFile records the exported top-level declarations of one file
func (i *Inspector) collectFile(fset *token.FileSet, file *ast.File, prefix string, symbols map[string]entities.SymbolInfo) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			// Methods are not module-level attributes; only plain functions count
			if d.Recv != nil || !d.Name.IsExported() {
				continue
			}
			symbols[prefix+"."+d.Name.Name] = entities.SymbolInfo{
				Kind:      "func",
				Signature: renderSignature(fset, d.Type),
			}

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.IsExported() {
						symbols[prefix+"."+s.Name.Name] = entities.SymbolInfo{Kind: "type"}
					}
				case *ast.ValueSpec:
					kind := "var"
					if d.Tok == token.CONST {
						kind = "const"
					}
					for _, name := range s.Names {
						if name.IsExported() {
							symbols[prefix+"."+name.Name] = entities.SymbolInfo{Kind: kind}
						}
					}
				}
			}
		}
	}
}

// qualifiedPrefix builds the dotted prefix for symbols in a package
// directory, e.g. base "mylib" + rel "encoding/form" -> "mylib.encoding.form"
func qualifiedPrefix(base, rel string) string {
	if rel == "." || rel == "" {
		return base
	}
	return base + "." + strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}

// renderSignature prints a function type as its declaration source text
func renderSignature(fset *token.FileSet, ft *ast.FuncType) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, ft); err != nil {
		return ""
	}
	return buf.String()
}

// excludedDir reports whether a directory is outside the public namespace
func excludedDir(name string) bool {
	switch name {
	case "internal", "vendor", "testdata":
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
