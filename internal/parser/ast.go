package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// GeneratedHeader starts every file boxarray writes.
const GeneratedHeader = "// Code generated by boxarray"

// File is a Go source file scanned for @boxed directives
type File struct {
	Path         string
	Package      string
	Constructors []Constructor
	Declared     map[string]bool   // Top-level names already declared in the file
	Types        map[string]string // Defined type → underlying type expression
}

// ParseFile parses a Go source file and extracts its @boxed directives
func ParseFile(filename string) (*File, error) {
	return ParseSource(filename, nil)
}

// ParseSource is ParseFile for in-memory source. src follows the rules of
// go/parser.ParseFile; nil reads filename from disk.
func ParseSource(filename string, src any) (*File, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	f := &File{
		Path:     filename,
		Package:  file.Name.Name,
		Declared: make(map[string]bool),
		Types:    make(map[string]string),
	}
	collectDecls(file, f)

	if err := extractConstructors(fset, file, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ScanPackage collects the top-level names declared by the files of package
// pkg in dir, each mapped to the first file declaring it. Files written by
// boxarray, files of other packages and paths for which skip reports true
// are left out. A missing dir declares nothing.
func ScanPackage(dir, pkg string, skip func(path string) bool) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	declared := make(map[string]string)
	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		path := filepath.Join(dir, name)
		if skip != nil && skip(path) {
			continue
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
		if file.Name.Name != pkg || isGenerated(file) {
			continue
		}

		f := &File{Declared: make(map[string]bool), Types: make(map[string]string)}
		collectDecls(file, f)
		for decl := range f.Declared {
			if _, ok := declared[decl]; !ok {
				declared[decl] = path
			}
		}
	}
	return declared, nil
}

// isGenerated reports whether file was written by boxarray. Those files
// are replaced on the next run, so their names do not count as taken.
func isGenerated(file *ast.File) bool {
	if len(file.Comments) == 0 || file.Comments[0].Pos() > file.Package {
		return false
	}
	return strings.HasPrefix(file.Comments[0].List[0].Text, GeneratedHeader)
}

func extractConstructors(fset *token.FileSet, file *ast.File, f *File) error {
	var errs []error

	for _, group := range file.Comments {
		for _, comment := range group.List {
			pos := fset.Position(comment.Slash)

			text := comment.Text
			if strings.HasPrefix(text, "/*") {
				text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
			}

			// A block comment can hold several directives, one per line
			for i, line := range strings.Split(text, "\n") {
				cleaned := CleanComment(line)

				found, err := FindAnnotations([]string{cleaned})
				if err != nil {
					linePos := pos
					linePos.Line += i
					errs = append(errs, fmt.Errorf("%s: %w", linePos, err))
					continue
				}
				for _, c := range found {
					c.Pos = pos
					c.Pos.Line += i
					f.Constructors = append(f.Constructors, *c)
				}
			}
		}
	}

	return errors.Join(errs...)
}

func collectDecls(file *ast.File, f *File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				f.Declared[d.Name.Name] = true
			}

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					f.Declared[s.Name.Name] = true
					// Record defined types so elem=Name can be sized
					if s.TypeParams == nil {
						if underlying, ok := typeToString(s.Type); ok {
							f.Types[s.Name.Name] = underlying
						}
					}
				case *ast.ValueSpec:
					for _, name := range s.Names {
						f.Declared[name.Name] = true
					}
				}
			}
		}
	}
}

// ParseElem parses and normalizes an element type expression
// ("uint64", "[4]byte", "*Node", "time.Duration").
func ParseElem(s string) (string, error) {
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return "", fmt.Errorf("invalid elem type: %s", s)
	}
	elem, ok := typeToString(expr)
	if !ok {
		return "", fmt.Errorf("unsupported elem type: %s", s)
	}
	return elem, nil
}

// typeToString converts AST type expression to string
// Returns false for expressions that are not plain type names or
// composites of them.
func typeToString(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		// Simple type: uint16, Score, etc.
		return t.Name, true

	case *ast.SelectorExpr:
		// Qualified type: time.Duration
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return "", false
		}
		return pkg.Name + "." + t.Sel.Name, true

	case *ast.ArrayType:
		elem, ok := typeToString(t.Elt)
		if !ok {
			return "", false
		}
		if t.Len == nil {
			// Slice: []byte
			return "[]" + elem, true
		}
		// Array: [8]byte
		n, ok := exprToString(t.Len)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("[%s]%s", n, elem), true

	case *ast.StarExpr:
		// Pointer: *Node
		elem, ok := typeToString(t.X)
		if !ok {
			return "", false
		}
		return "*" + elem, true

	case *ast.MapType:
		key, ok := typeToString(t.Key)
		if !ok {
			return "", false
		}
		value, ok := typeToString(t.Value)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("map[%s]%s", key, value), true

	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}", true
		}
		return "", false

	default:
		return "", false
	}
}

func exprToString(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return "", false
		}
		return e.Value, true
	case *ast.Ident:
		return e.Name, true
	default:
		return "", false
	}
}
