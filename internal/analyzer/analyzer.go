package analyzer

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexhholmes/boxarray/internal/parser"
)

// ReleaseHelper prefixes the unexported helper emitted once into files
// that contain inline constructors. Each output file gets its own suffix.
const ReleaseHelper = "boxarrayRelease"

// Package names the generated code refers to. The runtime import is
// always referred to as boxed.
const (
	RuntimePackage = "boxed"
	fmtPackage     = "fmt"
	reflectPackage = "reflect"
)

// Constructor is a validated constructor ready for code generation
type Constructor struct {
	parser.Constructor
	TryName  string // Name of the fallible variant (empty unless Try)
	ElemSize int64  // Bytes per element, -1 if unknown or generic
}

// AnalyzedFile holds the constructors to emit into one generated file
type AnalyzedFile struct {
	Package      string
	Source       string // Input the constructors came from (for the header)
	Constructors []Constructor
	Errors       []string // Validation errors
}

// Analyze validates the constructors of a parsed file
func Analyze(file *parser.File) (*AnalyzedFile, error) {
	if file == nil {
		return nil, fmt.Errorf("file is nil")
	}

	a := &AnalyzedFile{
		Package: file.Package,
		Source:  file.Path,
	}

	if !token.IsIdentifier(file.Package) || file.Package == "_" {
		a.Errors = append(a.Errors, fmt.Sprintf("invalid package name: %q", file.Package))
	}

	registry := NewTypeRegistry()
	for name, underlying := range file.Types {
		registry.RegisterAlias(name, underlying)
	}

	// Phase 1: Validate each constructor on its own
	for _, c := range file.Constructors {
		ctor, err := analyzeConstructor(c, registry)
		if err != nil {
			a.Errors = append(a.Errors, fmt.Sprintf("%s: %v", location(c), err))
			continue
		}
		a.Constructors = append(a.Constructors, ctor)
	}

	// Phase 2: Detect name collisions
	detectCollisions(a, file.Declared)
	detectImportShadowing(a)

	if len(a.Errors) > 0 {
		return a, fmt.Errorf("constructors have %d errors:\n%s", len(a.Errors), strings.Join(a.Errors, "\n"))
	}
	return a, nil
}

func analyzeConstructor(c parser.Constructor, registry *TypeRegistry) (Constructor, error) {
	ctor := Constructor{Constructor: c, ElemSize: -1}

	if err := validateName(c.Name); err != nil {
		return ctor, err
	}
	if c.Size < 0 {
		return ctor, fmt.Errorf("size must be non-negative, got: %d", c.Size)
	}
	if c.Mode != parser.Runtime && c.Mode != parser.Inline {
		return ctor, fmt.Errorf("unknown mode: %s", c.Mode)
	}

	if c.Try {
		ctor.TryName = TryName(c.Name)
		if err := validateName(ctor.TryName); err != nil {
			return ctor, err
		}
	}

	// Catch allocation failures at generation time when the element size
	// is known
	if c.Elem != "" {
		size, err := registry.SizeOf(c.Elem)
		switch {
		case errors.Is(err, ErrUnknownSize):
		case err != nil:
			return ctor, fmt.Errorf("elem: %w", err)
		default:
			ctor.ElemSize = size
			if size > 0 && int64(c.Size) > maxBytes/size {
				return ctor, fmt.Errorf("%d elements of %s exceed the %d byte allocation limit",
					c.Size, c.Elem, maxBytes)
			}
		}
	}

	return ctor, nil
}

func validateName(name string) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("invalid name: %q", name)
	}
	switch name {
	case "_":
		return fmt.Errorf("name cannot be blank")
	case "init", "main":
		return fmt.Errorf("name cannot be %s", name)
	}
	if strings.HasPrefix(name, ReleaseHelper) {
		return fmt.Errorf("name %s is reserved", name)
	}
	// Generated bodies use any, make, len, append, clear, int and error
	if types.Universe.Lookup(name) != nil {
		return fmt.Errorf("name %s shadows a predeclared identifier", name)
	}
	return nil
}

// TryName returns the name of the fallible variant: Seq → TrySeq,
// seq → trySeq.
func TryName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return "Try" + name
	}
	return "try" + string(unicode.ToUpper(r)) + name[size:]
}

func detectCollisions(a *AnalyzedFile, declared map[string]bool) {
	seen := make(map[string]Constructor)

	check := func(name string, c Constructor) {
		if declared[name] {
			a.Errors = append(a.Errors,
				fmt.Sprintf("%s: %s already declared in %s", location(c.Constructor), name, a.Source))
			return
		}
		if prev, ok := seen[name]; ok {
			a.Errors = append(a.Errors,
				fmt.Sprintf("collision: %s at %s redeclares %s from %s",
					c.Name, location(c.Constructor), name, location(prev.Constructor)))
			return
		}
		seen[name] = c
	}

	for _, c := range a.Constructors {
		for _, name := range c.Names() {
			check(name, c)
		}
	}
}

// detectImportShadowing rejects names that would hide a package the
// generated file refers to
func detectImportShadowing(a *AnalyzedFile) {
	imported := map[string]bool{
		RuntimePackage: a.HasMode(parser.Runtime),
		fmtPackage:     a.HasInlineTry(),
		reflectPackage: a.HasMode(parser.Inline),
	}

	for _, c := range a.Constructors {
		for _, name := range c.Names() {
			if imported[name] {
				a.Errors = append(a.Errors,
					fmt.Sprintf("%s: %s shadows the %s import of the generated file", location(c.Constructor), name, name))
			}
		}
	}
}

// CheckPackage detects collisions between files generated into the same
// package: a name emitted by two files, or one already declared by another
// source file of the package (declared maps names to their file).
func CheckPackage(files []*AnalyzedFile, declared map[string]string) error {
	var errs []string
	seen := make(map[string]Constructor)

	for _, a := range files {
		for _, c := range a.Constructors {
			for _, name := range c.Names() {
				if where, ok := declared[name]; ok {
					errs = append(errs,
						fmt.Sprintf("%s: %s already declared in %s", location(c.Constructor), name, where))
					continue
				}
				if prev, ok := seen[name]; ok {
					errs = append(errs,
						fmt.Sprintf("collision: %s at %s redeclares %s from %s",
							c.Name, location(c.Constructor), name, location(prev.Constructor)))
					continue
				}
				seen[name] = c
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("package has %d errors:\n%s", len(errs), strings.Join(errs, "\n"))
	}
	return nil
}

// Names returns the functions emitted for c
func (c Constructor) Names() []string {
	if c.TryName == "" {
		return []string{c.Name}
	}
	return []string{c.Name, c.TryName}
}

func location(c parser.Constructor) string {
	if c.Pos.IsValid() {
		return c.Pos.String()
	}
	if c.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", c.Pos.Filename, c.Name)
	}
	return c.Name
}

// IsValid returns true if the file has no errors
func (a *AnalyzedFile) IsValid() bool {
	return len(a.Errors) == 0
}

// HasMode reports whether any constructor uses mode m
func (a *AnalyzedFile) HasMode(m parser.Mode) bool {
	for _, c := range a.Constructors {
		if c.Mode == m {
			return true
		}
	}
	return false
}

// HasInlineTry reports whether an inline fallible variant is emitted
func (a *AnalyzedFile) HasInlineTry() bool {
	for _, c := range a.Constructors {
		if c.Mode == parser.Inline && c.Try {
			return true
		}
	}
	return false
}
