package codegen

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/alexhholmes/boxarray/internal/analyzer"
	"github.com/alexhholmes/boxarray/internal/parser"
)

// RuntimeImport is the import path of the package runtime-mode
// constructors call into.
const RuntimeImport = "github.com/alexhholmes/boxarray/boxed"

// Generator generates heap array constructors for one output file
type Generator struct {
	analyzed      *analyzer.AnalyzedFile
	runtimeImport string // import path of the boxed package
	helper        string // name of this file's release helper
}

// NewGenerator creates a new code generator
func NewGenerator(analyzed *analyzer.AnalyzedFile, runtimeImport string) *Generator {
	if runtimeImport == "" {
		runtimeImport = RuntimeImport
	}
	return &Generator{
		analyzed:      analyzed,
		runtimeImport: runtimeImport,
		helper:        analyzer.ReleaseHelper,
	}
}

// ReleaseHelperName returns the release helper name for the output file
// filename. Several outputs share a package, so the name is derived from
// the file: arrays_boxed.go → boxarrayReleaseArraysBoxed.
func ReleaseHelperName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), ".go")

	var name strings.Builder
	name.WriteString(analyzer.ReleaseHelper)
	upper := true
	for _, r := range base {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		name.WriteRune(r)
	}
	return name.String()
}

// Generate returns the complete, formatted source of the generated file.
// filename is where the output will be written; it steers import
// resolution for qualified element types.
func (g *Generator) Generate(filename string) ([]byte, error) {
	if !g.analyzed.IsValid() {
		return nil, fmt.Errorf("cannot generate from invalid input: %s", strings.Join(g.analyzed.Errors, "; "))
	}

	g.helper = ReleaseHelperName(filename)

	var out strings.Builder
	out.WriteString(g.header())

	for _, c := range g.analyzed.Constructors {
		out.WriteString("\n")
		out.WriteString(g.GenerateConstructor(c))
		if c.Try {
			out.WriteString("\n")
			out.WriteString(g.GenerateTry(c))
		}
	}

	if g.analyzed.HasMode(parser.Inline) {
		out.WriteString("\n")
		out.WriteString(g.generateReleaseHelper())
	}

	src := []byte(out.String())
	formatted, err := imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", filename, err, src)
	}
	return formatted, nil
}

// header emits the generated-code marker, package clause and imports
func (g *Generator) header() string {
	var code strings.Builder

	if g.analyzed.Source != "" {
		code.WriteString(fmt.Sprintf("%s from %s. DO NOT EDIT.\n\n",
			parser.GeneratedHeader, filepath.Base(g.analyzed.Source)))
	} else {
		code.WriteString(parser.GeneratedHeader + ". DO NOT EDIT.\n\n")
	}
	code.WriteString(fmt.Sprintf("package %s\n\n", g.analyzed.Package))

	var specs []string
	if g.analyzed.HasInlineTry() {
		specs = append(specs, `"fmt"`)
	}
	if g.analyzed.HasMode(parser.Inline) {
		specs = append(specs, `"reflect"`)
	}
	if g.analyzed.HasMode(parser.Runtime) {
		// Generated bodies call boxed.Fill whatever the path's last element
		spec := fmt.Sprintf("%q", g.runtimeImport)
		if path.Base(g.runtimeImport) != analyzer.RuntimePackage {
			spec = analyzer.RuntimePackage + " " + spec
		}
		specs = append(specs, spec)
	}
	if len(specs) > 0 {
		code.WriteString("import (\n")
		for _, spec := range specs {
			code.WriteString("\t" + spec + "\n")
		}
		code.WriteString(")\n")
	}

	return code.String()
}

// GenerateConstructor generates the constructor function
func (g *Generator) GenerateConstructor(c analyzer.Constructor) string {
	if c.Mode == parser.Inline {
		return g.generateInline(c)
	}
	return g.generateRuntime(c)
}

// GenerateTry generates the fallible variant of the constructor
func (g *Generator) GenerateTry(c analyzer.Constructor) string {
	if c.Mode == parser.Inline {
		return g.generateInlineTry(c)
	}
	return g.generateRuntimeTry(c)
}

// generateRuntime delegates construction to boxed.Fill
func (g *Generator) generateRuntime(c analyzer.Constructor) string {
	var code strings.Builder
	elem, array := elemType(c), arrayType(c)

	code.WriteString(docComment(c))
	code.WriteString(fmt.Sprintf("func %s[%s](init F) *%s {\n", c.Name, typeParams(c, false), array))
	code.WriteString(fmt.Sprintf("\treturn (*%s)(boxed.Fill[%s, F](%d, init))\n", array, elem, c.Size))
	code.WriteString("}\n")

	return code.String()
}

// generateRuntimeTry delegates construction to boxed.TryFill
func (g *Generator) generateRuntimeTry(c analyzer.Constructor) string {
	var code strings.Builder
	elem, array := elemType(c), arrayType(c)

	code.WriteString(fmt.Sprintf("// %s is %s for an initializer that can fail. The first error is\n", c.TryName, c.Name))
	code.WriteString("// returned as *boxed.InitError and no array is built.\n")
	code.WriteString(fmt.Sprintf("func %s[%s](init F) (*%s, error) {\n", c.TryName, typeParams(c, true), array))
	code.WriteString(fmt.Sprintf("\ts, err := boxed.TryFill[%s, F](%d, init)\n", elem, c.Size))
	code.WriteString("\tif err != nil {\n")
	code.WriteString("\t\treturn nil, err\n")
	code.WriteString("\t}\n")
	code.WriteString(fmt.Sprintf("\treturn (*%s)(s), nil\n", array))
	code.WriteString("}\n")

	return code.String()
}

// generateInline emits the reserve, fill, convert protocol without
// depending on the boxed package
func (g *Generator) generateInline(c analyzer.Constructor) string {
	var code strings.Builder
	array := arrayType(c)

	code.WriteString(docComment(c))
	code.WriteString(fmt.Sprintf("func %s[%s](init F) *%s {\n", c.Name, typeParams(c, false), array))
	code.WriteString(g.inlineReserve(c))
	code.WriteString(fmt.Sprintf("\tfor i := 0; i < %d; i++ {\n", c.Size))
	code.WriteString("\t\ts = append(s, init(i))\n")
	code.WriteString("\t}\n")
	code.WriteString(fmt.Sprintf("\treturn (*%s)(s)\n", array))
	code.WriteString("}\n")

	return code.String()
}

func (g *Generator) generateInlineTry(c analyzer.Constructor) string {
	var code strings.Builder
	array := arrayType(c)

	code.WriteString(fmt.Sprintf("// %s is %s for an initializer that can fail. The first error stops\n", c.TryName, c.Name))
	code.WriteString("// construction and no array is built.\n")
	code.WriteString(fmt.Sprintf("func %s[%s](init F) (*%s, error) {\n", c.TryName, typeParams(c, true), array))
	code.WriteString(g.inlineReserve(c))
	code.WriteString(fmt.Sprintf("\tfor i := 0; i < %d; i++ {\n", c.Size))
	code.WriteString("\t\tv, err := init(i)\n")
	code.WriteString("\t\tif err != nil {\n")
	code.WriteString("\t\t\treturn nil, fmt.Errorf(\"init %d: %w\", i, err)\n")
	code.WriteString("\t\t}\n")
	code.WriteString("\t\ts = append(s, v)\n")
	code.WriteString("\t}\n")
	code.WriteString(fmt.Sprintf("\treturn (*%s)(s), nil\n", array))
	code.WriteString("}\n")

	return code.String()
}

// inlineReserve allocates exactly Size slots and defers release of the
// constructed prefix if the fill loop does not complete
func (g *Generator) inlineReserve(c analyzer.Constructor) string {
	var code strings.Builder

	code.WriteString(fmt.Sprintf("\ts := make([]%s, 0, %d)\n", elemType(c), c.Size))
	code.WriteString("\tdefer func() {\n")
	code.WriteString(fmt.Sprintf("\t\tif len(s) < %d {\n", c.Size))
	code.WriteString(fmt.Sprintf("\t\t\t%s(s)\n", g.helper))
	code.WriteString("\t\t}\n")
	code.WriteString("\t}()\n")

	return code.String()
}

// generateReleaseHelper emits the shared cleanup used by inline constructors
func (g *Generator) generateReleaseHelper() string {
	var code strings.Builder

	code.WriteString(fmt.Sprintf("// %s releases the constructed prefix of an abandoned array.\n", g.helper))
	code.WriteString("// Nil pointer elements own nothing and are skipped.\n")
	code.WriteString(fmt.Sprintf("func %s[T any](s []T) {\n", g.helper))
	code.WriteString("\tfor i := range s {\n")
	code.WriteString("\t\tif v := reflect.ValueOf(s[i]); v.Kind() == reflect.Pointer && v.IsNil() {\n")
	code.WriteString("\t\t\tcontinue\n")
	code.WriteString("\t\t}\n")
	code.WriteString("\t\tif r, ok := any(s[i]).(interface{ Release() }); ok {\n")
	code.WriteString("\t\t\tr.Release()\n")
	code.WriteString("\t\t} else if r, ok := any(&s[i]).(interface{ Release() }); ok {\n")
	code.WriteString("\t\t\tr.Release()\n")
	code.WriteString("\t\t}\n")
	code.WriteString("\t}\n")
	code.WriteString("\tclear(s)\n")
	code.WriteString("}\n")

	return code.String()
}

func docComment(c analyzer.Constructor) string {
	if c.Size == 0 {
		return fmt.Sprintf("// %s returns an empty heap-allocated %s; init is never called.\n",
			c.Name, arrayType(c))
	}
	return fmt.Sprintf("// %s returns a heap-allocated %s with element i set to init(i).\n",
		c.Name, arrayType(c))
}

// typeParams returns the type parameter list: generic over the element
// type unless elem= fixed it, and always over the initializer type
func typeParams(c analyzer.Constructor, try bool) string {
	result := elemType(c)
	if try {
		result = fmt.Sprintf("(%s, error)", result)
	}
	if c.Elem == "" {
		return fmt.Sprintf("T any, F ~func(int) %s", result)
	}
	return fmt.Sprintf("F ~func(int) %s", result)
}

func elemType(c analyzer.Constructor) string {
	if c.Elem == "" {
		return "T"
	}
	return c.Elem
}

func arrayType(c analyzer.Constructor) string {
	return fmt.Sprintf("[%d]%s", c.Size, elemType(c))
}
