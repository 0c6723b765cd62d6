// Package config loads boxarray manifests: HCL files that list the
// constructors to generate when they are not declared next to the code
// that uses them.
//
//	package = "arrays"
//	output  = "arrays_boxed.go"
//
//	constructor "Seq" {
//	  size = 3
//	}
//
//	constructor "grid" {
//	  size = 16
//	  mode = "inline"
//	  elem = "uint64"
//	  try  = true
//	}
package config

import (
	"errors"
	"fmt"
	"go/token"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/alexhholmes/boxarray/internal/parser"
)

// Manifest is a decoded manifest file
type Manifest struct {
	Path         string
	Package      string
	Output       string
	Constructors []parser.Constructor
}

// hclManifest represents the top-level structure of a manifest for decoding.
type hclManifest struct {
	Package      string            `hcl:"package"`
	Output       string            `hcl:"output,optional"`
	Constructors []*hclConstructor `hcl:"constructor,block"`
}

type hclConstructor struct {
	Name string `hcl:"name,label"`
	Size int    `hcl:"size"`
	Mode string `hcl:"mode,optional"`
	Elem string `hcl:"elem,optional"`
	Try  bool   `hcl:"try,optional"`
}

// Load parses and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	hclFile, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decode(path, hclFile.Body)
}

// Parse decodes manifest source held in memory. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Manifest, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(filename, hclFile.Body)
}

func decode(path string, body hcl.Body) (*Manifest, error) {
	var parsed hclManifest
	diags := gohcl.DecodeBody(body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	m := &Manifest{
		Path:    path,
		Package: parsed.Package,
		Output:  parsed.Output,
	}

	var errs []error
	for _, block := range parsed.Constructors {
		c, err := block.constructor(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: constructor %q: %w", path, block.Name, err))
			continue
		}
		m.Constructors = append(m.Constructors, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

func (b *hclConstructor) constructor(path string) (parser.Constructor, error) {
	mode, err := parser.ParseMode(b.Mode)
	if err != nil {
		return parser.Constructor{}, err
	}

	c := parser.Constructor{
		Name: b.Name,
		Size: b.Size,
		Mode: mode,
		Try:  b.Try,
		Pos:  token.Position{Filename: path},
	}

	if b.Elem != "" {
		elem, err := parser.ParseElem(b.Elem)
		if err != nil {
			return parser.Constructor{}, err
		}
		c.Elem = elem
	}

	return c, nil
}

// File adapts the manifest to the parsed-file form the analyzer consumes.
func (m *Manifest) File() *parser.File {
	return &parser.File{
		Path:         m.Path,
		Package:      m.Package,
		Constructors: m.Constructors,
	}
}
