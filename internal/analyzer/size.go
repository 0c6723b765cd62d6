package analyzer

import (
	"errors"
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexhholmes/boxarray/boxed"
)

// ErrUnknownSize is returned by SizeOf for types whose size depends on
// declarations the generator cannot see (structs, imported types).
var ErrUnknownSize = errors.New("size not known at generation time")

const wordSize = bits.UintSize / 8

// maxBytes is the allocation limit enforced by boxed.Reserve.
const maxBytes = int64(boxed.MaxBytes)

// SizeOf returns the size in bytes of a Go type on the generating platform
func SizeOf(goType string) (int64, error) {
	// Primitive types
	switch goType {
	case "uint8", "int8", "byte", "bool":
		return 1, nil
	case "uint16", "int16":
		return 2, nil
	case "uint32", "int32", "rune", "float32":
		return 4, nil
	case "uint64", "int64", "float64", "complex64":
		return 8, nil
	case "complex128":
		return 16, nil
	case "int", "uint", "uintptr":
		return wordSize, nil
	case "string", "any", "interface{}", "error":
		return 2 * wordSize, nil
	}

	// Slice: []T - check before array
	if strings.HasPrefix(goType, "[]") {
		return 3 * wordSize, nil
	}

	// Array: [N]T
	if strings.HasPrefix(goType, "[") && strings.Contains(goType, "]") {
		return arraySize(goType, SizeOf)
	}

	// Pointer and map headers are one word
	if strings.HasPrefix(goType, "*") || strings.HasPrefix(goType, "map[") {
		return wordSize, nil
	}

	return 0, fmt.Errorf("%s: %w", goType, ErrUnknownSize)
}

var arrayRe = regexp.MustCompile(`^\[(\d+)\](.+)$`)

func arraySize(goType string, sizeOf func(string) (int64, error)) (int64, error) {
	// Parse: [16]byte → 16 * 1
	matches := arrayRe.FindStringSubmatch(goType)
	if matches == nil {
		// Length is a named constant
		return 0, fmt.Errorf("%s: %w", goType, ErrUnknownSize)
	}

	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid array length: %s", matches[1])
	}

	elemSize, err := sizeOf(matches[2])
	if err != nil {
		return 0, err
	}

	if elemSize > 0 && n > maxBytes/elemSize {
		return 0, fmt.Errorf("%s exceeds %d bytes", goType, maxBytes)
	}
	return n * elemSize, nil
}

// TypeRegistry tracks defined types so element sizes can be resolved
// through them (type Score uint32)
type TypeRegistry struct {
	aliases map[string]string // defined type → underlying type
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		aliases: make(map[string]string),
	}
}

// RegisterAlias adds a defined type mapping (e.g., type PageID uint64)
func (r *TypeRegistry) RegisterAlias(alias, underlying string) {
	r.aliases[alias] = underlying
}

// ResolveType resolves defined types to their underlying types
// Returns the original type if not registered
func (r *TypeRegistry) ResolveType(goType string) string {
	seen := make(map[string]bool)
	for !seen[goType] {
		seen[goType] = true
		underlying, ok := r.aliases[goType]
		if !ok {
			break
		}
		goType = underlying
	}
	return goType
}

// SizeOf calculates size using the registry for defined types
func (r *TypeRegistry) SizeOf(goType string) (int64, error) {
	return r.sizeOf(goType, 0)
}

func (r *TypeRegistry) sizeOf(goType string, depth int) (int64, error) {
	if depth > len(r.aliases) {
		return 0, fmt.Errorf("invalid recursive type: %s", goType)
	}
	resolved := r.ResolveType(goType)

	// Arrays of registered types: [N]Score
	if strings.HasPrefix(resolved, "[") && !strings.HasPrefix(resolved, "[]") {
		return arraySize(resolved, func(elem string) (int64, error) {
			return r.sizeOf(elem, depth+1)
		})
	}

	return SizeOf(resolved)
}
