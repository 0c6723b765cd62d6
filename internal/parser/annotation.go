package parser

import (
	"fmt"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

// Constructor holds one parsed @boxed directive
type Constructor struct {
	Name string // Generated function name
	Size int    // Array length, fixed per function
	Mode Mode
	Elem string // Concrete element type (empty = generic over T)
	Try  bool   // Also generate the fallible variant
	Pos  token.Position
}

var annotationRe = regexp.MustCompile(`^@boxed(?:\s+(.*))?$`)

// ParseAnnotation parses a @boxed directive from cleaned comment text
//
// Expected format:
//
//	// @boxed name=Seq size=3
//	// @boxed name=grid size=0x10 mode=inline
//	// @boxed name=Squares size=5 elem=uint64 try
//
// Params are space-separated key=value pairs. name and size are required;
// try may be given bare or as try=true/false.
func ParseAnnotation(comment string) (*Constructor, error) {
	matches := annotationRe.FindStringSubmatch(comment)
	if matches == nil {
		return nil, fmt.Errorf("no @boxed annotation found")
	}

	c := &Constructor{Size: -1}
	for _, param := range strings.Fields(matches[1]) {
		key, value, hasValue := strings.Cut(param, "=")
		if hasValue && value == "" {
			return nil, fmt.Errorf("%s= requires a value", key)
		}

		switch key {
		case "name":
			c.Name = value

		case "size":
			size, err := ParseSize(value)
			if err != nil {
				return nil, err
			}
			c.Size = size

		case "mode":
			mode, err := ParseMode(value)
			if err != nil {
				return nil, err
			}
			c.Mode = mode

		case "elem":
			elem, err := ParseElem(value)
			if err != nil {
				return nil, err
			}
			c.Elem = elem

		case "try":
			if !hasValue {
				c.Try = true
				continue
			}
			try, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid try value: %s", value)
			}
			c.Try = try

		default:
			return nil, fmt.Errorf("unknown parameter: %s", key)
		}
	}

	if c.Name == "" {
		return nil, fmt.Errorf("@boxed requires name=")
	}
	if c.Size < 0 {
		return nil, fmt.Errorf("@boxed requires size=")
	}

	return c, nil
}

// ParseSize parses an array length written as a Go integer literal
// ("16", "0x10", "1_024").
func ParseSize(s string) (int, error) {
	// ParseInt accepts a sign, integer literals do not
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("size must be non-negative, got: %s", s)
	}
	if strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid size: %s", s)
	}

	size, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %s", s)
	}
	return int(size), nil
}

// FindAnnotations parses every @boxed line in comments.
// Lines without the directive are ignored.
func FindAnnotations(comments []string) ([]*Constructor, error) {
	var found []*Constructor
	for _, comment := range comments {
		if !annotationRe.MatchString(comment) {
			continue
		}
		c, err := ParseAnnotation(comment)
		if err != nil {
			return found, err
		}
		found = append(found, c)
	}
	return found, nil
}

// CleanComment removes comment markers from a line
// "// @boxed name=Seq size=3" → "@boxed name=Seq size=3"
// "/* @boxed name=Seq size=3 */" → "@boxed name=Seq size=3"
func CleanComment(line string) string {
	line = strings.TrimSpace(line)

	// Remove // prefix
	if strings.HasPrefix(line, "//") {
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimSpace(line)
		return line
	}

	// Remove /* */ wrapper
	if strings.HasPrefix(line, "/*") && strings.HasSuffix(line, "*/") {
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)
		return line
	}

	return line
}
