package parser

import (
	"fmt"
)

// Mode selects how a generated constructor builds its array.
type Mode int

const (
	Runtime Mode = iota // Delegates to the boxed package
	Inline              // Self-contained body, no module import
)

func (m Mode) String() string {
	switch m {
	case Runtime:
		return "runtime"
	case Inline:
		return "inline"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name. The empty string selects Runtime.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "runtime":
		return Runtime, nil
	case "inline":
		return Inline, nil
	default:
		return 0, fmt.Errorf("mode must be 'runtime' or 'inline', got: %s", s)
	}
}
