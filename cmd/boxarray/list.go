package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexhholmes/boxarray/internal/parser"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list file.go [file.go ...]",
		Short: "Print the @boxed directives found in Go files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, filename := range args {
				f, err := parser.ParseFile(filename)
				if err != nil {
					return fmt.Errorf("%s: %w", filename, err)
				}

				if len(f.Constructors) == 0 {
					fmt.Fprintf(out, "%s: no @boxed directives found\n", filename)
					continue
				}

				fmt.Fprintf(out, "\n%s (package %s)\n", filename, f.Package)
				for _, c := range f.Constructors {
					elem := c.Elem
					if elem == "" {
						elem = "T"
					}
					fmt.Fprintf(out, "  %-15s %-20s %-8s", c.Name, fmt.Sprintf("[%d]%s", c.Size, elem), c.Mode)
					if c.Try {
						fmt.Fprint(out, " try")
					}
					fmt.Fprintf(out, " (line %d)\n", c.Pos.Line)
				}
			}
			return nil
		},
	}
}
