package main

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexhholmes/boxarray/internal/analyzer"
	"github.com/alexhholmes/boxarray/internal/codegen"
	"github.com/alexhholmes/boxarray/internal/config"
	"github.com/alexhholmes/boxarray/internal/parser"
)

type options struct {
	name          string
	size          int
	mode          string
	elem          string
	try           bool
	pkg           string
	output        string
	config        string
	runtimeImport string
	verbose       bool
	dryRun        bool
}

// job is one generated output file
type job struct {
	file   *parser.File
	output string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "boxarray [flags] [file.go ...]",
		Short: "Generate heap-allocated fixed-size array constructors",
		Long: `boxarray generates functions that build [N]T arrays directly on the heap.

Constructors come from @boxed directives in Go files, from --name/--size,
or from an HCL manifest given with --config. With no input, $GOFILE (set by
go generate) is scanned.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			jobs, err := opts.jobs(cmd, args, logger)
			if err != nil {
				return err
			}
			return generate(cmd, jobs, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "n", "", "name of a single constructor to generate")
	flags.IntVarP(&opts.size, "size", "s", 0, "array length for --name")
	flags.StringVar(&opts.mode, "mode", "runtime", "construction mode for --name: runtime or inline")
	flags.StringVar(&opts.elem, "elem", "", "concrete element type for --name (default generic)")
	flags.BoolVar(&opts.try, "try", false, "also generate the fallible Try variant for --name")
	flags.StringVarP(&opts.pkg, "package", "p", "", "package of the generated file (default $GOPACKAGE or the input's package)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default <input>_boxed.go)")
	flags.StringVarP(&opts.config, "config", "c", "", "HCL manifest listing constructors")
	flags.StringVar(&opts.runtimeImport, "runtime-import", codegen.RuntimeImport, "import path of the boxed package")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print generated code to stdout instead of writing files")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(newListCmd())
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// jobs resolves the inputs into output files
func (o *options) jobs(cmd *cobra.Command, args []string, logger *zap.Logger) ([]job, error) {
	single := o.name != "" || cmd.Flags().Changed("size")

	switch {
	case o.config != "" && (single || len(args) > 0):
		return nil, usageError("--config cannot be combined with --name or input files")
	case single && len(args) > 0:
		return nil, usageError("--name cannot be combined with input files")
	case o.config != "":
		return o.manifestJob(logger)
	case single:
		return o.singleJob(logger)
	}

	if len(args) == 0 {
		gofile := os.Getenv("GOFILE")
		if gofile == "" {
			return nil, usageError("no input: pass Go files, --name/--size or --config")
		}
		args = []string{gofile}
	}
	if o.output != "" && len(args) > 1 {
		return nil, usageError("--output requires a single input file")
	}

	var jobs []job
	for _, path := range args {
		f, err := parser.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(f.Constructors) == 0 {
			logger.Info("no @boxed directives", zap.String("file", path))
			continue
		}
		if o.pkg != "" {
			f.Package = o.pkg
		}

		output := o.output
		if output == "" {
			output = strings.TrimSuffix(path, ".go") + "_boxed.go"
		}
		jobs = append(jobs, job{file: f, output: output})
	}
	return jobs, nil
}

func (o *options) manifestJob(logger *zap.Logger) ([]job, error) {
	m, err := config.Load(o.config)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded manifest",
		zap.String("path", m.Path),
		zap.Int("constructors", len(m.Constructors)))

	f := m.File()
	if o.pkg != "" {
		f.Package = o.pkg
	}

	output := o.output
	if output == "" {
		output = m.Output
		if output == "" {
			output = "boxed_gen.go"
		}
		// Manifest outputs are relative to the manifest
		if !filepath.IsAbs(output) {
			output = filepath.Join(filepath.Dir(m.Path), output)
		}
	}
	return []job{{file: f, output: output}}, nil
}

func (o *options) singleJob(logger *zap.Logger) ([]job, error) {
	if o.name == "" {
		return nil, usageError("--size requires --name")
	}

	mode, err := parser.ParseMode(o.mode)
	if err != nil {
		return nil, usageError("--mode: %v", err)
	}
	c := parser.Constructor{
		Name: o.name,
		Size: o.size,
		Mode: mode,
		Try:  o.try,
		Pos:  token.Position{Filename: "--name"},
	}
	if o.elem != "" {
		if c.Elem, err = parser.ParseElem(o.elem); err != nil {
			return nil, usageError("--elem: %v", err)
		}
	}

	f := &parser.File{Package: os.Getenv("GOPACKAGE")}

	// Under go generate, check against the declarations of the invoking file
	if gofile := os.Getenv("GOFILE"); gofile != "" {
		parsed, err := parser.ParseFile(gofile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", gofile, err)
		}
		logger.Debug("checking declarations", zap.String("file", gofile))
		f = parsed
	}
	f.Constructors = []parser.Constructor{c}

	if o.pkg != "" {
		f.Package = o.pkg
	}
	if f.Package == "" {
		return nil, usageError("--package is required outside go generate")
	}

	output := o.output
	if output == "" {
		output = strings.ToLower(o.name) + "_boxed.go"
	}
	return []job{{file: f, output: output}}, nil
}

// generate analyzes and renders the jobs in parallel, checks the files
// landing in each package against each other, then writes the results in
// order
func generate(cmd *cobra.Command, jobs []job, o *options, logger *zap.Logger) error {
	analyzed := make([]*analyzer.AnalyzedFile, len(jobs))
	if err := parallel(jobs, func(i int, j job) error {
		a, err := analyzer.Analyze(j.file)
		analyzed[i] = a
		return err
	}); err != nil {
		return err
	}

	if err := checkPackages(jobs, analyzed, logger); err != nil {
		return err
	}

	results := make([][]byte, len(jobs))
	if err := parallel(jobs, func(i int, j job) error {
		src, err := codegen.NewGenerator(analyzed[i], o.runtimeImport).Generate(j.output)
		results[i] = src
		return err
	}); err != nil {
		return err
	}

	for i, j := range jobs {
		if o.dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "// %s\n%s", j.output, results[i])
			continue
		}
		if err := os.WriteFile(j.output, results[i], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", j.output, err)
		}
		logger.Info("generated",
			zap.String("output", j.output),
			zap.Int("constructors", len(j.file.Constructors)))
	}
	return nil
}

func parallel(jobs []job, fn func(i int, j job) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			return fn(i, j)
		})
	}
	return g.Wait()
}

// checkPackages groups the jobs by output directory and package and checks
// each group against the other source files of that package
func checkPackages(jobs []job, analyzed []*analyzer.AnalyzedFile, logger *zap.Logger) error {
	type pkgKey struct{ dir, pkg string }

	var order []pkgKey
	groups := make(map[pkgKey][]int)
	for i, j := range jobs {
		key := pkgKey{dir: filepath.Dir(j.output), pkg: analyzed[i].Package}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		// The inputs were checked against their own declarations, and the
		// outputs are about to be replaced
		own := make(map[string]bool)
		files := make([]*analyzer.AnalyzedFile, 0, len(groups[key]))
		for _, i := range groups[key] {
			own[absPath(jobs[i].file.Path)] = true
			own[absPath(jobs[i].output)] = true
			files = append(files, analyzed[i])
		}

		declared, err := parser.ScanPackage(key.dir, key.pkg, func(path string) bool {
			return own[absPath(path)]
		})
		if err != nil {
			return fmt.Errorf("scan package %s in %s: %w", key.pkg, key.dir, err)
		}
		logger.Debug("checking package",
			zap.String("dir", key.dir),
			zap.String("package", key.pkg),
			zap.Int("files", len(files)),
			zap.Int("declared", len(declared)))

		if err := analyzer.CheckPackage(files, declared); err != nil {
			return err
		}
	}
	return nil
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
