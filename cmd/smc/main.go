// Command smc is the state-machine compiler's command-line driver: load a
// model file, validate it, and emit Graphviz plus one or more target-language
// sources, mirroring the original compiler's argparse-based main().
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ingvast/sm-compiler/loader"
	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/normalize"
	"github.com/ingvast/sm-compiler/render"
	"github.com/ingvast/sm-compiler/target/cgen"
	"github.com/ingvast/sm-compiler/target/pygen"
	"github.com/ingvast/sm-compiler/target/rustgen"
)

// Version is the compiler's own version string, printed by -v/--version.
const Version = "0.1.0"

var supportedLangs = map[string]bool{"c": true, "rust": true, "python": true}

func main() {
	var (
		lang        string
		outputBase  string
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:           "smc <model-file>",
		Short:         "Compile a hierarchical state machine model into target-language source",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("smc version " + Version)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one model file argument")
			}
			return run(args[0], lang, outputBase)
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "override the model's target language(s) (c|rust|python)")
	cmd.Flags().StringVarP(&outputBase, "output", "o", "", "output base path without extension (default: ./statemachine)")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(path, langOverride, outputBase string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %q not found: %w", path, err)
	}

	root, err := loader.Load(path)
	if err != nil {
		return err
	}

	m, err := normalize.Build(root)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	fmt.Println("Validating model...")
	if err := normalize.Validate(m); err != nil {
		fmt.Fprintln(os.Stderr, "\n!!! VALIDATION ERRORS !!!")
		if verrs, ok := err.(normalize.ValidationErrors); ok {
			for _, e := range verrs {
				fmt.Fprintln(os.Stderr, "-", e)
			}
		} else {
			fmt.Fprintln(os.Stderr, "-", err)
		}
		fmt.Fprintln(os.Stderr, "-------------------------")
		return err
	}
	fmt.Println("Model OK.")

	languages := m.Languages
	if langOverride != "" {
		languages = []string{langOverride}
	}
	for _, l := range languages {
		if !supportedLangs[l] {
			return fmt.Errorf("unsupported language %q (supported: c, rust, python)", l)
		}
	}

	if outputBase == "" {
		outputBase = filepath.Join(".", "statemachine")
	}
	if dir := filepath.Dir(outputBase); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	fmt.Println("Generating Graphviz DOT...")
	dotPath := outputBase + ".dot"
	if err := os.WriteFile(dotPath, []byte(render.DOT(m)), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", dotPath, err)
	}
	fmt.Println(" ->", dotPath, "created.")

	if unreached, err := render.Unreachable(m); err == nil && len(unreached) > 0 {
		fmt.Println("WARNING: unreachable states:", unreached)
	}

	for _, l := range languages {
		if err := generateLang(l, m, outputBase); err != nil {
			return &emissionFailure{lang: l, err: err}
		}
	}
	return nil
}

type emissionFailure struct {
	lang string
	err  error
}

func (e *emissionFailure) Error() string {
	return fmt.Sprintf("generating %s output: %v", e.lang, e.err)
}

func (e *emissionFailure) Unwrap() error { return e.err }

func generateLang(lang string, m *model.Model, outputBase string) error {
	switch lang {
	case "rust":
		fmt.Println("Generating Rust code...")
		src, err := rustgen.Generate(m)
		if err != nil {
			return err
		}
		path := outputBase + ".rs"
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", path, err)
		}
		fmt.Println(" ->", path, "created.")

	case "c":
		fmt.Println("Generating C code...")
		hPath, cPath := outputBase+".h", outputBase+".c"
		header, source, err := cgen.Generate(m, filepath.Base(hPath))
		if err != nil {
			return err
		}
		if err := os.WriteFile(hPath, []byte(header), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", hPath, err)
		}
		if err := os.WriteFile(cPath, []byte(source), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", cPath, err)
		}
		fmt.Println(" ->", cPath, "/ .h created.")

	case "python":
		fmt.Println("Generating Python reference code...")
		src, err := pygen.Generate(m)
		if err != nil {
			return err
		}
		path := outputBase + ".py"
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", path, err)
		}
		fmt.Println(" ->", path, "created.")

	default:
		return fmt.Errorf("unknown language %q", lang)
	}
	return nil
}
