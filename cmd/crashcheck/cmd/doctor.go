package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crashcheck/crashcheck/internal/config"
	"github.com/crashcheck/crashcheck/internal/debugger"
	"github.com/crashcheck/crashcheck/internal/diagnostics"
)

var writeConfig bool

var doctorCmd = &cobra.Command{
	Use:   "doctor [bin-dir]",
	Short: "Check the environment for a verification run",
	Long: `Verify that a debugger is installed, symbol resolution is configured,
and (when a bin-dir is given) the instrumented targets and capture tools
are present.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&writeConfig, "write-config", false,
		"write a default .crashcheck.yaml to the current directory")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, args []string) error {
	fmt.Println("Checking environment...")
	fmt.Println()

	allOk := true

	if path, err := debugger.Locate(cfg.Debugger.Path); err == nil {
		fmt.Printf("  ✓ debugger: %s\n", path)
	} else {
		fmt.Printf("  ✗ debugger: %v\n", err)
		allOk = false
	}

	if existing := os.Getenv(debugger.SymbolPathEnv); existing != "" {
		fmt.Printf("  ✓ %s: %s\n", debugger.SymbolPathEnv, existing)
	} else {
		fmt.Printf("  ○ %s: unset, a run-scoped cache will be used\n", debugger.SymbolPathEnv)
	}

	if len(args) == 1 {
		binDir := args[0]
		res := diagnostics.Preflight(diagnostics.Params{
			BinDir:              binDir,
			RequiredExecutables: requiredExecutables(binDir),
			SymbolCacheDir:      cfg.Symbols.CacheDir,
		})
		for _, c := range res.Checks {
			icon := "✓"
			switch {
			case c.Warning:
				icon = "⚠"
			case !c.OK:
				icon = "✗"
			}
			fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Detail)
		}
		if !res.OK() {
			allOk = false
		}
	}

	fmt.Println()

	if writeConfig {
		data, err := config.DefaultYAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(".crashcheck.yaml", data, 0o644); err != nil {
			return err
		}
		fmt.Println("Wrote .crashcheck.yaml")
		fmt.Println()
	}

	if !allOk {
		return fmt.Errorf("environment checks failed")
	}
	fmt.Println("Environment looks good.")
	return nil
}
