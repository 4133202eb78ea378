package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillhub/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Scan the skill tree and report every descriptor problem",
	Long: `Validate walks the configured root (or the given path) and reports
every file that failed to parse, along with duplicate name warnings.
Exits non-zero if any file is invalid.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if len(args) == 1 {
			viper.Set("root", args[0])
		}

		eng, err := newEngine(ctx)
		if err != nil {
			presenter.Error(err, "Failed to scan skill tree")
			os.Exit(1)
		}
		defer eng.Close()

		snap := eng.Snapshot()

		presenter.Info(fmt.Sprintf("%d skills, %d agents", len(snap.Skills), len(snap.Agents)))

		for _, w := range snap.Warnings {
			presenter.Warning(fmt.Sprintf("duplicate name %q: %s shadowed by %s", w.Name, w.Path, w.KeptPath))
		}

		if len(snap.ScanErrors) == 0 {
			presenter.Success("All descriptors are valid")
			return
		}

		presenter.Section("Invalid descriptors")
		for _, fe := range snap.ScanErrors {
			presenter.Error(fe.Err, fe.Path)
		}
		os.Exit(1)
	},
}
