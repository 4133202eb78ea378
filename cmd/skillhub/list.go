package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered skills",
	Long: `List the skills in the registry after a single scan of the tree,
optionally filtered by category and language.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		eng, err := newEngine(ctx)
		if err != nil {
			presenter.Error(err, "Failed to build registry")
			os.Exit(1)
		}
		defer eng.Close()

		category, _ := cmd.Flags().GetString("category")
		language, _ := cmd.Flags().GetString("language")
		asJSON, _ := cmd.Flags().GetBool("json")

		snap := eng.Snapshot()

		type row struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Categories  []string `json:"categories"`
			Languages   []string `json:"languages,omitempty"`
		}
		var rows []row
		for _, skill := range snap.Skills {
			if category != "" && !skill.HasCategory(category) {
				continue
			}
			if language != "" && !skill.SupportsLanguage(language) {
				continue
			}
			rows = append(rows, row{
				Name:        skill.Name,
				Description: skill.Description,
				Categories:  skill.Categories,
				Languages:   skill.Languages,
			})
		}

		if asJSON {
			out, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				presenter.Error(err, "Failed to encode skills")
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		if len(rows) == 0 {
			presenter.Info("No skills found")
			return
		}

		presenter.Section(fmt.Sprintf("Skills (generation %d)", snap.Generation))
		for _, r := range rows {
			languages := "any language"
			if len(r.Languages) > 0 {
				languages = strings.Join(r.Languages, ", ")
			}
			presenter.Info(fmt.Sprintf("%-24s %s [%s] (%s)",
				r.Name, r.Description, strings.Join(r.Categories, ", "), languages))
		}
	},
}

func init() {
	listCmd.Flags().String("category", "", "Only skills declaring this category")
	listCmd.Flags().String("language", "", "Only skills usable for this language")
	listCmd.Flags().Bool("json", false, "Output as JSON")
}
