package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/presenter"
	"github.com/jingkaihe/skillhub/pkg/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the best-fit skill per category",
	Long: `Resolve a match request against the registry. One result slot is
produced per requested category; a category with no matching skill
yields an explicit empty slot.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		eng, err := newEngine(ctx)
		if err != nil {
			presenter.Error(err, "Failed to build registry")
			os.Exit(1)
		}
		defer eng.Close()

		language, _ := cmd.Flags().GetString("language")
		categories, _ := cmd.Flags().GetStringSlice("category")
		keywords, _ := cmd.Flags().GetStringSlice("keyword")
		asJSON, _ := cmd.Flags().GetBool("json")

		result := eng.Query(ctx, resolver.Request{
			Language:   language,
			Categories: categories,
			Keywords:   keywords,
		})

		if asJSON {
			type matchOut struct {
				Category string `json:"category"`
				Name     string `json:"name,omitempty"`
				Score    int    `json:"score"`
			}
			out := struct {
				Generation uint64     `json:"generation"`
				Matches    []matchOut `json:"matches"`
				Misses     []string   `json:"misses,omitempty"`
			}{Generation: result.Generation, Misses: result.Misses}
			for _, m := range result.Matches {
				mo := matchOut{Category: m.Category, Score: m.Score}
				if m.Skill != nil {
					mo.Name = m.Skill.Name
				}
				out.Matches = append(out.Matches, mo)
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				presenter.Error(err, "Failed to encode result")
				os.Exit(1)
			}
			fmt.Println(string(encoded))
			return
		}

		for _, m := range result.Matches {
			if m.Skill == nil {
				presenter.Warning(fmt.Sprintf("%s: no matching skill", m.Category))
				continue
			}
			presenter.Info(fmt.Sprintf("%s: %s (score %d) %s",
				m.Category, m.Skill.Name, m.Score, m.Skill.Description))
		}
	},
}

func init() {
	resolveCmd.Flags().String("language", "", "Target language tag")
	resolveCmd.Flags().StringSlice("category", nil, "Requested category, repeatable; empty means any")
	resolveCmd.Flags().StringSlice("keyword", nil, "Tie-break keyword, repeatable")
	resolveCmd.Flags().Bool("json", false, "Output as JSON")
}
