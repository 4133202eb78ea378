package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/presenter"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the descriptor frontmatter",
	Long: `Print a JSON Schema describing the YAML frontmatter of SKILL.md and
agent files, suitable for editor validation.`,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := &jsonschema.Reflector{
			DoNotReference: true,
		}
		schema := reflector.Reflect(&descriptor.Frontmatter{})

		encoded, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to encode schema")
			os.Exit(1)
		}
		fmt.Println(string(encoded))
	},
}
