// Package descriptor parses skill and agent definition files into typed
// descriptors. A definition file is markdown with a YAML frontmatter
// header; the header carries the machine-readable metadata (name,
// description, categories, languages, resources) and the body is opaque
// guidance content handed back to the caller untouched.
package descriptor

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Skill is the validated representation of a SKILL.md file.
type Skill struct {
	// Name uniquely identifies the skill and must equal the name of the
	// directory containing its SKILL.md.
	Name string
	// Description is free text used for keyword scoring during matching.
	Description string
	// Categories are the declared category tags, lowercased, order
	// preserved from the header. Never empty for a valid skill.
	Categories []string
	// Languages are the language tags the skill targets. Empty means
	// language-agnostic.
	Languages []string
	// ResourceRefs are paths to auxiliary documents, relative to the
	// skill directory, in declared order.
	ResourceRefs []string
	// Body is the markdown content below the frontmatter.
	Body string
	// SourcePath is the absolute path of the SKILL.md file.
	SourcePath string
	// LastModified is the file mtime at parse time.
	LastModified time.Time
}

// Agent is the validated representation of an *.agent.md file. Agents
// are structural metadata for the orchestrating caller; they are never
// indexed for matching.
type Agent struct {
	Name        string
	Description string
	// Categories are the skill categories the agent expects to consume.
	// May be empty; agents are not subject to the skill category rule.
	Categories []string
	Body         string
	SourcePath   string
	LastModified time.Time
}

// HasCategory reports whether the skill declares the given category.
func (s *Skill) HasCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SupportsLanguage reports whether the skill may serve the given
// language. Skills with no declared languages are language-agnostic and
// support everything.
func (s *Skill) SupportsLanguage(language string) bool {
	if len(s.Languages) == 0 {
		return true
	}
	for _, l := range s.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// Header re-serializes the skill's frontmatter fields as YAML. The
// output round-trips name, description, categories, and languages
// through ParseSkill.
func (s *Skill) Header() ([]byte, error) {
	return yaml.Marshal(Frontmatter{
		Name:        s.Name,
		Description: s.Description,
		Categories:  s.Categories,
		Languages:   s.Languages,
		Resources:   s.ResourceRefs,
	})
}

// Frontmatter is the YAML header shared by skill and agent files.
type Frontmatter struct {
	Name        string   `yaml:"name" json:"name" jsonschema:"pattern=^[a-z0-9][a-z0-9-]*$,description=Identifier matching the directory name"`
	Description string   `yaml:"description" json:"description" jsonschema:"description=One-line summary used for keyword matching"`
	Categories  []string `yaml:"categories,omitempty" json:"categories,omitempty" jsonschema:"description=Capability tags the skill can be resolved under"`
	Languages   []string `yaml:"languages,omitempty" json:"languages,omitempty" jsonschema:"description=Language tags; empty means language-agnostic"`
	Resources   []string `yaml:"resources,omitempty" json:"resources,omitempty" jsonschema:"description=Relative paths to supporting files"`
}
