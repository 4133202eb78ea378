// Package registry builds immutable snapshots of validated descriptors
// and publishes them through an atomic store. Readers never block and
// never observe a partially built snapshot: a reload builds the whole
// replacement off to the side and swaps one pointer.
package registry

import (
	"sort"
	"time"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/scanner"
)

// DuplicateNameWarning records a skill whose name collided with an
// earlier one in scan order. The first descriptor wins; the rest are
// recorded here and excluded.
type DuplicateNameWarning struct {
	Name     string
	Path     string // source path of the excluded descriptor
	KeptPath string // source path of the descriptor that won
}

// Snapshot is a fully built, immutable view of the registry. All maps
// and slices are owned by the snapshot and must not be mutated after
// Build returns.
type Snapshot struct {
	Skills []*descriptor.Skill
	Agents []*descriptor.Agent

	ByName     map[string]*descriptor.Skill
	ByCategory map[string][]string // category -> skill names, scan order
	ByLanguage map[string][]string // language -> skill names, scan order

	// Generation increments on every replacement, starting at 1.
	Generation uint64
	Warnings   []DuplicateNameWarning
	ScanErrors []scanner.FileError
	BuiltAt    time.Time
}

// Build constructs a snapshot from a scan result. prev carries the
// generation counter forward; pass nil for the initial build.
func Build(prev *Snapshot, res *scanner.Result) *Snapshot {
	snap := &Snapshot{
		ByName:     make(map[string]*descriptor.Skill),
		ByCategory: make(map[string][]string),
		ByLanguage: make(map[string][]string),
		Generation: 1,
		ScanErrors: res.Errors,
		BuiltAt:    time.Now(),
	}
	if prev != nil {
		snap.Generation = prev.Generation + 1
	}

	// res.Skills is sorted by path, so first-wins is deterministic.
	for _, skill := range res.Skills {
		if kept, exists := snap.ByName[skill.Name]; exists {
			snap.Warnings = append(snap.Warnings, DuplicateNameWarning{
				Name:     skill.Name,
				Path:     skill.SourcePath,
				KeptPath: kept.SourcePath,
			})
			continue
		}
		snap.ByName[skill.Name] = skill
		snap.Skills = append(snap.Skills, skill)

		for _, category := range skill.Categories {
			snap.ByCategory[category] = append(snap.ByCategory[category], skill.Name)
		}
		for _, language := range skill.Languages {
			snap.ByLanguage[language] = append(snap.ByLanguage[language], skill.Name)
		}
	}

	snap.Agents = res.Agents
	return snap
}

// Skill returns the skill with the given name, if present.
func (s *Snapshot) Skill(name string) (*descriptor.Skill, bool) {
	skill, ok := s.ByName[name]
	return skill, ok
}

// SkillsInCategory returns the skills declaring the given category, in
// scan order.
func (s *Snapshot) SkillsInCategory(category string) []*descriptor.Skill {
	names := s.ByCategory[category]
	skills := make([]*descriptor.Skill, 0, len(names))
	for _, name := range names {
		skills = append(skills, s.ByName[name])
	}
	return skills
}

// SkillsForLanguage returns the skills usable for the given language:
// those declaring it plus every language-agnostic skill, in scan order.
func (s *Snapshot) SkillsForLanguage(language string) []*descriptor.Skill {
	var skills []*descriptor.Skill
	for _, skill := range s.Skills {
		if skill.SupportsLanguage(language) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// Categories returns all category tags present in the snapshot, sorted.
func (s *Snapshot) Categories() []string {
	cats := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
