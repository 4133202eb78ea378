// Package resolver scores and ranks registry skills against a match
// request. Resolution is pure and deterministic: the same snapshot and
// request always produce the same result, which is what makes matching
// auditable instead of a judgment call.
package resolver

import (
	"strings"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/registry"
)

// CategoryAny labels the implicit result slot produced when a request
// declares no categories; that slot considers every skill in the
// snapshot. It is a slot label, not a reserved tag: a request that
// explicitly lists "any" resolves it like any other declared category.
const CategoryAny = "any"

const (
	baseScore    = 100
	keywordBonus = 10
)

// Request describes what the caller needs.
type Request struct {
	// Language restricts candidates to skills supporting it. Empty
	// disables language filtering.
	Language string `json:"language,omitempty"`
	// Categories are resolved in order, one result slot each. Empty
	// means the single implicit category "any".
	Categories []string `json:"categories,omitempty"`
	// Keywords are tie-breaking signal only, never a hard filter.
	Keywords []string `json:"keywords,omitempty"`
}

// Match is the outcome for one requested category. Skill is nil when no
// candidate survived filtering; the slot is kept so callers can detect
// the gap.
type Match struct {
	Category string
	Skill    *descriptor.Skill
	Score    int
}

// Result is an ordered set of matches, one per requested category.
type Result struct {
	Matches []Match
	// Misses lists the requested categories that produced no match, in
	// request order.
	Misses []string
	// Generation identifies the snapshot the result was computed from.
	Generation uint64
}

// Resolve ranks the snapshot's skills against the request. It performs
// no I/O and does not retain references into the request.
func Resolve(snap *registry.Snapshot, req Request) Result {
	result := Result{Generation: snap.Generation}

	if len(req.Categories) == 0 {
		result.addMatch(bestMatch(snap.Skills, CategoryAny, req))
		return result
	}

	for _, category := range req.Categories {
		result.addMatch(bestMatch(snap.SkillsInCategory(category), category, req))
	}
	return result
}

func (r *Result) addMatch(match Match) {
	r.Matches = append(r.Matches, match)
	if match.Skill == nil {
		r.Misses = append(r.Misses, match.Category)
	}
}

func bestMatch(candidates []*descriptor.Skill, category string, req Request) Match {
	best := Match{Category: category}
	for _, skill := range candidates {
		if req.Language != "" && !skill.SupportsLanguage(req.Language) {
			continue
		}
		score := scoreSkill(skill, req.Keywords)
		if best.Skill == nil || score > best.Score ||
			(score == best.Score && skill.Name < best.Skill.Name) {
			best.Skill = skill
			best.Score = score
		}
	}
	return best
}

// scoreSkill computes base score plus a bonus per keyword found in the
// description. Each keyword counts at most once, case-insensitively.
func scoreSkill(skill *descriptor.Skill, keywords []string) int {
	score := baseScore
	description := strings.ToLower(skill.Description)
	for _, keyword := range keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k != "" && strings.Contains(description, k) {
			score += keywordBonus
		}
	}
	return score
}

// Names returns the matched skill names in slot order, skipping empty
// slots. Handy for logging and compact CLI output.
func (r Result) Names() []string {
	var names []string
	for _, m := range r.Matches {
		if m.Skill != nil {
			names = append(names, m.Skill.Name)
		}
	}
	return names
}
