package descriptor

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ParseSkill parses a SKILL.md file into a Skill descriptor. It is a
// pure function: all failures are returned, never logged or panicked.
func ParseSkill(content []byte, sourcePath string, modTime time.Time) (*Skill, error) {
	fm, body, err := parseHeader(content)
	if err != nil {
		return nil, err
	}
	if err := validateIdentity(fm); err != nil {
		return nil, err
	}

	categories := normalizeTags(fm.Categories)
	if len(categories) == 0 {
		return nil, errors.Wrap(ErrEmptyCategories, fm.Name)
	}

	return &Skill{
		Name:         fm.Name,
		Description:  fm.Description,
		Categories:   categories,
		Languages:    normalizeTags(fm.Languages),
		ResourceRefs: cleanRefs(fm.Resources),
		Body:         body,
		SourcePath:   sourcePath,
		LastModified: modTime,
	}, nil
}

// ParseAgent parses an *.agent.md file into an Agent descriptor.
// Agents share the skill header structure but have no language affinity
// and may declare zero categories.
func ParseAgent(content []byte, sourcePath string, modTime time.Time) (*Agent, error) {
	fm, body, err := parseHeader(content)
	if err != nil {
		return nil, err
	}
	if err := validateIdentity(fm); err != nil {
		return nil, err
	}

	return &Agent{
		Name:         fm.Name,
		Description:  fm.Description,
		Categories:   normalizeTags(fm.Categories),
		Body:         body,
		SourcePath:   sourcePath,
		LastModified: modTime,
	}, nil
}

// parseHeader splits content into frontmatter and body. The frontmatter
// must be present at the top of the file and parse as a flat mapping.
func parseHeader(content []byte) (Frontmatter, string, error) {
	var fm Frontmatter

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return fm, "", errors.Wrap(ErrMalformedHeader, err.Error())
	}
	if meta.Get(pctx) == nil {
		return fm, "", errors.Wrap(ErrMalformedHeader, "frontmatter block missing or unterminated")
	}

	header, body, ok := splitFrontmatter(string(content))
	if !ok {
		return fm, "", errors.Wrap(ErrMalformedHeader, "frontmatter block missing or unterminated")
	}

	// goldmark-meta hands back untyped yaml.v2 maps; re-decode the raw
	// header with yaml.v3 to get typed fields.
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", errors.Wrap(ErrMalformedHeader, err.Error())
	}

	fm.Name = strings.TrimSpace(fm.Name)
	fm.Description = strings.TrimSpace(fm.Description)

	return fm, body, nil
}

func validateIdentity(fm Frontmatter) error {
	if fm.Name == "" {
		return errors.Wrap(ErrMissingField, "name")
	}
	if fm.Description == "" {
		return errors.Wrap(ErrMissingField, "description")
	}
	if !namePattern.MatchString(fm.Name) {
		return errors.Wrap(ErrInvalidName, fm.Name)
	}
	return nil
}

// splitFrontmatter separates the raw header text from the body. The
// header is delimited by "---" lines at the very top of the file.
func splitFrontmatter(content string) (header, body string, ok bool) {
	if !strings.HasPrefix(content, "---") {
		return "", "", false
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", false
	}

	header = strings.Join(lines[1:end], "\n")
	body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
	return header, body, true
}

// normalizeTags lowercases, trims, and dedupes tags, preserving the
// declared order.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cleanRefs(refs []string) []string {
	var out []string
	for _, ref := range refs {
		r := strings.TrimSpace(ref)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
