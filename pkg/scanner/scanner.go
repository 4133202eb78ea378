// Package scanner walks a skill tree and parses every descriptor file
// it finds. The tree layout is conventional:
//
//	<root>/agents/<name>.agent.md
//	<root>/skills/<name>/SKILL.md
//	<root>/skills/<name>/resources/*   (referenced, never scanned)
//
// Scanning is read-only. Files that fail to read or validate become
// per-file error records; they never abort the scan.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/logger"
)

const (
	skillFileName   = "SKILL.md"
	agentFileSuffix = ".agent.md"
	agentsDirName   = "agents"
	skillsDirName   = "skills"
)

// ErrMissingSkillFile indicates a skill directory with no SKILL.md.
var ErrMissingSkillFile = errors.New("skill directory has no SKILL.md")

// FileError records a descriptor file that failed to read or validate.
type FileError struct {
	Path string
	Err  error
}

// Result is the outcome of one full scan. Skills, Agents, and Errors
// are each sorted lexicographically by source path so repeated scans of
// an unchanged tree are byte-for-byte reproducible.
type Result struct {
	Skills []*descriptor.Skill
	Agents []*descriptor.Agent
	Errors []FileError
}

// Scanner scans a single root directory.
type Scanner struct {
	root        string
	parallelism int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithParallelism sets the number of files parsed concurrently.
// Values below 1 fall back to GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(s *Scanner) {
		if n >= 1 {
			s.parallelism = n
		}
	}
}

// New creates a Scanner for the given root.
func New(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:        root,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the scanned root directory.
func (s *Scanner) Root() string { return s.root }

// job is one descriptor file to parse. dirName is set for skills and
// carries the authoritative directory name.
type job struct {
	path    string
	dirName string
	isSkill bool
}

// Scan walks the tree once. It returns an error only when the root
// itself is unreadable; everything else is recorded in Result.Errors.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	if _, err := os.ReadDir(s.root); err != nil {
		return nil, errors.Wrapf(err, "unreadable root %s", s.root)
	}

	res := &Result{}
	jobs := s.collect(res)
	s.parseAll(ctx, jobs, res)

	sort.Slice(res.Skills, func(i, j int) bool { return res.Skills[i].SourcePath < res.Skills[j].SourcePath })
	sort.Slice(res.Agents, func(i, j int) bool { return res.Agents[i].SourcePath < res.Agents[j].SourcePath })
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Path < res.Errors[j].Path })

	logger.G(ctx).WithFields(map[string]interface{}{
		"root":   s.root,
		"skills": len(res.Skills),
		"agents": len(res.Agents),
		"errors": len(res.Errors),
	}).Debug("Scan complete")

	return res, nil
}

// collect enumerates candidate descriptor files. Directory-level
// problems (unreadable skill dir, missing SKILL.md) are recorded here;
// file-level problems are recorded during parsing.
func (s *Scanner) collect(res *Result) []job {
	var jobs []job

	agentsDir := filepath.Join(s.root, agentsDirName)
	if entries, err := os.ReadDir(agentsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), agentFileSuffix) {
				continue
			}
			jobs = append(jobs, job{path: filepath.Join(agentsDir, entry.Name())})
		}
	}

	skillsDir := filepath.Join(s.root, skillsDirName)
	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		return jobs
	}
	for _, entry := range entries {
		entryPath := filepath.Join(skillsDir, entry.Name())

		// Follow symlinked skill directories.
		info, err := os.Stat(entryPath)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: entryPath, Err: err})
			continue
		}
		if !info.IsDir() {
			continue
		}

		skillPath := filepath.Join(entryPath, skillFileName)
		if _, err := os.Stat(skillPath); err != nil {
			res.Errors = append(res.Errors, FileError{Path: skillPath, Err: ErrMissingSkillFile})
			continue
		}
		jobs = append(jobs, job{path: skillPath, dirName: entry.Name(), isSkill: true})
	}

	return jobs
}

// parseAll parses jobs with a bounded worker pool. Parsing is a pure
// function so workers share nothing; determinism comes from the sort
// applied after the merge.
func (s *Scanner) parseAll(ctx context.Context, jobs []job, res *Result) {
	workers := s.parallelism
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		return
	}

	jobCh := make(chan job)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				skill, agent, err := parseJob(j)
				mu.Lock()
				switch {
				case err != nil:
					res.Errors = append(res.Errors, FileError{Path: j.path, Err: err})
				case skill != nil:
					res.Skills = append(res.Skills, skill)
				default:
					res.Agents = append(res.Agents, agent)
				}
				mu.Unlock()
			}
		}()
	}

	for _, j := range jobs {
		select {
		case jobCh <- j:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobCh)
	wg.Wait()
}

func parseJob(j job) (*descriptor.Skill, *descriptor.Agent, error) {
	info, err := os.Stat(j.path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to stat descriptor file")
	}
	content, err := os.ReadFile(j.path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read descriptor file")
	}

	absPath, err := filepath.Abs(j.path)
	if err != nil {
		absPath = j.path
	}

	if !j.isSkill {
		agent, err := descriptor.ParseAgent(content, absPath, info.ModTime())
		return nil, agent, err
	}

	skill, err := descriptor.ParseSkill(content, absPath, info.ModTime())
	if err != nil {
		return nil, nil, err
	}
	// The directory name is authoritative for addressing.
	if skill.Name != j.dirName {
		return nil, nil, errors.Wrapf(descriptor.ErrNameMismatch,
			"declared %q in directory %q", skill.Name, j.dirName)
	}
	return skill, nil, nil
}
