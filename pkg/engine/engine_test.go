package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillhub/pkg/resolver"
)

func writeSkill(t *testing.T, root, name, description string, categories, languages []string) {
	t.Helper()

	skillDir := filepath.Join(root, "skills", name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))

	content := "---\nname: " + name + "\ndescription: " + description + "\ncategories:\n"
	for _, c := range categories {
		content += "  - " + c + "\n"
	}
	if len(languages) > 0 {
		content += "languages:\n"
		for _, l := range languages {
			content += "  - " + l + "\n"
		}
	}
	content += "---\n\n# " + name + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func testConfig(root string) Config {
	cfg := DefaultConfig()
	cfg.Root = root
	cfg.Watch.Debounce = 50 * time.Millisecond
	return cfg
}

func TestNewFailsOnUnreadableRoot(t *testing.T) {
	_, err := New(context.Background(), testConfig(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, err)
}

func TestNewWithEmptyTree(t *testing.T) {
	eng, err := New(context.Background(), testConfig(t.TempDir()))
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, uint64(1), eng.Snapshot().Generation)
	assert.Empty(t, eng.Snapshot().Skills)
}

func TestQuery(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "gomock", "Mock generation for Go", []string{"mocking"}, []string{"go"})
	writeSkill(t, root, "testify", "Assertions and mocks", []string{"assertion"}, []string{"go"})

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	res := eng.Query(context.Background(), resolver.Request{
		Language:   "go",
		Categories: []string{"mocking", "assertion"},
	})

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "gomock", res.Matches[0].Skill.Name)
	assert.Equal(t, "testify", res.Matches[1].Skill.Name)
	assert.Empty(t, res.Misses)
}

func TestReloadPicksUpNewSkills(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "first", "The first skill", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	res := eng.Query(context.Background(), resolver.Request{Categories: []string{"test-data"}})
	assert.Nil(t, res.Matches[0].Skill)

	writeSkill(t, root, "second", "The second skill", []string{"test-data"}, nil)
	require.NoError(t, eng.Reload(context.Background()))

	res = eng.Query(context.Background(), resolver.Request{Categories: []string{"test-data"}})
	require.NotNil(t, res.Matches[0].Skill)
	assert.Equal(t, "second", res.Matches[0].Skill.Name)
	assert.Equal(t, uint64(2), res.Generation)
}

func TestReloadKeepsSnapshotOnScanFailure(t *testing.T) {
	root := t.TempDir()
	treeRoot := filepath.Join(root, "tree")
	require.NoError(t, os.MkdirAll(treeRoot, 0o755))
	writeSkill(t, treeRoot, "keeper", "A skill that survives", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(treeRoot))
	require.NoError(t, err)
	defer eng.Close()

	before := eng.Snapshot()

	// Remove the whole root so the rescan cannot even start.
	require.NoError(t, os.RemoveAll(treeRoot))
	assert.Error(t, eng.Reload(context.Background()))

	// The last good snapshot keeps serving.
	assert.Same(t, before, eng.Snapshot())
	_, err = eng.Skill("keeper")
	assert.NoError(t, err)
}

func TestHotReloadViaWatcher(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "existing", "Already here", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Watch(context.Background()))

	writeSkill(t, root, "fresh-skill", "Added at runtime", []string{"contract-testing"}, nil)

	require.Eventually(t, func() bool {
		res := eng.Query(context.Background(), resolver.Request{Categories: []string{"contract-testing"}})
		return res.Matches[0].Skill != nil
	}, 5*time.Second, 20*time.Millisecond, "new skill never became queryable")
}

func TestConcurrentQueriesDuringReload(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "alpha", "First", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res := eng.Query(context.Background(), resolver.Request{Categories: []string{"mocking"}})
				// Whatever generation we got, the slot must be coherent:
				// alpha exists in every generation.
				require.NotNil(t, res.Matches[0].Skill)
				require.Equal(t, "alpha", res.Matches[0].Skill.Name)
			}
		}()
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, eng.Reload(context.Background()))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, uint64(21), eng.Snapshot().Generation)
}

func TestWatchAndCloseAreConcurrencySafe(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "steady", "Unchanging skill", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				// At most one Watch can win between Closes; the rest
				// must fail cleanly instead of racing.
				_ = eng.Watch(context.Background())
				eng.Close()
			}
		}()
	}
	wg.Wait()

	// The engine is reusable after the churn.
	require.NoError(t, eng.Watch(context.Background()))
	eng.Close()
}

func TestSkillLookup(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "known", "A known skill", []string{"mocking"}, nil)

	eng, err := New(context.Background(), testConfig(root))
	require.NoError(t, err)
	defer eng.Close()

	skill, err := eng.Skill("known")
	require.NoError(t, err)
	assert.Equal(t, "known", skill.Name)

	_, err = eng.Skill("unknown")
	assert.Error(t, err)
}
