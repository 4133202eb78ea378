package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillhub/pkg/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()
	writeSkill(t, root, "gomock", "Mock generation for Go interfaces", []string{"mocking"}, []string{"go"})
	writeSkill(t, root, "fixtures", "Test data fixtures", []string{"test-data"}, nil)

	cfg := engine.DefaultConfig()
	cfg.Root = root
	eng, err := engine.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	srv, err := NewServer(eng, &ServerConfig{Host: "127.0.0.1", Port: 7465})
	require.NoError(t, err)
	return srv
}

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

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServerConfigValidate(t *testing.T) {
	assert.Error(t, (&ServerConfig{Host: "", Port: 80}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 0}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 70000}).Validate())
	assert.NoError(t, (&ServerConfig{Host: "localhost", Port: 7465}).Validate())
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["generation"])
	assert.Equal(t, float64(2), status["skills"])
}

func TestListSkillsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/skills", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Skills []struct {
			Name string `json:"name"`
			Body string `json:"body"`
		} `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Skills, 2)
	// List responses omit bodies.
	assert.Empty(t, resp.Skills[0].Body)
}

func TestListSkillsFiltered(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/skills?category=mocking&language=go", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Skills []struct {
			Name string `json:"name"`
		} `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Skills, 1)
	assert.Equal(t, "gomock", resp.Skills[0].Name)
}

func TestGetSkillEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/skills/gomock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var skill struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &skill))
	assert.Equal(t, "gomock", skill.Name)
	assert.Contains(t, skill.Body, "# gomock")

	w = doRequest(t, srv, "GET", "/api/skills/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"language":   "go",
		"categories": []string{"mocking", "contract-testing"},
		"keywords":   []string{"interfaces"},
	})

	w := doRequest(t, srv, "POST", "/api/resolve", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Matches []struct {
			Category string `json:"category"`
			Score    int    `json:"score"`
			Skill    *struct {
				Name string `json:"name"`
			} `json:"skill"`
		} `json:"matches"`
		Misses []string `json:"misses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Matches, 2)
	require.NotNil(t, resp.Matches[0].Skill)
	assert.Equal(t, "gomock", resp.Matches[0].Skill.Name)
	assert.Equal(t, 110, resp.Matches[0].Score)
	assert.Nil(t, resp.Matches[1].Skill)
	assert.Equal(t, []string{"contract-testing"}, resp.Misses)
}

func TestResolveBadBody(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "POST", "/api/resolve", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
