// Package mcpserve exposes the engine as an MCP (Model Context
// Protocol) stdio server so orchestrating agents can resolve skills as
// tool calls instead of linking the library.
package mcpserve

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jingkaihe/skillhub/pkg/engine"
	"github.com/jingkaihe/skillhub/pkg/resolver"
	"github.com/jingkaihe/skillhub/pkg/version"
)

// Server wraps an MCP server around the engine.
type Server struct {
	engine    *engine.Engine
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers the skill tools.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		engine:    eng,
		mcpServer: server.NewMCPServer("skillhub", version.Get().Version),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("resolve_skills",
			mcp.WithDescription("Resolve the best-fit skill per requested category. Categories and keywords are comma-separated lists."),
			mcp.WithString("language", mcp.Description("Target language tag, e.g. \"go\". Optional.")),
			mcp.WithString("categories", mcp.Description("Comma-separated category tags, e.g. \"mocking,assertion\". Empty means any.")),
			mcp.WithString("keywords", mcp.Description("Comma-separated free-text keywords used as tie-break signal.")),
		),
		s.handleResolve,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_skills",
			mcp.WithDescription("List all registered skills with their categories and languages."),
		),
		s.handleList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_skill",
			mcp.WithDescription("Fetch one skill by name, including its full body content."),
			mcp.WithString("name", mcp.Description("The skill name."), mcp.Required()),
		),
		s.handleGet,
	)
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	req := resolver.Request{
		Language:   stringArg(args, "language"),
		Categories: listArg(args, "categories"),
		Keywords:   listArg(args, "keywords"),
	}
	result := s.engine.Query(ctx, req)

	type matchView struct {
		Category    string `json:"category"`
		Name        string `json:"name,omitempty"`
		Description string `json:"description,omitempty"`
		Score       int    `json:"score"`
		Body        string `json:"body,omitempty"`
	}
	out := struct {
		Generation uint64      `json:"generation"`
		Matches    []matchView `json:"matches"`
		Misses     []string    `json:"misses,omitempty"`
	}{Generation: result.Generation, Misses: result.Misses}

	for _, m := range result.Matches {
		view := matchView{Category: m.Category, Score: m.Score}
		if m.Skill != nil {
			view.Name = m.Skill.Name
			view.Description = m.Skill.Description
			view.Body = m.Skill.Body
		}
		out.Matches = append(out.Matches, view)
	}

	return jsonResult(out)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.engine.Snapshot()

	type skillView struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Categories  []string `json:"categories"`
		Languages   []string `json:"languages,omitempty"`
	}
	views := make([]skillView, 0, len(snap.Skills))
	for _, skill := range snap.Skills {
		views = append(views, skillView{
			Name:        skill.Name,
			Description: skill.Description,
			Categories:  skill.Categories,
			Languages:   skill.Languages,
		})
	}

	return jsonResult(struct {
		Generation uint64      `json:"generation"`
		Skills     []skillView `json:"skills"`
	}{Generation: snap.Generation, Skills: views})
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	name := stringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	skill, err := s.engine.Skill(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		Categories   []string `json:"categories"`
		Languages    []string `json:"languages,omitempty"`
		ResourceRefs []string `json:"resourceRefs,omitempty"`
		Body         string   `json:"body"`
	}{
		Name:         skill.Name,
		Description:  skill.Description,
		Categories:   skill.Categories,
		Languages:    skill.Languages,
		ResourceRefs: skill.ResourceRefs,
		Body:         skill.Body,
	})
}

// ServeStdio runs the server over stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// listArg splits a comma-separated argument into trimmed tokens.
func listArg(args map[string]interface{}, key string) []string {
	raw := stringArg(args, key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
