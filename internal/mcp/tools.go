package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dogsub/Open-Source-TermP/common/id"
	"github.com/dogsub/Open-Source-TermP/internal/http/dto"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTools(s.Tools()...)
}

// Tools lists the tools this server registers.
func (s *Server) Tools() []server.ServerTool {
	extractTool := mcp.NewTool("extract_tags",
		mcp.WithDescription("Extract the technology tag list from model output that contains a {\"tags\": [...]} object"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw model output"),
		),
	)

	mergeTool := mcp.NewTool("merge_tags",
		mcp.WithDescription("Merge tag lists, dropping near-duplicates and abbreviations contained in longer tags"),
		mcp.WithString("lists_json",
			mcp.Required(),
			mcp.Description(`JSON array of tag lists, e.g. [["React","Vue"],["react.","Angular"]]`),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Similarity 1-100 at or above which a tag counts as a duplicate (default 80)"),
		),
	)

	tools := []server.ServerTool{
		{Tool: extractTool, Handler: s.handleExtractTags},
		{Tool: mergeTool, Handler: s.handleMergeTags},
	}

	if s.analysis != nil {
		analyzeTool := mcp.NewTool("analyze_repository",
			mcp.WithDescription("Generate a README, technology tags and a representative image for a GitHub or GitLab repository. Calls external LLM APIs."),
			mcp.WithString("repo_url",
				mcp.Required(),
				mcp.Description("Repository URL, e.g. https://github.com/owner/repo"),
			),
			mcp.WithBoolean("skip_readme", mcp.Description("Skip README generation")),
			mcp.WithBoolean("skip_tags", mcp.Description("Skip tag extraction")),
			mcp.WithBoolean("skip_image", mcp.Description("Skip image selection")),
		)
		tools = append(tools, server.ServerTool{Tool: analyzeTool, Handler: s.handleAnalyzeRepository})
	}
	return tools
}

func (s *Server) handleExtractTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter required"), nil
	}

	list, err := tags.ExtractTags(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract tags: %v", err)), nil
	}
	return jsonResult(dto.TagsResponse{Tags: orEmpty(list)})
}

func (s *Server) handleMergeTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("lists_json", "")
	if raw == "" {
		return mcp.NewToolResultError("lists_json parameter required"), nil
	}

	var lists []tags.TagList
	if err := json.Unmarshal([]byte(raw), &lists); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lists_json must be an array of string arrays: %v", err)), nil
	}

	threshold := int(request.GetFloat("threshold", tags.DefaultThreshold))
	if threshold < 1 || threshold > 100 {
		return mcp.NewToolResultError("threshold must be between 1 and 100"), nil
	}

	return jsonResult(dto.TagsResponse{Tags: orEmpty(tags.MergeWithThreshold(threshold, lists...))})
}

func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := request.GetString("repo_url", "")
	if repoURL == "" {
		return mcp.NewToolResultError("repo_url parameter required"), nil
	}

	a, err := s.analysis.Run(ctx, repoURL, service.Options{
		RunID:      id.New(),
		SkipReadme: request.GetBool("skip_readme", false),
		SkipTags:   request.GetBool("skip_tags", false),
		SkipImage:  request.GetBool("skip_image", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to analyze repository: %v", err)), nil
	}
	return jsonResult(dto.NewAnalysisResponse(a))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func orEmpty(list tags.TagList) []string {
	if list == nil {
		return []string{}
	}
	return list
}
