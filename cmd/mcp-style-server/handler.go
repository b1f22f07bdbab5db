package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gwbischof/ghstyle/internal/checkpoint"
	"github.com/gwbischof/ghstyle/internal/document"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetStyleDocumentParams defines the input parameters for the tool
type GetStyleDocumentParams struct{}

// GetProgressParams defines the input parameters for the tool
type GetProgressParams struct{}

// HandleGetStyleDocument handles the get_style_document tool call
func HandleGetStyleDocument(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params GetStyleDocumentParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Style Server] Received get_style_document request")

	path := os.Getenv("STYLE_DOCUMENT_PATH")
	if path == "" {
		return nil, nil, fmt.Errorf("STYLE_DOCUMENT_PATH is not set")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[MCP Style Server] Failed to read document: %v", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
			IsError: true,
		}, nil, nil
	}

	log.Printf("[MCP Style Server] Returning document (%d lines)", document.CountLines(string(content)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil, nil
}

// HandleGetProgress handles the get_progress tool call
func HandleGetProgress(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params GetProgressParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Style Server] Received get_progress request")

	path := os.Getenv("CHECKPOINT_PATH")
	if path == "" {
		path = "progress.json"
	}

	cp, found, err := checkpoint.NewStore(path).Load()
	if err != nil {
		log.Printf("[MCP Style Server] Failed to read checkpoint: %v", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
			IsError: true,
		}, nil, nil
	}
	if !found {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: `{"status": "not started"}`},
			},
		}, nil, nil
	}

	resultText := fmt.Sprintf(`{
  "current_line": %d,
  "compaction_count": %d,
  "document_lines": %d,
  "updated_at": "%s"
}`, cp.CurrentLine, cp.CompactionCount, document.CountLines(cp.StyleContent), cp.UpdatedAt.Format(time.RFC3339))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: resultText},
		},
	}, nil, nil
}
