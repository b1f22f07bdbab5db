package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	// 1. Validate required environment variables
	if os.Getenv("STYLE_DOCUMENT_PATH") == "" {
		log.Fatalf("[MCP Style Server] Missing required environment variable: STYLE_DOCUMENT_PATH")
	}

	log.Println("[MCP Style Server] Starting Style Document MCP Server v1.0.0")
	log.Printf("[MCP Style Server] Document: %s", os.Getenv("STYLE_DOCUMENT_PATH"))

	// 2. Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "style-document-server",
		Version: "v1.0.0",
	}, nil)

	// 3. Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_style_document",
		Description: "Read the generated writing style document",
	}, HandleGetStyleDocument)
	log.Println("[MCP Style Server] Registered tool: get_style_document")

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_progress",
		Description: "Report generation progress from the checkpoint file",
	}, HandleGetProgress)
	log.Println("[MCP Style Server] Registered tool: get_progress")

	// 4. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Style Server] Received shutdown signal")
		cancel()
	}()

	// 5. Start server with stdio transport
	log.Println("[MCP Style Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Style Server] Server error: %v", err)
	}
	log.Println("[MCP Style Server] Server stopped gracefully")
}
