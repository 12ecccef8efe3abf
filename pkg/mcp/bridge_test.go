// SPDX-License-Identifier: Apache-2.0
package mcp

import (
	"context"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/loomkit/loom/pkg/llm"
	"github.com/loomkit/loom/pkg/registry"
)

func newTestMCPServer(name string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(name, "1.0.0")
	server.AddTool(mcpgo.NewTool("ping"), func(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		return &mcpgo.CallToolResult{
			Content: []mcpgo.Content{mcpgo.TextContent{Type: "text", Text: "pong"}},
		}, nil
	})
	return server
}

func TestBridgeConnectAndListTools(t *testing.T) {
	httpServer := mcpserver.NewTestStreamableHTTPServer(newTestMCPServer("test-http"))
	defer httpServer.Close()

	bridge := NewBridge()
	if err := bridge.ConnectStreamableHTTP("alpha", httpServer.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer bridge.Close()

	tools, err := bridge.Tools(context.Background())
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if len(tools) != 1 || tools[0].Tool.Name != "ping" || tools[0].Peer != "alpha" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
}

func TestBridgeCallRoutesToOwningPeer(t *testing.T) {
	httpServer := mcpserver.NewTestStreamableHTTPServer(newTestMCPServer("test-http"))
	defer httpServer.Close()

	bridge := NewBridge()
	if err := bridge.ConnectStreamableHTTP("alpha", httpServer.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer bridge.Close()

	result, err := bridge.Call(context.Background(), "ping", map[string]interface{}{})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "pong" {
		t.Fatalf("expected pong, got %q", result)
	}
}

func TestBridgeCallUnknownToolErrors(t *testing.T) {
	bridge := NewBridge()
	defer bridge.Close()

	_, err := bridge.Call(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestBridgeRegisterMCPToolsPopulatesRegistry(t *testing.T) {
	httpServer := mcpserver.NewTestStreamableHTTPServer(newTestMCPServer("test-http"))
	defer httpServer.Close()

	bridge := NewBridge()
	if err := bridge.ConnectStreamableHTTP("alpha", httpServer.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer bridge.Close()

	reg := registry.New()
	if err := bridge.RegisterMCPTools(context.Background(), reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !reg.Has("ping") {
		t.Fatal("expected ping tool registered")
	}

	result := reg.Dispatch(context.Background(), llm.ToolCall{
		Function: llm.FunctionCall{Name: "ping", Arguments: "{}"},
	})
	if result != "pong" {
		t.Fatalf("expected pong via registry dispatch, got %q", result)
	}
}
