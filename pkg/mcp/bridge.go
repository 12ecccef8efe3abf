// SPDX-License-Identifier: Apache-2.0
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomkit/loom/pkg/registry"
)

// Bridge wraps one or more external MCP peers behind a single handle
// and exposes their tools through a local Tool Registry, delegating
// dispatch back to whichever peer owns the tool. A shared lock
// protects the peer map itself; it is never held across a peer
// request/response exchange.
type Bridge struct {
	mu    sync.RWMutex
	peers map[string]*Client
}

// NewBridge returns a Bridge with no connected peers.
func NewBridge() *Bridge {
	return &Bridge{peers: make(map[string]*Client)}
}

// ConnectStdio spawns command as a child process speaking MCP over
// stdio and registers the resulting peer under name.
func (b *Bridge) ConnectStdio(name, command string, args []string, env map[string]string, opts ...ClientOption) error {
	client, err := NewClientWithStdio(command, args, env, opts...)
	if err != nil {
		return fmt.Errorf("mcp bridge: connect stdio %q: %w", name, err)
	}
	b.addPeer(name, client)
	return nil
}

// ConnectStreamableHTTP connects to an MCP server at url over
// Streamable HTTP and registers the resulting peer under name.
func (b *Bridge) ConnectStreamableHTTP(name, url string, opts ...ClientOption) error {
	client, err := NewClientWithStreamableHTTP(url, opts...)
	if err != nil {
		return fmt.Errorf("mcp bridge: connect http %q: %w", name, err)
	}
	b.addPeer(name, client)
	return nil
}

// AddPeer registers an already-connected client under name, for
// callers wiring a pool.Pool-managed client into the bridge instead of
// letting the bridge own the connection lifecycle.
func (b *Bridge) AddPeer(name string, client *Client) {
	b.addPeer(name, client)
}

func (b *Bridge) addPeer(name string, client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.peers[name] = client
}

// PeerTool pairs a tool schema with the name of the peer that serves
// it.
type PeerTool struct {
	Peer string
	Tool mcp.Tool
}

// Tools enumerates every tool schema across all connected peers.
func (b *Bridge) Tools(ctx context.Context) ([]PeerTool, error) {
	peers := b.snapshotPeers()

	var out []PeerTool
	for name, client := range peers {
		tools, err := client.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("mcp bridge: list tools for %q: %w", name, err)
		}
		for _, t := range tools {
			out = append(out, PeerTool{Peer: name, Tool: t})
		}
	}
	return out, nil
}

// RegisterMCPTools enumerates every connected peer's tools and
// registers each as a (schema, handler) pair on reg, through a
// ToolAdapter bound to the owning peer. This is the uniform seam the
// Tool Registry shares with in-process handlers, connector-backed
// tools, and skills.
func (b *Bridge) RegisterMCPTools(ctx context.Context, reg *registry.Registry) error {
	peerTools, err := b.Tools(ctx)
	if err != nil {
		return err
	}

	peers := b.snapshotPeers()
	for _, pt := range peerTools {
		client, ok := peers[pt.Peer]
		if !ok {
			continue
		}
		adapter, err := NewToolAdapter(pt.Tool, client)
		if err != nil {
			continue
		}
		reg.RegisterTool(adapter, adapter.ToolDefinition())
	}
	return nil
}

// Call routes toolName to whichever connected peer declares it and
// returns its textual result. Per-peer errors surfaced by a dispatched
// call never escape as Go errors once the peer is connected — only
// connect-time failures do; a genuinely unknown tool name is the one
// exception, since no peer can be blamed for it.
func (b *Bridge) Call(ctx context.Context, toolName string, args map[string]interface{}) (string, error) {
	peers := b.snapshotPeers()
	for _, client := range peers {
		tools, err := client.ListTools(ctx)
		if err != nil {
			continue
		}
		for _, t := range tools {
			if t.Name != toolName {
				continue
			}
			result, err := client.CallTool(ctx, toolName, args)
			if err != nil {
				return fmt.Sprintf("error: %v", err), nil
			}
			out, err := toolResultToOutput(result)
			if err != nil {
				return fmt.Sprintf("error: %v", err), nil
			}
			if s, ok := out.(string); ok {
				return s, nil
			}
			return fmt.Sprintf("%v", out), nil
		}
	}
	return "", fmt.Errorf("mcp bridge: tool %q not found on any connected peer", toolName)
}

// Close closes every connected peer.
func (b *Bridge) Close() error {
	b.mu.Lock()
	peers := b.peers
	b.peers = make(map[string]*Client)
	b.mu.Unlock()

	var errs []error
	for _, c := range peers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (b *Bridge) snapshotPeers() map[string]*Client {
	b.mu.RLock()
	defer b.mu.RUnlock()
	peers := make(map[string]*Client, len(b.peers))
	for name, c := range b.peers {
		peers[name] = c
	}
	return peers
}
