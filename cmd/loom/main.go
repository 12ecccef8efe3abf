// SPDX-License-Identifier: Apache-2.0
// Command loom is a small demo harness for the agent runtime: it wires
// a provider, a couple of tools, a memory adapter, and a skill
// registry into a Runtime and either sends a single message or drops
// into an interactive loop.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loomkit/loom/pkg/config"
	"github.com/loomkit/loom/pkg/connectors"
	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
	"github.com/loomkit/loom/pkg/memory"
	"github.com/loomkit/loom/pkg/memory/ollama"
	"github.com/loomkit/loom/pkg/memory/qdrant"
	"github.com/loomkit/loom/pkg/runtime"
	"github.com/loomkit/loom/pkg/skills"
	"github.com/loomkit/loom/pkg/telemetry"
	"github.com/loomkit/loom/providers/anthropic"
	"github.com/loomkit/loom/providers/gemini"
	"github.com/loomkit/loom/providers/openai"
	"github.com/loomkit/loom/providers/qwen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "optional YAML config file (layered under env vars prefixed LOOM_)")
	systemPrompt := flag.String("system", "You are a terse, helpful assistant.", "agent system prompt")
	skillsDir := flag.String("skills", "", "optional directory of skill markdown files to load")
	sqlDBPath := flag.String("sql-db", "", "optional sqlite path to expose as CRUD tools (a demo notes table is created if the file is new)")
	message := flag.String("message", "", "send a single message and exit instead of starting a REPL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(fmt.Errorf("loading config: %w", err))
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.Init("loom-demo", "0.1.0")
	if err != nil {
		fatal(fmt.Errorf("bootstrapping telemetry: %w", err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("loom.demo.telemetry_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	provider, err := buildProvider(ctx, cfg.LLM)
	if err != nil {
		fatal(err)
	}

	mem, err := buildMemory(ctx, cfg.Memory)
	if err != nil {
		fatal(err)
	}

	skillReg := skills.NewRegistry()
	if *skillsDir != "" {
		loaded, err := skills.LoadDir(*skillsDir)
		if err != nil {
			fatal(fmt.Errorf("loading skills from %q: %w", *skillsDir, err))
		}
		skillReg.AddAll(loaded)
		logger.Info("loom.demo.skills_loaded", slog.Int("count", len(loaded)))
	}

	rt := runtime.New(provider,
		runtime.WithModel(cfg.LLM.Model),
		runtime.WithMemory(mem),
		runtime.WithSkills(skillReg),
		runtime.WithLogger(logger),
	)
	registerDemoTools(rt)

	agentTools := []string{"now", "remember"}
	if *sqlDBPath != "" {
		names, err := registerSQLTools(rt, *sqlDBPath)
		if err != nil {
			fatal(fmt.Errorf("wiring sql connector at %q: %w", *sqlDBPath, err))
		}
		agentTools = append(agentTools, names...)
		logger.Info("loom.demo.sql_tools_registered", slog.Int("count", len(names)))
	}

	agent := core.NewAgentConfig("assistant",
		core.WithSystemPrompt(*systemPrompt),
		core.WithTools(agentTools...),
	)
	rt.RegisterAgent(agent)

	if *message != "" {
		reply, err := rt.SendTo(ctx, "assistant", *message)
		if err != nil {
			fatal(err)
		}
		fmt.Println(reply)
		return
	}

	runREPL(ctx, rt)
}

func runREPL(ctx context.Context, rt *runtime.Runtime) {
	fmt.Println("loom demo REPL — type a message, or /quit to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}

		reply, err := rt.SendTo(ctx, "assistant", line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(reply)

		if ctx.Err() != nil {
			return
		}
	}
}

// registerDemoTools registers the demo agent's clock tool ("now"). The
// "remember" tool the agent also advertises is registered by the
// runtime when a memory adapter is attached, not here.
func registerDemoTools(rt *runtime.Runtime) {
	rt.RegisterHandler(
		llm.Tool{Type: llm.ToolTypeFunction, Function: llm.FunctionDef{
			Name:        "now",
			Description: "Returns the current UTC time in RFC3339 form.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
		func(ctx context.Context, args map[string]any) (string, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
	)
}

// registerSQLTools opens path as a sqlite database, creating a demo
// "notes" table if it does not exist yet, introspects its schema into CRUD tools
// via the SQL connector, and registers them on rt. It returns the
// registered tool names so the caller can add them to an agent's
// allowed tool list.
func registerSQLTools(rt *runtime.Runtime, path string) ([]string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		body TEXT
	)`); err != nil {
		return nil, fmt.Errorf("seeding notes table: %w", err)
	}

	conn, err := connectors.NewSQLConnector(db, "sqlite")
	if err != nil {
		return nil, err
	}

	tools := conn.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	rt.RegisterConnectorTools(conn)
	return names, nil
}

func buildProvider(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "mock", "":
		return &llm.MockProvider{Response: "This is a demo reply from the mock provider."}, nil
	case "anthropic":
		opts := []anthropic.Option{}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(opts...), nil
	case "openai":
		opts := []openai.Option{}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(opts...), nil
	case "gemini":
		opts := []gemini.Option{}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		return gemini.New(ctx, opts...)
	case "qwen":
		opts := []qwen.Option{}
		if cfg.Model != "" {
			opts = append(opts, qwen.WithModel(cfg.Model))
		}
		return qwen.New(os.Getenv("DASHSCOPE_API_KEY"), opts...), nil
	case "ollama":
		return llm.NewOllama(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildMemory assembles the Memory Adapter from cfg: an external
// Qdrant vector store plus an Ollama embedder when memory.enabled is
// true and memory.provider is "vector", durably backed by sqlite when memory.sqlite_path is set,
// otherwise the in-process lexical/temporal adapter.
func buildMemory(ctx context.Context, cfg config.MemoryConfig) (core.Memory, error) {
	var opts []memory.AdapterOption
	if cfg.Enabled && cfg.Provider == "vector" {
		store, err := qdrant.New(cfg.QdrantAddr)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant at %q: %w", cfg.QdrantAddr, err)
		}
		embedder := ollama.NewEmbedder(cfg.EmbedderBaseURL, cfg.EmbedderModel)
		opts = append(opts, memory.WithVectorStore(store, "loom-memory"), memory.WithEmbedder(embedder))
	}
	if cfg.SQLitePath == "" {
		return memory.New(opts...), nil
	}
	return memory.OpenDurableSQLite(ctx, cfg.SQLitePath, opts...)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "loom:", err)
	os.Exit(1)
}
