package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/shopbot/internal/api"
	"github.com/kalambet/shopbot/internal/config"
	"github.com/kalambet/shopbot/internal/storage"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the running assistant",
	Long: `Start a conversation with the running server and read messages from stdin.
Type "exit" or "quit", or send EOF, to end the conversation.

Examples:
  shopbot chat --user 1
  echo "show me gaming laptops under $1500" | shopbot chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var userID *int64
		if cmd.Flags().Changed("user") {
			id, _ := cmd.Flags().GetInt64("user")
			userID = &id
		}
		return runChat(cmd.Context(), client, userID, os.Stdin, os.Stdout)
	},
}

func init() {
	chatCmd.Flags().Int64("user", 0, "signed-in user ID (anonymous when omitted)")
}

type chatConversation struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type chatTurn struct {
	User struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	} `json:"user"`
	Bot struct {
		Content string `json:"content"`
	} `json:"bot"`
	Invocation *chatInvocation `json:"invocation"`
}

type chatInvocation struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func isExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

// runChat runs one conversation over the API until in is exhausted or the
// user types an exit command.
func runChat(ctx context.Context, c *apiClient, userID *int64, in io.Reader, out io.Writer) error {
	resp, err := c.post(ctx, "/conversations", map[string]any{"user_id": userID})
	if err != nil {
		return err
	}
	var conv chatConversation
	if err := decodeJSON(resp, &conv); err != nil {
		return err
	}
	printStep("Conversation %s started", conv.ID)

	defer func() {
		resp, err := c.post(context.WithoutCancel(ctx), "/conversations/"+conv.ID+"/end", nil)
		if err != nil {
			printWarning("could not end conversation: %v", err)
			return
		}
		if err := decodeJSON(resp, nil); err != nil {
			printWarning("could not end conversation: %v", err)
			return
		}
		printStep("Conversation %s ended", conv.ID)
	}()

	scanner := bufio.NewScanner(in)
	for {
		printPrompt(out)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExitCommand(line) {
			return nil
		}

		resp, err := c.post(ctx, "/conversations/"+conv.ID+"/messages", map[string]string{"text": line})
		if err != nil {
			return err
		}
		var turn chatTurn
		if err := decodeJSON(resp, &turn); err != nil {
			printError("%v", err)
			continue
		}
		printReply(out, turn)
		slog.Debug("turn", "intent", turn.User.Intent, "confidence", turn.User.Confidence)
	}
}

// --- exemplars ---

var exemplarsCmd = &cobra.Command{
	Use:   "exemplars",
	Short: "Teach the intent matcher new phrases",
}

var exemplarsAddCmd = &cobra.Command{
	Use:   "add <intent> <text...>",
	Short: "Queue a phrase to be embedded as an exemplar for an intent",
	Long: `Queue a phrase to be embedded as an exemplar for an intent.

Examples:
  shopbot exemplars add ProductSearch "any cheap chromebooks around"
  shopbot exemplars add OrderStatus where is my package`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		id, err := addExemplar(cmd.Context(), client, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printSuccess("Queued exemplar %s", id)
		return nil
	},
}

func addExemplar(ctx context.Context, c *apiClient, intentName, text string) (string, error) {
	resp, err := c.post(ctx, "/exemplars", map[string]string{"intent": intentName, "text": text})
	if err != nil {
		return "", err
	}
	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}
	return result["id"], nil
}

func init() {
	exemplarsCmd.AddCommand(exemplarsAddCmd)
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	a, err := buildApp(ctx, cfg, store)
	if err != nil {
		return err
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Conversations: a.orchestrator,
		Jobs:          store,
	})
	slog.Info("MCP server started (stdio transport)")
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
