package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/shopbot/internal/ingest"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/pipeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Conversations Conversations
	Jobs          ingest.JobStore // optional; if nil, add_exemplar is not registered
	TurnTimeout   time.Duration
}

// NewMCPServer creates an MCP server exposing the shop assistant as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.TurnTimeout <= 0 {
		deps.TurnTimeout = defaultTurnTimeout
	}

	s := server.NewMCPServer(
		"shopbot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("shopbot: laptop store assistant. Start a conversation, then send the shopper's messages one at a time."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("start_conversation",
			mcp.WithDescription("Open a new conversation and return its ID."),
			mcp.WithNumber("user_id", mcp.Description("Signed-in shopper ID; omit for an anonymous conversation")),
		),
		mcpStartConversation(deps),
	)

	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send one shopper message and return the assistant's reply."),
			mcp.WithString("conversation_id", mcp.Description("Conversation ID from start_conversation"), mcp.Required()),
			mcp.WithString("text", mcp.Description("The shopper's message"), mcp.Required()),
		),
		mcpSendMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("end_conversation",
			mcp.WithDescription("End a conversation. No further messages are accepted."),
			mcp.WithString("conversation_id", mcp.Description("Conversation ID"), mcp.Required()),
		),
		mcpEndConversation(deps),
	)

	s.AddTool(
		mcp.NewTool("conversation_history",
			mcp.WithDescription("Return every turn of a conversation as JSON, oldest first."),
			mcp.WithString("conversation_id", mcp.Description("Conversation ID"), mcp.Required()),
		),
		mcpHistory(deps),
	)

	if deps.Jobs != nil {
		s.AddTool(
			mcp.NewTool("add_exemplar",
				mcp.WithDescription("Teach the intent matcher a new phrasing. The phrase is embedded in the background."),
				mcp.WithString("intent", mcp.Description("Intent name, e.g. product_search"), mcp.Required()),
				mcp.WithString("text", mcp.Description("Example phrasing"), mcp.Required()),
			),
			mcpAddExemplar(deps),
		)
	}

	return s
}

func mcpStartConversation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var userID *int64
		if id := req.GetInt("user_id", 0); id > 0 {
			uid := int64(id)
			userID = &uid
		}
		conv, err := deps.Conversations.StartConversation(ctx, userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to start conversation: %v", err)), nil
		}
		return mcpText(conv.ID), nil
	}
}

func mcpSendMessage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversation_id")
		if err != nil {
			return mcpError("conversation_id is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		ctx, cancel := context.WithTimeout(ctx, deps.TurnTimeout)
		defer cancel()

		turn, err := deps.Conversations.SubmitMessage(ctx, id, text)
		if err != nil {
			return mcpError(toolErrorText(err)), nil
		}
		return mcpText(turn.Bot.Content), nil
	}
}

func mcpEndConversation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversation_id")
		if err != nil {
			return mcpError("conversation_id is required"), nil
		}
		if _, err := deps.Conversations.EndConversation(ctx, id); err != nil {
			return mcpError(toolErrorText(err)), nil
		}
		return mcpText(fmt.Sprintf("Conversation %s ended", id)), nil
	}
}

func mcpHistory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversation_id")
		if err != nil {
			return mcpError("conversation_id is required"), nil
		}
		turns, err := deps.Conversations.History(ctx, id)
		if err != nil {
			return mcpError(toolErrorText(err)), nil
		}
		if len(turns) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(turns)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal history: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddExemplar(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("intent")
		if err != nil {
			return mcpError("intent is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		id, err := ingest.Enqueue(ctx, deps.Jobs, intent.Intent(name), text)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to queue exemplar: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Queued exemplar job %s", id)), nil
	}
}

func toolErrorText(err error) string {
	var pe *pipeline.Error
	switch {
	case errors.Is(err, pipeline.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, pipeline.ErrConversationEnded):
		return "conversation has ended"
	case errors.As(err, &pe) && pe.Code == pipeline.CodeInvalidInput:
		return pe.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return "the turn did not finish in time"
	}
	return fmt.Sprintf("internal error: %v", err)
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
