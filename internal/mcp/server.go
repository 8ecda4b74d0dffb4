// Package mcp exposes the marketplace over the Model Context Protocol so
// agent tooling can browse the catalog, purchase workties, and inspect
// pipelines through the same service layer the REST API uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"worktyhub/backend/internal/policy"
	"worktyhub/backend/internal/services"
	"worktyhub/backend/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	purchases *services.PurchaseService
	registry  *services.Registry
	engine    *policy.Engine
}

func NewServer(purchases *services.PurchaseService, registry *services.Registry, engine *policy.Engine) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Workty Market",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		purchases: purchases,
		registry:  registry,
		engine:    engine,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"catalog_search",
			mcp.WithDescription("List purchasable workty templates"),
			mcp.WithString("category", mcp.Description("Filter templates by category")),
		),
		s.handleCatalogSearch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"purchase_workty",
			mcp.WithDescription("Purchase a catalog template for an account"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("The buying account")),
			mcp.WithString("workty_id", mcp.Required(), mcp.Description("The catalog template to buy")),
		),
		s.handlePurchase,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_workflow",
			mcp.WithDescription("Fetch a workflow with its ordered instances"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("The owning account")),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to fetch")),
		),
		s.handleGetWorkflow,
	)
}

func (s *Server) handleCatalogSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	category, _ := args["category"].(string)

	templates, err := s.registry.ListCatalog(ctx, category, models.ListOptions{PerPage: 50})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search catalog: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(templates)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handlePurchase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	accountID, ok := args["account_id"].(string)
	if !ok || accountID == "" {
		return mcp.NewToolResultError("Missing required parameter: account_id"), nil
	}
	worktyID, ok := args["workty_id"].(string)
	if !ok || worktyID == "" {
		return mcp.NewToolResultError("Missing required parameter: workty_id"), nil
	}

	caller := services.Caller{AccountID: accountID, Admin: s.engine.Snapshot().HasAdminRole(accountID)}
	result, err := s.purchases.Purchase(ctx, caller, worktyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to purchase: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	accountID, ok := args["account_id"].(string)
	if !ok || accountID == "" {
		return mcp.NewToolResultError("Missing required parameter: account_id"), nil
	}
	workflowID, ok := args["workflow_id"].(string)
	if !ok || workflowID == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	caller := services.Caller{AccountID: accountID, Admin: s.engine.Snapshot().HasAdminRole(accountID)}
	wf, err := s.registry.GetWorkflow(ctx, caller, workflowID, []string{services.EmbedInstances})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(wf)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers serves the MCP server over SSE under /mcp.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
