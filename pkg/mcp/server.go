package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/graph"
	"github.com/rmax-ai/blockgen/pkg/reports"
)

const (
	ToolGenerate = "generate_block_diagram"
	ToolBOM      = "bill_of_materials"
	ToolExport   = "export_diagram"

	ResourceTemplate = "blockgen://template"
	ResourceCanvas   = "blockgen://canvas"

	PromptDesigner = "blockgen-designer"
)

// Server adapts the blockgen service to the Model Context Protocol. It keeps
// one working set so an agent can generate, inspect and export a diagram.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
	canvas    *canvas.Controller

	mu          sync.Mutex
	description string
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"blockgen",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
		canvas:    canvas.New(canvas.NewMemorySink()),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		ResourceTemplate,
		"Default Block Diagram",
		mcp.WithResourceDescription("The built-in five block starter diagram"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadTemplate)

	s.mcpServer.AddResource(mcp.NewResource(
		ResourceCanvas,
		"Current Diagram",
		mcp.WithResourceDescription("The diagram most recently generated in this session"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadCanvas)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		ToolGenerate,
		mcp.WithDescription("Generate a 5-block electronics system diagram (power, inputs, processing, outputs, peripherals) from a product description."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text description of the product, e.g. 'Bluetooth speaker with RGB lighting effects'")),
	), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolBOM,
		mcp.WithDescription("List every component of the current diagram as a bill of materials."),
		mcp.WithString("format", mcp.Enum("csv", "json"), mcp.Description("Output format (default csv)")),
	), s.handleBOM)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolExport,
		mcp.WithDescription("Export the current diagram as a versioned JSON document that can be re-imported."),
	), s.handleExport)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		PromptDesigner,
		mcp.WithPromptDescription("Guide through designing the hardware architecture of a product"),
		mcp.WithArgument("product",
			mcp.ArgumentDescription("The product to design, e.g. 'smart thermostat'"),
		),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadTemplate(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(request.Params.URI, diagram.DefaultTemplate())
}

func (s *Server) handleReadCanvas(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.Lock()
	desc := s.description
	s.mu.Unlock()

	return jsonResource(request.Params.URI, struct {
		Description string          `json:"description"`
		Revision    uint64          `json:"revision"`
		Diagram     diagram.Diagram `json:"diagram"`
	}{
		Description: desc,
		Revision:    s.canvas.Snapshot().Revision,
		Diagram:     s.canvas.Canonical(),
	})
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := strings.TrimSpace(mcp.ParseString(request, "description", ""))

	ticket := s.canvas.BeginRequest()
	d, err := s.apiClient.Generate(ctx, description)
	if err != nil {
		n := client.Notify(err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", n.Title, n.Message)), nil
	}

	if err := s.canvas.ReplaceIfCurrent(ctx, ticket, d); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram discarded: %v", err)), nil
	}
	s.mu.Lock()
	s.description = description
	s.mu.Unlock()

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleBOM(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := s.canvas.Canonical()
	if len(d.Blocks) == 0 {
		return mcp.NewToolResultError("No diagram yet. Call generate_block_diagram first."), nil
	}

	format := reports.ReportFormat(mcp.ParseString(request, "format", string(reports.ReportFormatCSV)))
	gen, err := reports.NewReportGenerator(reports.ReportTypeBOM, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := gen.Generate(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.canvas.Snapshot()
	if len(snap.Nodes) == 0 {
		return mcp.NewToolResultError("No diagram yet. Call generate_block_diagram first."), nil
	}

	s.mu.Lock()
	desc := s.description
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := graph.NewExport(desc, snap.Nodes, snap.Edges, time.Now()).Encode(&buf); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != PromptDesigner {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	product := request.Params.Arguments["product"]
	if product == "" {
		product = "the product the user describes"
	}

	promptText := fmt.Sprintf(`You are helping design the electronics architecture of %s.

Every design is split into exactly five blocks:
- power: battery, charging, regulation
- inputs: sensors, buttons, microphones
- processing: microcontroller, memory, clocks
- outputs: displays, LEDs, speakers, actuators
- peripherals: wireless, connectivity, storage, debug

Steps:
1. Call the 'generate_block_diagram' tool with a one sentence product description.
2. Review the blocks and connections; point out missing components or unlikely interfaces.
3. Use 'bill_of_materials' to list parts and 'export_diagram' to save the result.

If generation reports a rate limit or exhausted credits, tell the user and stop. Do not retry automatically.`, product)

	return mcp.NewGetPromptResult(
		PromptDesigner,
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
