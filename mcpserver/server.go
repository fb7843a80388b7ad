// Package mcpserver exposes the job locator as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/feiskyer/jobplace"
)

// ToolName is the MCP tool name.
const ToolName = "locate_job_place"

// LocateParams defines the arguments for the locate_job_place tool
type LocateParams struct {
	Posting string `json:"posting" jsonschema:"Full text of the job posting"`
}

// Server wraps an MCP SDK server exposing the locator.
type Server struct {
	locator jobplace.PostingLocator
	logger  *jobplace.Logger
	timeout time.Duration

	mcp     *sdkmcp.Server
	started atomic.Bool
}

// New constructs a server with the locate_job_place tool registered. Each
// call is bounded by timeout (jobplace.DefaultPostingTimeout when zero).
func New(locator jobplace.PostingLocator, logger *jobplace.Logger, version string, timeout time.Duration) *Server {
	if logger == nil {
		logger = jobplace.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = jobplace.DefaultPostingTimeout
	}

	s := &Server{
		locator: locator,
		logger:  logger,
		timeout: timeout,
		mcp: sdkmcp.NewServer(&sdkmcp.Implementation{
			Name:    "jobplace",
			Version: version,
		}, nil),
	}

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name: ToolName,
		Description: "Find the Google place ID of the location where the job in a posting " +
			"is performed. Returns {\"place_id\": \"...\"}.",
	}, s.locate)

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *sdkmcp.Server {
	return s.mcp
}

// Run serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("mcpserver: already running")
	}
	s.logger.Info("MCP server listening on stdio")
	return s.mcp.Run(ctx, &sdkmcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) locate(ctx context.Context, _ *sdkmcp.CallToolRequest, params LocateParams) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Posting) == "" {
		return errorResult(jobplace.ErrEmptyPosting.Error()), nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	loc, err := s.locator.Locate(ctx, params.Posting)
	if err != nil {
		s.logger.Warn("locate failed", "err", err)
		return errorResult(err.Error()), nil, nil
	}

	out, err := json.Marshal(map[string]string{"place_id": loc.PlaceID})
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	s.logger.Info("located job via mcp", "place_id", loc.PlaceID)
	return textResult(string(out)), nil, nil
}

// textResult returns a text-only tool result
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}

func errorResult(msg string) *sdkmcp.CallToolResult {
	res := textResult("Error: " + msg)
	res.IsError = true
	return res
}
