// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/airseries/internal/contract"
)

// NewMCPServer initializes and configures the airseries MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Air Quality Series Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	s.AddTool(mcp.NewTool("get_sensor_coverage",
		mcp.WithDescription("Report the captured time range, segment count and indexed rows of registered PurpleAir sensors."),
		mcp.WithNumber("sensor_id", mcp.Description("Only report this sensor index (defaults to every registered sensor).")),
	), h.handleGetSensorCoverage)

	s.AddTool(mcp.NewTool("get_air_quality_report",
		mcp.WithDescription("Build the 10-minute PM2.5 time series for every sensor from the local index."),
		mcp.WithNumber("window_days", mcp.Description("Number of trailing days to include. Defaults to the configured window.")),
		mcp.WithString("mode", mcp.Description("Cell rendering (aqi, average). Defaults to 'aqi'."), mcp.Enum("aqi", "average")),
		mcp.WithString("channel", mcp.Description("A/B channel pair to read (atm, alt, cf_1). Defaults to 'atm'."), mcp.Enum("atm", "alt", "cf_1")),
		mcp.WithString("timezone", mcp.Description("IANA timezone for bucket labels, e.g. 'America/New_York'.")),
	), h.handleGetAirQualityReport)

	return s
}

// StartMCPServer starts the airseries MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
