package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/airseries/core"
	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// coverageResult is the payload of get_sensor_coverage.
type coverageResult struct {
	Index   schema.IndexStatus    `json:"index"`
	Sensors []schema.SensorStatus `json:"sensors"`
}

func (h *toolHandler) handleGetSensorCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	sensorID := request.GetInt("sensor_id", 0)
	if sensorID < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sensor_id %d", sensorID)), nil
	}

	sensors, indexStatus, err := core.GetStatus(core.WithSuppressHeader(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("coverage lookup failed: %v", err)), nil
	}

	if sensorID > 0 {
		var match []schema.SensorStatus
		for _, st := range sensors {
			if st.Sensor.ID == sensorID {
				match = append(match, st)
			}
		}
		if len(match) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("sensor %d is not in the registry", sensorID)), nil
		}
		sensors = match
	}

	jsonData, _ := json.MarshalIndent(coverageResult{Index: indexStatus, Sensors: sensors}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetAirQualityReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	windowDays := request.GetInt("window_days", 0)
	mode := request.GetString("mode", "")
	channel := request.GetString("channel", "")
	timezone := request.GetString("timezone", "")

	if err := contract.RevalidateReport(cfg, windowDays, mode, channel, timezone); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}

	report, err := core.GetReport(core.WithSuppressHeader(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
