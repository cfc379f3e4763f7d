package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/morph2d-output/internal/imaging"
	"github.com/ironsheep/morph2d-output/internal/measure"
	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/output"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// MeasurementsFile is the default CSV written by morph_write_measurements,
// relative to the output directory.
const MeasurementsFile = "measurements.csv"

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "morph_save_coordinates").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		monitoring.Logf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	// Run State
	case "morph_settings":
		return s.handleSettings()
	case "morph_begin_sample":
		return s.handleBeginSample(args)

	// Measurements
	case "morph_append_measurement":
		return s.handleAppendMeasurement(args)
	case "morph_write_measurements":
		return s.handleWriteMeasurements(ctx, args)

	// Per-object Output
	case "morph_save_coordinates":
		return s.handleSaveCoordinates(args)
	case "morph_save_bounding_box":
		return s.handleSaveBoundingBox(args)

	// Per-image Output
	case "morph_save_intermediate":
		return s.handleSaveIntermediate(args)
	case "morph_save_final_overlay":
		return s.handleSaveFinalOverlay(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// A value that cannot be marshaled yields an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// SettingsResult is returned by morph_settings and morph_begin_sample.
type SettingsResult struct {
	settings.Settings
	Rows  int    `json:"rows"`
	RunID string `json:"run_id,omitempty"`
}

// AppendResult is returned by morph_append_measurement.
type AppendResult struct {
	Rows   int            `json:"rows"`
	Record measure.Record `json:"record"`
}

// WriteResult lists the files a tool wrote.
type WriteResult struct {
	Paths []string `json:"paths"`
	RunID string   `json:"run_id,omitempty"`
}

// === Run State Handlers ===

func (s *Server) settingsResult() SettingsResult {
	return SettingsResult{Settings: s.cfg, Rows: s.table.Len(), RunID: s.runID}
}

func (s *Server) handleSettings() (interface{}, error) {
	return s.settingsResult(), nil
}

type beginSampleArgs struct {
	SampleID string `json:"sample_id"`
}

func (s *Server) handleBeginSample(args json.RawMessage) (interface{}, error) {
	var a beginSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SampleID == "" {
		return nil, errors.New("sample_id is required")
	}
	s.cfg = s.cfg.WithSampleID(a.SampleID)
	monitoring.Logf("active sample is now %s", a.SampleID)
	return s.settingsResult(), nil
}

// sampleOr returns id, or the active sample ID when id is empty.
func (s *Server) sampleOr(id string) string {
	if id == "" {
		return s.cfg.SampleID
	}
	return id
}

// === Measurement Handlers ===

type appendMeasurementArgs struct {
	SampleID    string             `json:"sample_id"`
	ObjectID    int                `json:"object_id"`
	Measures    map[string]float64 `json:"measures"`
	Height      float64            `json:"height"`
	Width       float64            `json:"width"`
	AspectRatio float64            `json:"aspect_ratio"`
}

func (s *Server) handleAppendMeasurement(args json.RawMessage) (interface{}, error) {
	var a appendMeasurementArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	next, err := measure.AppendObject(s.table, s.sampleOr(a.SampleID), a.ObjectID, a.Measures, a.Height, a.Width, a.AspectRatio)
	if err != nil {
		return nil, err
	}
	s.table = next

	records := next.Records()
	return AppendResult{Rows: next.Len(), Record: records[len(records)-1]}, nil
}

type writeMeasurementsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleWriteMeasurements(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a writeMeasurementsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		a.Path = filepath.Join(s.cfg.OutDirectory, MeasurementsFile)
	}

	if err := measure.SaveCSV(a.Path, s.table); err != nil {
		return nil, err
	}
	result := WriteResult{Paths: []string{a.Path}}

	if s.store != nil {
		if s.runID == "" {
			runID, err := s.store.BeginRun(ctx, s.cfg, s.table.Columns())
			if err != nil {
				return nil, err
			}
			s.runID = runID
		}
		if err := s.store.SaveTable(ctx, s.runID, s.table); err != nil {
			return nil, err
		}
		result.RunID = s.runID
	}

	monitoring.Logf("wrote %d measurements to %s", s.table.Len(), a.Path)
	return result, nil
}

// === Per-object Output Handlers ===

type saveCoordinatesArgs struct {
	Coordinates []output.Point `json:"coordinates"`
	SampleID    string         `json:"sample_id"`
	ObjectID    int            `json:"object_id"`
	ObjectName  string         `json:"object_name"`
	Tag         string         `json:"tag"`
}

func (s *Server) handleSaveCoordinates(args json.RawMessage) (interface{}, error) {
	var a saveCoordinatesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ObjectName == "" {
		return nil, errors.New("object_name is required")
	}

	path, err := output.WriteCoordinates(s.cfg, a.Coordinates, s.sampleOr(a.SampleID), a.ObjectID, a.ObjectName, a.Tag)
	if err != nil {
		return nil, err
	}
	return WriteResult{Paths: []string{path}}, nil
}

type saveBoundingBoxArgs struct {
	MBB         []output.Point `json:"mbb"`
	Contour     output.Contour `json:"contour"`
	AspectRatio float64        `json:"aspect_ratio"`
	ObjectName  string         `json:"object_name"`
}

func (s *Server) handleSaveBoundingBox(args json.RawMessage) (interface{}, error) {
	var a saveBoundingBoxArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ObjectName == "" {
		return nil, errors.New("object_name is required")
	}

	paths, err := output.SaveBoundingBoxFigure(s.cfg, a.MBB, a.Contour, a.AspectRatio, a.ObjectName)
	if err != nil {
		return nil, err
	}
	return WriteResult{Paths: paths}, nil
}

// === Per-image Output Handlers ===

type saveIntermediateArgs struct {
	Path      string `json:"path"`
	ImageName string `json:"image_name"`
	Tag       string `json:"tag"`
}

func (s *Server) handleSaveIntermediate(args json.RawMessage) (interface{}, error) {
	var a saveIntermediateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := imaging.Open(a.Path)
	if err != nil {
		return nil, err
	}

	path, err := output.SaveIntermediate(s.cfg, img, a.ImageName, a.Tag)
	if err != nil {
		return nil, err
	}
	return WriteResult{Paths: []string{path}}, nil
}

type saveFinalOverlayArgs struct {
	ImagePath string `json:"image_path"`
	EdgePath  string `json:"edge_path"`
	ImageName string `json:"image_name"`
}

func (s *Server) handleSaveFinalOverlay(args json.RawMessage) (interface{}, error) {
	var a saveFinalOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := imaging.Open(a.ImagePath)
	if err != nil {
		return nil, err
	}
	edge, err := imaging.Open(a.EdgePath)
	if err != nil {
		return nil, err
	}

	paths, err := output.SaveFinalOverlay(s.cfg, img, edge, a.ImageName)
	if err != nil {
		return nil, err
	}
	return WriteResult{Paths: paths}, nil
}
