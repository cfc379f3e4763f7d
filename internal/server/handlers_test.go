package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/morph2d-output/internal/imaging"
	"github.com/ironsheep/morph2d-output/internal/measure"
	"github.com/ironsheep/morph2d-output/internal/settings"
	"github.com/ironsheep/morph2d-output/internal/store"
)

// newTestServer returns a server writing below a fresh temp directory with
// every output subdirectory created.
func newTestServer(t *testing.T, saveIntermediates bool) *Server {
	t.Helper()
	cfg := settings.Settings{
		OutDirectory:      t.TempDir(),
		SampleID:          "S01",
		SaveIntermediates: saveIntermediates,
	}
	require.NoError(t, settings.PrepareOutputDirs(cfg))
	return New(cfg, nil)
}

// createTestImageFile writes a uniform PNG into dir and returns its path
func createTestImageFile(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// callTool issues a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	require.NoError(t, err)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	require.NotNil(t, resp)
	return resp
}

// decodeResult unmarshals the text content of a successful tool response.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "Result should be a map")
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok, "content should be a list")
	require.Len(t, content, 1)
	require.Equal(t, "text", content[0]["type"])

	text, ok := content[0]["text"].(string)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text), v))
}

func testMeasures() map[string]float64 {
	return map[string]float64{
		measure.KeyArea:            400,
		measure.KeyEccentricity:    0.6,
		measure.KeyPerimeter:       80,
		measure.KeyMajorAxisLength: 25,
		measure.KeyMinorAxisLength: 20,
		measure.KeyRugosity:        1.02,
	}
}

func appendArgs(objectID int) map[string]interface{} {
	return map[string]interface{}{
		"object_id":    objectID,
		"measures":     testMeasures(),
		"height":       25,
		"width":        20,
		"aspect_ratio": 1.25,
	}
}

func TestHandleToolsCall_Settings(t *testing.T) {
	s := newTestServer(t, true)

	var got SettingsResult
	decodeResult(t, callTool(t, s, "morph_settings", map[string]interface{}{}), &got)

	assert.Equal(t, s.cfg.OutDirectory, got.OutDirectory)
	assert.Equal(t, "S01", got.SampleID)
	assert.True(t, got.SaveIntermediates)
	assert.Equal(t, 0, got.Rows)
}

func TestHandleToolsCall_BeginSample(t *testing.T) {
	s := newTestServer(t, false)

	var got SettingsResult
	decodeResult(t, callTool(t, s, "morph_begin_sample", map[string]interface{}{"sample_id": "S02"}), &got)
	assert.Equal(t, "S02", got.SampleID)

	var appended AppendResult
	decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(1)), &appended)
	assert.Equal(t, "S02", appended.Record.SampleID)

	resp := callTool(t, s, "morph_begin_sample", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "S02", s.cfg.SampleID)
}

func TestHandleToolsCall_AppendMeasurement(t *testing.T) {
	s := newTestServer(t, false)

	for i := 1; i <= 3; i++ {
		var got AppendResult
		decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(i)), &got)
		assert.Equal(t, i, got.Rows)
		assert.Equal(t, i, got.Record.ObjectID)
		assert.Equal(t, "S01", got.Record.SampleID)
		assert.Equal(t, 400.0, got.Record.Area)
		assert.Equal(t, 1.25, got.Record.AspectRatio)
	}

	args := appendArgs(4)
	args["sample_id"] = "other"
	var got AppendResult
	decodeResult(t, callTool(t, s, "morph_append_measurement", args), &got)
	assert.Equal(t, "other", got.Record.SampleID)
	assert.Equal(t, 4, s.table.Len())
}

func TestHandleToolsCall_AppendMeasurement_MissingKey(t *testing.T) {
	s := newTestServer(t, false)
	decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(1)), &AppendResult{})

	m := testMeasures()
	delete(m, measure.KeyRugosity)
	args := appendArgs(2)
	args["measures"] = m

	resp := callTool(t, s, "morph_append_measurement", args)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, measure.KeyRugosity)
	assert.Equal(t, 1, s.table.Len(), "failed append must not change the table")
}

func TestHandleToolsCall_WriteMeasurements(t *testing.T) {
	s := newTestServer(t, false)
	for i := 0; i < 2; i++ {
		decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(i)), &AppendResult{})
	}

	var got WriteResult
	decodeResult(t, callTool(t, s, "morph_write_measurements", map[string]interface{}{}), &got)

	wantPath := filepath.Join(s.cfg.OutDirectory, MeasurementsFile)
	require.Equal(t, []string{wantPath}, got.Paths)
	assert.Empty(t, got.RunID)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SampleID,ObjectID,Area")
	assert.Contains(t, string(data), "S01,1,400,0.6,80,25,20,1.02,25,20,1.25")

	custom := filepath.Join(t.TempDir(), "custom.csv")
	decodeResult(t, callTool(t, s, "morph_write_measurements", map[string]interface{}{"path": custom}), &got)
	assert.FileExists(t, custom)
}

func TestHandleToolsCall_WriteMeasurements_Store(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := settings.Settings{OutDirectory: t.TempDir(), SampleID: "S01"}
	require.NoError(t, settings.PrepareOutputDirs(cfg))
	s := New(cfg, st)

	decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(1)), &AppendResult{})

	var first WriteResult
	decodeResult(t, callTool(t, s, "morph_write_measurements", map[string]interface{}{}), &first)
	require.NotEmpty(t, first.RunID)

	decodeResult(t, callTool(t, s, "morph_append_measurement", appendArgs(2)), &AppendResult{})

	var second WriteResult
	decodeResult(t, callTool(t, s, "morph_write_measurements", map[string]interface{}{}), &second)
	assert.Equal(t, first.RunID, second.RunID, "writes within one process share a run")

	table, err := st.LoadTable(context.Background(), second.RunID)
	require.NoError(t, err)
	assert.Equal(t, s.table.Records(), table.Records())
}

func TestHandleToolsCall_SaveCoordinates(t *testing.T) {
	s := newTestServer(t, false)

	args := map[string]interface{}{
		"coordinates": []map[string]float64{{"x": 1, "y": 2}, {"x": 3.5, "y": 4}},
		"object_id":   7,
		"object_name": "leaf_7",
		"tag":         "outline",
	}
	var got WriteResult
	decodeResult(t, callTool(t, s, "morph_save_coordinates", args), &got)

	want := filepath.Join(s.cfg.OutDirectory, settings.CoordinatesDir, "leaf_7_coordinates_outline.csv")
	require.Equal(t, []string{want}, got.Paths)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "SampleID,ObjectID,x,y\nS01,7,1,2\nS01,7,3.5,4\n", string(data))
}

func TestHandleToolsCall_SaveCoordinates_MissingName(t *testing.T) {
	s := newTestServer(t, false)
	resp := callTool(t, s, "morph_save_coordinates", map[string]interface{}{
		"coordinates": []map[string]float64{{"x": 1, "y": 2}},
		"object_id":   1,
		"tag":         "outline",
	})
	require.NotNil(t, resp.Error)
}

func TestHandleToolsCall_SaveBoundingBox(t *testing.T) {
	s := newTestServer(t, false)

	args := map[string]interface{}{
		"mbb": []map[string]float64{{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 5}, {"x": 0, "y": 5}},
		"contour": [][]map[string]float64{
			{{"x": 1, "y": 1}, {"x": 9, "y": 1}},
			{{"x": 9, "y": 4}, {"x": 1, "y": 4}},
		},
		"aspect_ratio": 2.0,
		"object_name":  "leaf_1",
	}
	var got WriteResult
	decodeResult(t, callTool(t, s, "morph_save_bounding_box", args), &got)

	require.Len(t, got.Paths, 2)
	for _, p := range got.Paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Equal(t, ".pdf", filepath.Ext(got.Paths[0]))
	assert.Equal(t, ".jpg", filepath.Ext(got.Paths[1]))
}

func TestHandleToolsCall_SaveBoundingBox_BadBox(t *testing.T) {
	s := newTestServer(t, false)
	resp := callTool(t, s, "morph_save_bounding_box", map[string]interface{}{
		"mbb":          []map[string]float64{{"x": 0, "y": 0}},
		"contour":      [][]map[string]float64{{{"x": 1, "y": 1}}},
		"aspect_ratio": 1.0,
		"object_name":  "leaf_1",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleToolsCall_SaveIntermediate(t *testing.T) {
	s := newTestServer(t, true)
	src := createTestImageFile(t, t.TempDir(), "stage.png", 12, 8, color.RGBA{10, 20, 30, 255})

	var got WriteResult
	decodeResult(t, callTool(t, s, "morph_save_intermediate", map[string]interface{}{
		"path":       src,
		"image_name": "img1",
		"tag":        "blur.png",
	}), &got)

	want := filepath.Join(s.cfg.OutDirectory, settings.IntermediatesDir, "S01_img1_blur.png")
	require.Equal(t, []string{want}, got.Paths)
	assert.FileExists(t, want)

	resp := callTool(t, s, "morph_save_intermediate", map[string]interface{}{
		"path":       src,
		"image_name": "img1",
		"tag":        "threshold",
	})
	require.NotNil(t, resp.Error, "a tag without an image extension must be rejected")
	assert.Contains(t, resp.Error.Data, "unsupported image format")
}

// grayAt decodes the image at path and returns the gray level at (x, y).
func grayAt(t *testing.T, path string, x, y int) uint8 {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err)
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestHandleToolsCall_SaveIntermediate_RewrittenSource(t *testing.T) {
	s := newTestServer(t, true)
	dir := t.TempDir()

	// Each stage overwrites the same file before the tool is called.
	stages := []struct {
		tag   string
		level uint8
	}{
		{"blur.png", 10},
		{"threshold.png", 200},
		{"edges.png", 90},
	}

	for _, stage := range stages {
		src := createTestImageFile(t, dir, "stage.png", 6, 4, color.Gray{Y: stage.level})

		var got WriteResult
		decodeResult(t, callTool(t, s, "morph_save_intermediate", map[string]interface{}{
			"path":       src,
			"image_name": "img1",
			"tag":        stage.tag,
		}), &got)
		require.Len(t, got.Paths, 1)
		assert.Equal(t, stage.level, grayAt(t, got.Paths[0], 3, 2), "stage %s", stage.tag)
	}
}

func TestHandleToolsCall_SaveFinalOverlay_RewrittenSources(t *testing.T) {
	s := newTestServer(t, false)
	dir := t.TempDir()

	for i, level := range []uint8{40, 160} {
		sample := []string{"S01", "S02"}[i]
		decodeResult(t, callTool(t, s, "morph_begin_sample", map[string]interface{}{"sample_id": sample}), &SettingsResult{})

		imgPath := createTestImageFile(t, dir, "orig.png", 8, 8, color.RGBA{level, level, level, 255})
		edgePath := createTestImageFile(t, dir, "edge.png", 8, 8, color.Gray{})

		var got WriteResult
		decodeResult(t, callTool(t, s, "morph_save_final_overlay", map[string]interface{}{
			"image_path": imgPath,
			"edge_path":  edgePath,
			"image_name": "img1",
		}), &got)
		require.Len(t, got.Paths, 1)
		assert.Equal(t, level, grayAt(t, got.Paths[0], 4, 4), "sample %s", sample)
	}
}

func TestHandleToolsCall_SaveIntermediate_NonExistentFile(t *testing.T) {
	s := newTestServer(t, true)
	resp := callTool(t, s, "morph_save_intermediate", map[string]interface{}{
		"path":       "/nonexistent/image.png",
		"image_name": "img1",
		"tag":        "blur.png",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleToolsCall_SaveFinalOverlay(t *testing.T) {
	s := newTestServer(t, true)
	dir := t.TempDir()
	imgPath := createTestImageFile(t, dir, "orig.png", 16, 10, color.RGBA{100, 100, 100, 255})
	edgePath := createTestImageFile(t, dir, "edge.png", 16, 10, color.Gray{Y: 255})

	var got WriteResult
	decodeResult(t, callTool(t, s, "morph_save_final_overlay", map[string]interface{}{
		"image_path": imgPath,
		"edge_path":  edgePath,
		"image_name": "img1",
	}), &got)

	require.Len(t, got.Paths, 2)
	assert.Equal(t, filepath.Join(s.cfg.OutDirectory, settings.OutlinesDir, "S01_img1_final.tif"), got.Paths[0])
	assert.Equal(t, settings.IntermediatesDir, filepath.Base(filepath.Dir(got.Paths[1])))

	a, err := os.ReadFile(got.Paths[0])
	require.NoError(t, err)
	b, err := os.ReadFile(got.Paths[1])
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHandleToolsCall_SaveFinalOverlay_ShapeMismatch(t *testing.T) {
	s := newTestServer(t, false)
	dir := t.TempDir()
	imgPath := createTestImageFile(t, dir, "orig.png", 16, 10, color.RGBA{100, 100, 100, 255})
	edgePath := createTestImageFile(t, dir, "edge.png", 8, 10, color.Gray{})

	resp := callTool(t, s, "morph_save_final_overlay", map[string]interface{}{
		"image_path": imgPath,
		"edge_path":  edgePath,
		"image_name": "img1",
	})
	require.NotNil(t, resp.Error)
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t, false)
	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{})

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "unknown tool")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t, false)
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name": 12}`),
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_BadArguments(t *testing.T) {
	s := newTestServer(t, false)
	resp := callTool(t, s, "morph_append_measurement", map[string]interface{}{"object_id": "seven"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, 0, s.table.Len())
}

func TestMustMarshalJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"paths\": [\n    \"a\"\n  ]\n}", mustMarshalJSON(WriteResult{Paths: []string{"a"}}))
	assert.Equal(t, "", mustMarshalJSON(make(chan int)))
}
