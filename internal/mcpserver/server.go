// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes montage editing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/montage/internal/editor"
	"github.com/starford/montage/internal/timeline"
)

// ContractURI is the resource URI of the editing contract.
const ContractURI = "montage://editing-contract"

// Server wraps the MCP server with montage tools.
type Server struct {
	mcp    *server.MCPServer
	editor *editor.Service
}

// New creates a new MCP server with all montage tools registered.
func New(svc *editor.Service) *Server {
	s := &Server{editor: svc}

	s.mcp = server.NewMCPServer(
		"Montage",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Return the current project: tracks, clips, playhead, duration and selection."),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("add_track",
		mcp.WithDescription("Append an empty track. Later tracks draw above earlier ones."),
		mcp.WithString("kind", mcp.Enum(string(timeline.TrackVisual), string(timeline.TrackAudio)),
			mcp.Description("Track kind (default visual)")),
	), s.addTrack)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List or search media library assets that can be placed on the timeline."),
		mcp.WithString("kind", mcp.Enum("video", "audio", "image", "text"), mcp.Description("Optional kind filter")),
		mcp.WithString("query", mcp.Description("Optional search query over names, paths and tags")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 50)")),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("place_asset",
		mcp.WithDescription("Place a library asset on the timeline. Read get_editing_contract for the "+
			"placement rules. The placed clip becomes the selection."),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset id from list_assets")),
		mcp.WithString("track_id", mcp.Description("Target track (default: first track of the matching kind)")),
		mcp.WithNumber("start", mcp.Min(0), mcp.Description("Start time in seconds (default: playhead)")),
	), s.placeAsset)

	s.mcp.AddTool(mcp.NewTool("update_clip_properties",
		mcp.WithDescription("Merge transform and audio properties into a clip. Only passed fields change."),
		mcp.WithString("clip_id", mcp.Description("Clip id (default: selected clip)")),
		mcp.WithNumber("opacity", mcp.Min(0), mcp.Max(100), mcp.Description("Opacity percent")),
		mcp.WithNumber("scale", mcp.Min(0), mcp.Description("Scale percent")),
		mcp.WithNumber("position_x", mcp.Description("Horizontal offset in pixels")),
		mcp.WithNumber("position_y", mcp.Description("Vertical offset in pixels")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in degrees")),
		mcp.WithNumber("volume", mcp.Min(0), mcp.Max(100), mcp.Description("Volume percent")),
		mcp.WithNumber("speed", mcp.Description("Playback speed multiplier, above 0")),
	), s.updateClipProperties)

	s.mcp.AddTool(mcp.NewTool("select_clip",
		mcp.WithDescription("Select a clip, or clear the selection with an empty clip_id."),
		mcp.WithString("clip_id", mcp.Description("Clip id to select")),
	), s.selectClip)

	s.mcp.AddTool(mcp.NewTool("seek",
		mcp.WithDescription("Move the playhead."),
		mcp.WithNumber("time", mcp.Required(), mcp.Min(0), mcp.Description("Time in seconds")),
	), s.seek)

	s.mcp.AddTool(mcp.NewTool("resolve_frame",
		mcp.WithDescription("Resolve what renders at a time: the topmost visual clip and the live audio clips."),
		mcp.WithNumber("time", mcp.Min(0), mcp.Description("Time in seconds (default: playhead)")),
	), s.resolveFrame)

	s.mcp.AddTool(mcp.NewTool("add_generated_text",
		mcp.WithDescription("Store a caption or script line as a text asset and optionally place it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text content")),
		mcp.WithBoolean("place", mcp.Description("Place the new asset at the playhead")),
	), s.addGeneratedText)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Store an image or audio file from a data: URI or an http(s) URL as a library asset."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI (base64) or http(s) URL")),
		mcp.WithString("filename", mcp.Description("Optional file name; generated when omitted")),
		mcp.WithBoolean("place", mcp.Description("Place the new asset at the playhead")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("export_edl",
		mcp.WithDescription("Render the project as a CMX3600 edit decision list."),
		mcp.WithString("title", mcp.Description("EDL title")),
		mcp.WithNumber("fps", mcp.Description("Frame rate (default 30)")),
	), s.exportEDL)

	s.mcp.AddTool(mcp.NewTool("get_editing_contract",
		mcp.WithDescription("Returns the montage editing contract. "+
			"Call this before editing to learn the timeline model and placement rules."),
	), s.getEditingContract)

	// Resource: editing contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Editing Contract",
			mcp.WithResourceDescription("Timeline model and editing rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// optFloat returns the named number argument, or nil when absent.
func optFloat(req mcp.CallToolRequest, name string) *float64 {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil
	}
	v, err := req.RequireFloat(name)
	if err != nil {
		return nil
	}
	return &v
}

type projectView struct {
	Project timeline.Project `json:"project"`
	Zoom    float64          `json:"zoom"`
}

func (s *Server) view(ctx context.Context, p timeline.Project) *mcp.CallToolResult {
	return jsonResult(projectView{Project: p, Zoom: s.editor.Zoom(ctx)})
}

func (s *Server) getProject(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, s.editor.Project(ctx)), nil
}

func (s *Server) addTrack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := timeline.TrackKind(req.GetString("kind", ""))
	if kind != "" && !kind.Valid() {
		return mcp.NewToolResultError("kind must be visual or audio"), nil
	}
	_, track := s.editor.AddTrack(ctx, kind)
	return jsonResult(track), nil
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.editor.ListAssets(ctx, editor.AssetQuery{
		Kind:  req.GetString("kind", ""),
		Query: req.GetString("query", ""),
		Limit: req.GetInt("limit", 50),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"assets": items, "total": total}), nil
}

func (s *Server) placeAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, clip, err := s.editor.PlaceAsset(ctx, assetID, req.GetString("track_id", ""), optFloat(req, "start"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(clip), nil
}

func (s *Server) updateClipProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch := timeline.PropertiesPatch{
		Opacity:   optFloat(req, "opacity"),
		Scale:     optFloat(req, "scale"),
		PositionX: optFloat(req, "position_x"),
		PositionY: optFloat(req, "position_y"),
		Rotation:  optFloat(req, "rotation"),
		Volume:    optFloat(req, "volume"),
		Speed:     optFloat(req, "speed"),
	}
	clipID := req.GetString("clip_id", "")
	p, err := s.editor.UpdateClipProperties(ctx, clipID, patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if clipID == "" {
		clipID = p.SelectedClipID
	}
	clip, _ := timeline.FindClip(p, clipID)
	return jsonResult(clip), nil
}

func (s *Server) selectClip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := s.editor.SelectClip(ctx, req.GetString("clip_id", ""))
	if clip, ok := timeline.SelectedClip(p); ok {
		return jsonResult(clip), nil
	}
	if p.SelectedClipID == "" {
		return mcp.NewToolResultText("selection cleared"), nil
	}
	return mcp.NewToolResultText("selected " + p.SelectedClipID + " (no such clip on the timeline)"), nil
}

func (s *Server) seek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := req.RequireFloat("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t < 0 {
		return mcp.NewToolResultError("time must not be negative"), nil
	}
	p := s.editor.Seek(ctx, t)
	return mcp.NewToolResultText("playhead at " + timeline.FormatTimecode(p.CurrentTime)), nil
}

func (s *Server) resolveFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at := optFloat(req, "time")
	if at != nil && (*at < 0 || math.IsNaN(*at) || math.IsInf(*at, 0)) {
		return mcp.NewToolResultError("time must be a finite non-negative number"), nil
	}
	return jsonResult(s.editor.Preview(ctx, at)), nil
}

func (s *Server) addGeneratedText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.editor.AddGeneratedText(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.maybePlace(ctx, req, item), nil
}

// maybePlace places item at the playhead when the request asks for it.
func (s *Server) maybePlace(ctx context.Context, req mcp.CallToolRequest, item editor.AssetItem) *mcp.CallToolResult {
	out := map[string]any{"asset": item}
	if req.GetBool("place", false) {
		_, clip, err := s.editor.PlaceAsset(ctx, item.ID, "", nil)
		if err != nil {
			out["placeError"] = err.Error()
		} else {
			out["clip"] = clip
		}
	}
	return jsonResult(out)
}

func (s *Server) exportEDL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.editor.ExportEDL(ctx, req.GetString("title", ""), req.GetFloat("fps", 0))), nil
}

func (s *Server) getEditingContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EditingContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     EditingContract,
		},
	}, nil
}
