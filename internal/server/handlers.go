package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maorcc/gimp-mcp/internal/bridge"
)

// JSON-RPC error codes used by this server. Connection failures get
// their own code so MCP clients can tell "editor not running" apart
// from "request failed inside the editor".
const (
	codeInvalidParams     = -32602
	codeToolFailed        = -32000
	codeBridgeUnreachable = -32001
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "call_api", "get_image_bitmap").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the
// specified tool. Structured results are wrapped in MCP text content;
// get_image_bitmap returns image content directly.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		var connErr *bridge.ConnError
		if errors.As(err, &connErr) {
			return s.errorResponse(req.ID, codeBridgeUnreachable,
				"GIMP bridge unreachable; is the MCP plugin running?", connErr.Error())
		}
		var reqErr *bridge.RequestError
		if errors.As(err, &reqErr) {
			data := reqErr.Message
			if reqErr.Traceback != "" {
				data += "\n" + reqErr.Traceback
			}
			return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", data)
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "call_api":
		return s.handleCallAPI(args)
	case "get_image_bitmap":
		return s.handleGetImageBitmap(args)
	case "get_image_metadata":
		return s.handleGetImageMetadata()
	case "get_gimp_info":
		return s.handleGetGimpInfo()
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

// textContent wraps a value as MCP text content with JSON inside.
func textContent(v interface{}) (map[string]interface{}, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(data)},
		},
	}, nil
}

type callAPIArgs struct {
	APIPath string         `json:"api_path"`
	Args    []interface{}  `json:"args"`
	Kwargs  map[string]any `json:"kwargs"`
}

func (s *Server) handleCallAPI(args json.RawMessage) (interface{}, error) {
	var a callAPIArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.APIPath == "" {
		return nil, fmt.Errorf("api_path is required")
	}
	results, err := s.bridge.CallAPI(a.APIPath, a.Args, a.Kwargs)
	if err != nil {
		return nil, err
	}
	return textContent(results)
}

type getImageBitmapArgs struct {
	MaxWidth       *int `json:"max_width,omitempty"`
	MaxHeight      *int `json:"max_height,omitempty"`
	OriginX        *int `json:"origin_x,omitempty"`
	OriginY        *int `json:"origin_y,omitempty"`
	Width          *int `json:"width,omitempty"`
	Height         *int `json:"height,omitempty"`
	ScaledToWidth  *int `json:"scaled_to_width,omitempty"`
	ScaledToHeight *int `json:"scaled_to_height,omitempty"`
}

func (s *Server) handleGetImageBitmap(args json.RawMessage) (interface{}, error) {
	var a getImageBitmapArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	result, err := s.bridge.GetImageBitmap(bridge.BitmapOptions{
		MaxWidth:       a.MaxWidth,
		MaxHeight:      a.MaxHeight,
		OriginX:        a.OriginX,
		OriginY:        a.OriginY,
		Width:          a.Width,
		Height:         a.Height,
		ScaledToWidth:  a.ScaledToWidth,
		ScaledToHeight: a.ScaledToHeight,
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type":     "image",
				"data":     result.ImageData,
				"mimeType": "image/png",
			},
		},
	}, nil
}

func (s *Server) handleGetImageMetadata() (interface{}, error) {
	md, err := s.bridge.GetImageMetadata()
	if err != nil {
		return nil, err
	}
	return textContent(md)
}

func (s *Server) handleGetGimpInfo() (interface{}, error) {
	info, err := s.bridge.GetHostInfo()
	if err != nil {
		return nil, err
	}
	return textContent(info)
}
