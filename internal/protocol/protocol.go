// Package protocol defines the wire format of the bridge socket: the
// request union, the response envelope, and the framing that tolerates
// partial reads.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Control commands accepted as a bare string message (with or without
// JSON quoting). The plugin also accepts them in typed-request form.
const (
	CmdGetImageBitmap        = "get_image_bitmap"
	CmdGetImageMetadata      = "get_image_metadata"
	CmdGetGimpInfo           = "get_gimp_info"
	CmdGetContextState       = "get_context_state"
	CmdDisableAutoDisconnect = "disable_auto_disconnect"
)

// Procedure names understood by the structured-call dispatcher.
// ProcConsoleExec runs fragments as statements and returns captured
// output; ProcConsoleEval evaluates each fragment as an expression and
// returns its value's string form.
const (
	ProcExec        = "exec"
	ProcConsoleExec = "console-exec"
	ProcConsoleEval = "console-eval"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Call is the body of a params-shaped request: a named procedure with
// positional and keyword arguments.
type Call struct {
	Name   string         `json:"name"`
	Args   []interface{}  `json:"args"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// RegionSpec selects a sub-rectangle of the canvas in source pixel
// coordinates, optionally with a post-scale target. All four rectangle
// fields must be present together. Fields are pointers so partial
// specs can be detected and rejected.
type RegionSpec struct {
	OriginX        *int `json:"origin_x,omitempty"`
	OriginY        *int `json:"origin_y,omitempty"`
	Width          *int `json:"width,omitempty"`
	Height         *int `json:"height,omitempty"`
	ScaledToWidth  *int `json:"scaled_to_width,omitempty"`
	ScaledToHeight *int `json:"scaled_to_height,omitempty"`
}

// Complete reports whether all four rectangle fields are present.
func (r *RegionSpec) Complete() bool {
	return r.OriginX != nil && r.OriginY != nil && r.Width != nil && r.Height != nil
}

// FieldCount returns how many of the four rectangle fields are set.
func (r *RegionSpec) FieldCount() int {
	n := 0
	for _, p := range []*int{r.OriginX, r.OriginY, r.Width, r.Height} {
		if p != nil {
			n++
		}
	}
	return n
}

// BitmapParams carries the parameters of a get_image_bitmap request.
type BitmapParams struct {
	MaxWidth  *int        `json:"max_width,omitempty"`
	MaxHeight *int        `json:"max_height,omitempty"`
	Region    *RegionSpec `json:"region,omitempty"`
}

// Request is the parsed form of one wire message. Exactly one of the
// shapes is populated:
//   - Command: a bare control string ("get_image_bitmap", ...)
//   - Cmds: sequential statement execution
//   - Call: a structured procedure call
//   - Type + Bitmap: a typed request (Bitmap only for get_image_bitmap)
type Request struct {
	Command string
	Type    string
	Cmds    []string
	Call    *Call
	Bitmap  *BitmapParams
}

// rawRequest is the envelope used to sniff the JSON object shape
// before committing to one of the request forms.
type rawRequest struct {
	Type   string          `json:"type"`
	Cmds   json.RawMessage `json:"cmds"`
	Params json.RawMessage `json:"params"`
}

// ParseRequest interprets one framed message. Bare tokens and JSON
// strings become control commands; objects are disambiguated by their
// keys. A malformed shape (for example "cmds" that is not a list of
// strings) is rejected before any host state is touched.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request")
	}

	if data[0] != '{' {
		// Bare control token, possibly JSON-quoted.
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			s = string(data)
		}
		return &Request{Command: s}, nil
	}

	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}

	switch {
	case raw.Type != "":
		req := &Request{Type: raw.Type}
		if raw.Type == CmdGetImageBitmap && len(raw.Params) > 0 {
			var bp BitmapParams
			if err := json.Unmarshal(raw.Params, &bp); err != nil {
				return nil, fmt.Errorf("invalid %s params: %w", raw.Type, err)
			}
			req.Bitmap = &bp
		}
		return req, nil

	case len(raw.Cmds) > 0:
		var cmds []string
		if err := json.Unmarshal(raw.Cmds, &cmds); err != nil {
			return nil, fmt.Errorf(`"cmds" must be a list of strings: %w`, err)
		}
		return &Request{Cmds: cmds}, nil

	case len(raw.Params) > 0:
		var call Call
		if err := json.Unmarshal(raw.Params, &call); err != nil {
			return nil, fmt.Errorf(`invalid "params" call: %w`, err)
		}
		if call.Name == "" {
			return nil, fmt.Errorf(`"params" call is missing a procedure name`)
		}
		return &Request{Call: &call}, nil

	default:
		return nil, fmt.Errorf("request has none of the known shapes (cmds, params, type)")
	}
}

// Response is the single wire response envelope. Results is an ordered
// sequence for executor runs and a structured document for the typed
// operations. Error responses keep any partial results produced before
// the failure.
type Response struct {
	Status    string      `json:"status"`
	Results   interface{} `json:"results,omitempty"`
	Message   string      `json:"message,omitempty"`
	Traceback string      `json:"traceback,omitempty"`
}

// Success wraps results in a success envelope.
func Success(results interface{}) *Response {
	return &Response{Status: StatusSuccess, Results: results}
}

// Error builds an error envelope. Partial results, if any, ride along.
func Error(msg string, traceback string, partial interface{}) *Response {
	return &Response{Status: StatusError, Message: msg, Traceback: traceback, Results: partial}
}
