package plugin

import (
	"fmt"
	"log"
	"sort"

	"github.com/maorcc/gimp-mcp/internal/executor"
	"github.com/maorcc/gimp-mcp/internal/export"
	"github.com/maorcc/gimp-mcp/internal/host"
	"github.com/maorcc/gimp-mcp/internal/protocol"
)

// Handler executes one named procedure of a structured call.
type Handler func(call *protocol.Call) (interface{}, error)

// Registry maps procedure names to capabilities. Resolution happens at
// call time; an absent name yields an "unknown procedure" error rather
// than a generic lookup failure.
type Registry struct {
	procs map[string]Handler
}

// Register adds or replaces a procedure.
func (r *Registry) Register(name string, h Handler) {
	r.procs[name] = h
}

// Resolve finds a procedure by name.
func (r *Registry) Resolve(name string) (Handler, error) {
	h, ok := r.procs[name]
	if !ok {
		return nil, fmt.Errorf("unknown procedure: %s", name)
	}
	return h, nil
}

// Names lists registered procedures in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newRegistry(s *Server) *Registry {
	r := &Registry{procs: make(map[string]Handler)}
	r.Register(protocol.ProcExec, s.procExec)
	r.Register(protocol.CmdGetImageBitmap, s.procGetImageBitmap)
	r.Register(protocol.CmdGetImageMetadata, s.procGetImageMetadata)
	r.Register(protocol.CmdGetGimpInfo, s.procGetGimpInfo)
	r.Register(protocol.CmdGetContextState, s.procGetContextState)
	return r
}

// dispatch routes a parsed request to its handler and folds the result
// into a response envelope.
func (s *Server) dispatch(req *protocol.Request) *protocol.Response {
	switch {
	case req.Command != "":
		return s.dispatchCommand(req.Command)

	case req.Cmds != nil:
		return s.runFragments(executor.ModeExec, req.Cmds)

	case req.Type != "":
		// The bitmap operation carries typed params; everything else
		// goes through the registry like a structured call.
		if req.Type == protocol.CmdGetImageBitmap {
			return s.bitmapResponse(req.Bitmap)
		}
		h, err := s.registry.Resolve(req.Type)
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		results, err := h(&protocol.Call{Name: req.Type})
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		return protocol.Success(results)

	case req.Call != nil:
		h, err := s.registry.Resolve(req.Call.Name)
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		results, err := h(req.Call)
		if err != nil {
			if ferr, ok := err.(*executor.FragmentError); ok {
				return protocol.Error(ferr.Error(), ferr.Traceback(), results)
			}
			return protocol.Error(err.Error(), "", nil)
		}
		return protocol.Success(results)

	default:
		return protocol.Error("empty request", "", nil)
	}
}

// dispatchCommand handles the bare-string control commands.
func (s *Server) dispatchCommand(cmd string) *protocol.Response {
	switch cmd {
	case protocol.CmdDisableAutoDisconnect:
		s.session.DisableAutoDisconnect()
		return protocol.Success("OK")
	case protocol.CmdGetImageBitmap:
		return s.bitmapResponse(nil)
	case protocol.CmdGetImageMetadata:
		md, err := s.hst.Metadata()
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		return protocol.Success(md)
	case protocol.CmdGetGimpInfo:
		info, err := s.environmentInfo()
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		return protocol.Success(info)
	case protocol.CmdGetContextState:
		cs, err := s.hst.ContextState()
		if err != nil {
			return protocol.Error(err.Error(), "", nil)
		}
		return protocol.Success(cs)
	default:
		return protocol.Error(fmt.Sprintf("unknown control command: %s", cmd), "", nil)
	}
}

// runFragments executes fragments and builds the envelope, preserving
// partial results when a fragment fails mid-run.
func (s *Server) runFragments(mode executor.Mode, fragments []string) *protocol.Response {
	results, err := s.session.Run(mode, fragments)
	if err != nil {
		ferr := err.(*executor.FragmentError)
		return protocol.Error(ferr.Error(), ferr.Traceback(), results)
	}
	return protocol.Success(results)
}

// procExec is the structured-call entry to the command executor. The
// first positional argument names the evaluation mode, the second
// carries the fragments:
//
//	{"name": "exec", "args": ["console-exec", ["x := 5"]]}
//	{"name": "exec", "args": ["console-eval", ["x * 2"]]}
func (s *Server) procExec(call *protocol.Call) (interface{}, error) {
	if len(call.Args) < 2 {
		return nil, fmt.Errorf("exec requires a mode name and a fragment list")
	}

	modeName, ok := call.Args[0].(string)
	if !ok {
		return nil, fmt.Errorf("exec mode name must be a string")
	}
	mode := executor.ModeExec
	if modeName == protocol.ProcConsoleEval {
		mode = executor.ModeEval
	}

	rawFrags, ok := call.Args[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("exec fragments must be a list of strings")
	}
	fragments := make([]string, len(rawFrags))
	for i, f := range rawFrags {
		src, ok := f.(string)
		if !ok {
			return nil, fmt.Errorf("exec fragment %d is not a string", i)
		}
		fragments[i] = src
	}

	results, err := s.session.Run(mode, fragments)
	if err != nil {
		// Return the partial results; dispatch folds them into the
		// error envelope.
		return results, err
	}
	return results, nil
}

func (s *Server) procGetImageBitmap(call *protocol.Call) (interface{}, error) {
	resp := s.bitmapResponse(nil)
	if resp.Status == protocol.StatusError {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Results, nil
}

func (s *Server) procGetImageMetadata(*protocol.Call) (interface{}, error) {
	return s.hst.Metadata()
}

func (s *Server) procGetGimpInfo(*protocol.Call) (interface{}, error) {
	return s.environmentInfo()
}

func (s *Server) procGetContextState(*protocol.Call) (interface{}, error) {
	return s.hst.ContextState()
}

// environmentInfo augments the host's report with the listener's own
// procedure-availability probe.
func (s *Server) environmentInfo() (*host.EnvironmentInfo, error) {
	info, err := s.hst.Info()
	if err != nil {
		return nil, err
	}
	for _, name := range s.registry.Names() {
		info.Procedures = append(info.Procedures, host.ProcedureProbe{Name: name, Available: true})
	}
	return info, nil
}

// bitmapResponse validates bitmap params, reads the current canvas,
// and runs the export transform.
func (s *Server) bitmapResponse(params *protocol.BitmapParams) *protocol.Response {
	opts, err := exportOptions(params)
	if err != nil {
		return protocol.Error(err.Error(), "", nil)
	}

	images := s.hst.Images()
	if len(images) == 0 {
		return protocol.Error(host.ErrNoImage.Error(), "", nil)
	}
	cv := images[0]

	// An untransformed export prefers the host's own encoder; the
	// raster pipeline below is the fallback when that fails.
	if opts.Region == nil && opts.MaxBound == nil {
		data, err := cv.ExportPNG()
		if err == nil {
			return protocol.Success(export.Encoded(data, cv.Width(), cv.Height()))
		}
		log.Printf("native export failed, encoding raster instead: %v", err)
	}

	raster, err := cv.Raster()
	if err != nil {
		return protocol.Error(fmt.Sprintf("reading canvas: %v", err), "", nil)
	}

	result, err := export.Transform(raster, opts)
	if err != nil {
		return protocol.Error(err.Error(), "", nil)
	}
	return protocol.Success(result)
}

// exportOptions converts wire params into transform options, rejecting
// partial region specs before any host state is touched.
func exportOptions(params *protocol.BitmapParams) (export.Options, error) {
	var opts export.Options
	if params == nil {
		return opts, nil
	}

	if r := params.Region; r != nil && r.FieldCount() > 0 {
		if !r.Complete() {
			return opts, fmt.Errorf("for region selection, all parameters are required: origin_x, origin_y, width, height")
		}
		opts.Region = &export.Region{
			OriginX: *r.OriginX,
			OriginY: *r.OriginY,
			Width:   *r.Width,
			Height:  *r.Height,
		}
		switch {
		case r.ScaledToWidth != nil && r.ScaledToHeight != nil:
			opts.ScaleTo = &export.Size{Width: *r.ScaledToWidth, Height: *r.ScaledToHeight}
		case r.ScaledToWidth != nil || r.ScaledToHeight != nil:
			return opts, fmt.Errorf("scaled_to_width and scaled_to_height must be provided together")
		}
	}

	// The whole-image bound only applies when no region was requested,
	// and only when both sides are present.
	if opts.Region == nil && params.MaxWidth != nil && params.MaxHeight != nil {
		opts.MaxBound = &export.Size{Width: *params.MaxWidth, Height: *params.MaxHeight}
	}
	return opts, nil
}
