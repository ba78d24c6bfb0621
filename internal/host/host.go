// Package host defines the collaborator surface of the image-editing
// application and provides an in-memory implementation of it for tests
// and standalone runs.
package host

import (
	"errors"
	"image"
)

// ErrNoImage is returned when an operation needs an open canvas and
// the host has none.
var ErrNoImage = errors.New("no images are currently open")

// Canvas is one open document in the host application. The bridge only
// needs its size and a way to obtain pixels; everything else about the
// document is reported through Metadata.
type Canvas interface {
	Width() int
	Height() int

	// Raster returns the flattened pixel buffer of the canvas.
	Raster() (image.Image, error)

	// ExportPNG is the host-native export path. It may fail; callers
	// fall back to encoding Raster themselves.
	ExportPNG() ([]byte, error)
}

// Host is the collaborator surface of the image-editing application.
// The bridge consumes it and never reimplements it: a production
// deployment backs it with the real editor, tests and the standalone
// listener use the in-memory implementation in this package.
type Host interface {
	// Images lists open canvases, most recently active first.
	Images() []Canvas

	// Metadata describes the current (first) image without pixel data.
	// Returns ErrNoImage when nothing is open.
	Metadata() (*ImageMetadata, error)

	// Info reports version, paths, session summary, and platform facts.
	Info() (*EnvironmentInfo, error)

	// ContextState reports the current drawing-context values.
	ContextState() (*ContextState, error)
}

// LayerInfo describes one layer of an image.
type LayerInfo struct {
	Name      string  `json:"name"`
	Visible   bool    `json:"visible"`
	Opacity   float64 `json:"opacity"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	HasAlpha  bool    `json:"has_alpha"`
	IsGroup   bool    `json:"is_group"`
	LayerType string  `json:"layer_type"`
	BlendMode string  `json:"blend_mode"`
}

// ChannelInfo describes one saved channel.
type ChannelInfo struct {
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color"`
}

// PathInfo describes one vector path.
type PathInfo struct {
	Name       string `json:"name"`
	Visible    bool   `json:"visible"`
	NumStrokes int    `json:"num_strokes"`
}

// FileInfo points at the on-disk file backing an image, when saved.
type FileInfo struct {
	Path     string `json:"path,omitempty"`
	Basename string `json:"basename,omitempty"`
}

// BasicProperties are the scalar facts about an image.
type BasicProperties struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	BaseType    string  `json:"base_type"`
	Precision   string  `json:"precision"`
	ResolutionX float64 `json:"resolution_x"`
	ResolutionY float64 `json:"resolution_y"`
	IsDirty     bool    `json:"is_dirty"`
}

// StructureInfo holds the per-layer/channel/path breakdown.
type StructureInfo struct {
	NumLayers   int           `json:"num_layers"`
	NumChannels int           `json:"num_channels"`
	NumPaths    int           `json:"num_paths"`
	Layers      []LayerInfo   `json:"layers"`
	Channels    []ChannelInfo `json:"channels"`
	Paths       []PathInfo    `json:"paths"`
}

// ImageMetadata is the full no-pixels description of an image.
type ImageMetadata struct {
	Basic     BasicProperties `json:"basic"`
	Structure StructureInfo   `json:"structure"`
	File      *FileInfo       `json:"file,omitempty"`
}

// OpenImageSummary is one entry of the session's open-image list.
type OpenImageSummary struct {
	Index    int    `json:"index"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BaseType string `json:"base_type"`
	IsDirty  bool   `json:"is_dirty"`
	Path     string `json:"path"`
}

// SessionInfo summarizes what the host currently has open.
type SessionInfo struct {
	NumOpenImages  int                `json:"num_open_images"`
	HasOpenImages  bool               `json:"has_open_images"`
	OpenImageFiles []OpenImageSummary `json:"open_image_files"`
}

// ProcedureProbe records whether a named procedure resolved.
type ProcedureProbe struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ContextColor is a drawing-context color in two representations.
type ContextColor struct {
	Hex  string    `json:"hex"`
	RGBA []float64 `json:"rgba"`
}

// ContextState holds the host's current drawing-context values.
type ContextState struct {
	ForegroundColor ContextColor `json:"foreground_color"`
	BackgroundColor ContextColor `json:"background_color"`
	Brush           string       `json:"brush"`
	BrushSize       float64      `json:"brush_size"`
	Opacity         float64      `json:"opacity"`
	PaintMode       string       `json:"paint_mode"`
	Antialias       bool         `json:"antialias"`
	Feather         bool         `json:"feather"`
	FeatherRadius   float64      `json:"feather_radius"`
}

// EnvironmentInfo is the full host/runtime description returned by the
// info operation. Procedures is filled by the protocol handler from
// its dispatch registry.
type EnvironmentInfo struct {
	Version     VersionInfo       `json:"version"`
	Directories map[string]string `json:"directories"`
	Session     SessionInfo       `json:"session"`
	Procedures  []ProcedureProbe  `json:"procedures,omitempty"`
	Context     *ContextState     `json:"context,omitempty"`
	System      SystemInfo        `json:"system"`
}

// VersionInfo identifies the host build.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
}

// SystemInfo reports platform and runtime facts.
type SystemInfo struct {
	Platform  string            `json:"platform"`
	Machine   string            `json:"machine"`
	GoVersion string            `json:"go_version"`
	EnvVars   map[string]string `json:"environment_vars"`
}
