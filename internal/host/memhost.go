package host

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// MemHost is the in-memory reference implementation of Host. It backs
// the standalone listener and the test suites; a real deployment
// substitutes the editor's own bindings behind the same interface.
type MemHost struct {
	mu      sync.Mutex
	images  []*MemCanvas
	fg      colorful.Color
	bg      colorful.Color
	brush   string
	brushSz float64
	opacity float64
	paint   string
	version string
	baseDir string
}

// NewMemHost creates a host with no open canvases, a black foreground,
// a white background, and default tool settings.
func NewMemHost() *MemHost {
	dir, _ := os.UserHomeDir()
	return &MemHost{
		fg:      colorful.Color{R: 0, G: 0, B: 0},
		bg:      colorful.Color{R: 1, G: 1, B: 1},
		brush:   "2. Hardness 050",
		brushSz: 20,
		opacity: 100,
		paint:   "normal",
		version: "3.0",
		baseDir: filepath.Join(dir, ".gimp-mcp"),
	}
}

// MemCanvas is one in-memory document.
type MemCanvas struct {
	name     string
	baseType string
	img      draw.Image
	layers   []LayerInfo
	channels []ChannelInfo
	paths    []PathInfo
	filePath string
	dirty    bool
	resX     float64
	resY     float64
}

func (c *MemCanvas) Width() int  { return c.img.Bounds().Dx() }
func (c *MemCanvas) Height() int { return c.img.Bounds().Dy() }

func (c *MemCanvas) Raster() (image.Image, error) {
	return c.img, nil
}

// ExportPNG renders the canvas through the host-native encoder.
func (c *MemCanvas) ExportPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, c.img); err != nil {
		return nil, fmt.Errorf("native PNG export: %w", err)
	}
	return buf.Bytes(), nil
}

// NewCanvas opens a new document filled with the background color and
// makes it the current image.
func (h *MemHost) NewCanvas(name string, width, height int) *MemCanvas {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	r, g, b := h.bg.RGB255()
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{r, g, b, 255}), image.Point{}, draw.Src)

	cv := &MemCanvas{
		name:     name,
		baseType: "RGB",
		img:      img,
		layers: []LayerInfo{{
			Name:      "Background",
			Visible:   true,
			Opacity:   100,
			Width:     width,
			Height:    height,
			HasAlpha:  true,
			LayerType: "RGBA",
			BlendMode: "normal",
		}},
		dirty: true,
		resX:  72,
		resY:  72,
	}

	h.mu.Lock()
	h.images = append([]*MemCanvas{cv}, h.images...)
	h.mu.Unlock()
	return cv
}

// OpenCanvas registers an existing raster as an open, saved document.
func (h *MemHost) OpenCanvas(name, path string, img image.Image) *MemCanvas {
	dst := image.NewNRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	cv := &MemCanvas{
		name:     name,
		baseType: "RGB",
		img:      dst,
		layers: []LayerInfo{{
			Name:      name,
			Visible:   true,
			Opacity:   100,
			Width:     dst.Bounds().Dx(),
			Height:    dst.Bounds().Dy(),
			HasAlpha:  true,
			LayerType: "RGBA",
			BlendMode: "normal",
		}},
		filePath: path,
		resX:     72,
		resY:     72,
	}

	h.mu.Lock()
	h.images = append([]*MemCanvas{cv}, h.images...)
	h.mu.Unlock()
	return cv
}

func (h *MemHost) Images() []Canvas {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Canvas, len(h.images))
	for i, cv := range h.images {
		out[i] = cv
	}
	return out
}

func (h *MemHost) Metadata() (*ImageMetadata, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.images) == 0 {
		return nil, ErrNoImage
	}
	cv := h.images[0]

	md := &ImageMetadata{
		Basic: BasicProperties{
			Width:       cv.Width(),
			Height:      cv.Height(),
			BaseType:    cv.baseType,
			Precision:   "u8-gamma",
			ResolutionX: cv.resX,
			ResolutionY: cv.resY,
			IsDirty:     cv.dirty,
		},
		Structure: StructureInfo{
			NumLayers:   len(cv.layers),
			NumChannels: len(cv.channels),
			NumPaths:    len(cv.paths),
			Layers:      append([]LayerInfo(nil), cv.layers...),
			Channels:    append([]ChannelInfo(nil), cv.channels...),
			Paths:       append([]PathInfo(nil), cv.paths...),
		},
	}
	if md.Structure.Layers == nil {
		md.Structure.Layers = []LayerInfo{}
	}
	if md.Structure.Channels == nil {
		md.Structure.Channels = []ChannelInfo{}
	}
	if md.Structure.Paths == nil {
		md.Structure.Paths = []PathInfo{}
	}
	if cv.filePath != "" {
		md.File = &FileInfo{Path: cv.filePath, Basename: filepath.Base(cv.filePath)}
	}
	return md, nil
}

func (h *MemHost) Info() (*EnvironmentInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session := SessionInfo{
		NumOpenImages:  len(h.images),
		HasOpenImages:  len(h.images) > 0,
		OpenImageFiles: []OpenImageSummary{},
	}
	for i, cv := range h.images {
		path := cv.filePath
		if path == "" {
			path = "Untitled"
		}
		session.OpenImageFiles = append(session.OpenImageFiles, OpenImageSummary{
			Index:    i,
			Width:    cv.Width(),
			Height:   cv.Height(),
			BaseType: cv.baseType,
			IsDirty:  cv.dirty,
			Path:     path,
		})
	}

	return &EnvironmentInfo{
		Version: VersionInfo{Version: h.version, APIVersion: "3.0+"},
		Directories: map[string]string{
			"user_directory":   h.baseDir,
			"data_directory":   filepath.Join(h.baseDir, "data"),
			"plugin_directory": filepath.Join(h.baseDir, "plug-ins"),
		},
		Session: session,
		Context: h.contextStateLocked(),
		System: SystemInfo{
			Platform:  runtime.GOOS,
			Machine:   runtime.GOARCH,
			GoVersion: runtime.Version(),
			EnvVars: map[string]string{
				"HOME": os.Getenv("HOME"),
				"USER": os.Getenv("USER"),
			},
		},
	}, nil
}

func (h *MemHost) ContextState() (*ContextState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contextStateLocked(), nil
}

func (h *MemHost) contextStateLocked() *ContextState {
	return &ContextState{
		ForegroundColor: contextColor(h.fg),
		BackgroundColor: contextColor(h.bg),
		Brush:           h.brush,
		BrushSize:       h.brushSz,
		Opacity:         h.opacity,
		PaintMode:       h.paint,
		Antialias:       true,
	}
}

// SetForeground updates the context foreground color from a hex
// string such as "#ff0000".
func (h *MemHost) SetForeground(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("parsing foreground color: %w", err)
	}
	h.mu.Lock()
	h.fg = c
	h.mu.Unlock()
	return nil
}

// SetBackground updates the context background color.
func (h *MemHost) SetBackground(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("parsing background color: %w", err)
	}
	h.mu.Lock()
	h.bg = c
	h.mu.Unlock()
	return nil
}

func contextColor(c colorful.Color) ContextColor {
	return ContextColor{
		Hex:  c.Hex(),
		RGBA: []float64{c.R, c.G, c.B, 1},
	}
}
