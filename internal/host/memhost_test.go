package host

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestMemHost_MetadataNoImage(t *testing.T) {
	h := NewMemHost()

	_, err := h.Metadata()
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestMemHost_MetadataNewCanvas(t *testing.T) {
	h := NewMemHost()
	h.NewCanvas("scratch", 320, 240)

	md, err := h.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md.Basic.Width != 320 || md.Basic.Height != 240 {
		t.Errorf("size: got %dx%d", md.Basic.Width, md.Basic.Height)
	}
	if md.Basic.BaseType != "RGB" {
		t.Errorf("base type: got %q", md.Basic.BaseType)
	}
	if !md.Basic.IsDirty {
		t.Error("a fresh unsaved canvas should be dirty")
	}
	if md.Structure.NumLayers != 1 || len(md.Structure.Layers) != 1 {
		t.Errorf("layers: got %d", md.Structure.NumLayers)
	}
	if md.Structure.Layers[0].Name != "Background" {
		t.Errorf("layer name: got %q", md.Structure.Layers[0].Name)
	}
	// Empty collections marshal as [], not null.
	if md.Structure.Channels == nil || md.Structure.Paths == nil {
		t.Error("channels and paths must be non-nil")
	}
	if md.File != nil {
		t.Errorf("unsaved canvas should have no file info, got %+v", md.File)
	}
}

func TestMemHost_MetadataOpenedFile(t *testing.T) {
	h := NewMemHost()
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	h.OpenCanvas("photo", "/tmp/photo.png", src)

	md, err := h.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md.Basic.IsDirty {
		t.Error("a just-opened file should not be dirty")
	}
	if md.File == nil || md.File.Basename != "photo.png" {
		t.Errorf("file info: got %+v", md.File)
	}
}

func TestMemHost_NewestCanvasIsCurrent(t *testing.T) {
	h := NewMemHost()
	h.NewCanvas("old", 10, 10)
	h.NewCanvas("new", 20, 20)

	md, err := h.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md.Basic.Width != 20 {
		t.Errorf("current image should be the newest: got width %d", md.Basic.Width)
	}
	if len(h.Images()) != 2 {
		t.Errorf("open images: got %d", len(h.Images()))
	}
}

func TestMemHost_Info(t *testing.T) {
	h := NewMemHost()
	h.NewCanvas("scratch", 64, 64)

	info, err := h.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Version.Version != "3.0" {
		t.Errorf("version: got %q", info.Version.Version)
	}
	if !info.Session.HasOpenImages || info.Session.NumOpenImages != 1 {
		t.Errorf("session: got %+v", info.Session)
	}
	if len(info.Session.OpenImageFiles) != 1 || info.Session.OpenImageFiles[0].Path != "Untitled" {
		t.Errorf("open files: got %+v", info.Session.OpenImageFiles)
	}
	if info.Directories["user_directory"] == "" {
		t.Error("user directory should be set")
	}
	if info.System.Platform == "" || info.System.GoVersion == "" {
		t.Errorf("system facts missing: %+v", info.System)
	}
}

func TestMemHost_ContextState(t *testing.T) {
	h := NewMemHost()

	cs, err := h.ContextState()
	if err != nil {
		t.Fatalf("ContextState failed: %v", err)
	}
	if cs.ForegroundColor.Hex != "#000000" {
		t.Errorf("foreground: got %q", cs.ForegroundColor.Hex)
	}
	if cs.BackgroundColor.Hex != "#ffffff" {
		t.Errorf("background: got %q", cs.BackgroundColor.Hex)
	}
	if len(cs.ForegroundColor.RGBA) != 4 || cs.ForegroundColor.RGBA[3] != 1 {
		t.Errorf("rgba: got %v", cs.ForegroundColor.RGBA)
	}
	if cs.Brush == "" || cs.Opacity != 100 {
		t.Errorf("tool state: got %+v", cs)
	}

	if err := h.SetForeground("#ff0000"); err != nil {
		t.Fatalf("SetForeground failed: %v", err)
	}
	cs, _ = h.ContextState()
	if cs.ForegroundColor.Hex != "#ff0000" {
		t.Errorf("foreground after set: got %q", cs.ForegroundColor.Hex)
	}
	if cs.ForegroundColor.RGBA[0] != 1 || cs.ForegroundColor.RGBA[1] != 0 {
		t.Errorf("rgba after set: got %v", cs.ForegroundColor.RGBA)
	}

	if err := h.SetForeground("not-a-color"); err == nil {
		t.Error("bad hex should be rejected")
	}
}

func TestMemCanvas_ExportPNG(t *testing.T) {
	h := NewMemHost()
	cv := h.NewCanvas("scratch", 8, 8)

	data, err := cv.ExportPNG()
	if err != nil {
		t.Fatalf("ExportPNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	// The canvas is filled with the background color.
	r, g, b, _ := img.At(0, 0).RGBA()
	want := color.NRGBA{255, 255, 255, 255}
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("background pixel: got (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}
