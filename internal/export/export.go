package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"log"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// LargeScalingThreshold is the pixel-count growth ratio above which a
// scale operation gets a warning in the log.
const LargeScalingThreshold = 4.0

// Region is a validated sub-rectangle request in source pixel
// coordinates. Coordinates may fall outside the canvas; the transform
// clamps them to the valid overlap.
type Region struct {
	OriginX int
	OriginY int
	Width   int
	Height  int
}

// Size is a target bound for center-inside scaling.
type Size struct {
	Width  int
	Height int
}

// Options selects the transforms to apply before encoding.
// ScaleTo applies after a region crop; MaxBound applies to the full
// image when no region was requested.
type Options struct {
	Region   *Region
	ScaleTo  *Size
	MaxBound *Size
}

// RegionCoords echoes the requested region back in the result.
type RegionCoords struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Processing reports which transforms actually ran.
type Processing struct {
	RegionExtracted bool          `json:"region_extracted"`
	Scaled          bool          `json:"scaled"`
	RegionCoords    *RegionCoords `json:"region_coords,omitempty"`
}

// Result is the transport-safe form of an exported canvas.
type Result struct {
	ImageData         string     `json:"image_data"`
	Format            string     `json:"format"`
	Width             int        `json:"width"`
	Height            int        `json:"height"`
	OriginalWidth     int        `json:"original_width"`
	OriginalHeight    int        `json:"original_height"`
	Encoding          string     `json:"encoding"`
	ProcessingApplied Processing `json:"processing_applied"`
}

// Transform crops, scales, and encodes a raster buffer according to
// opts. The region is clamped to the buffer bounds; scaling preserves
// aspect ratio with center-inside semantics (the output equals the
// proportional fit size, never padded, never stretched per axis).
func Transform(img image.Image, opts Options) (*Result, error) {
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW == 0 || origH == 0 {
		return nil, fmt.Errorf("canvas has no pixels")
	}

	proc := Processing{}
	work := img

	if opts.Region != nil {
		r := opts.Region
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("region size must be positive, got %dx%d", r.Width, r.Height)
		}
		rect := image.Rect(r.OriginX, r.OriginY, r.OriginX+r.Width, r.OriginY+r.Height).
			Intersect(image.Rect(0, 0, origW, origH))
		if rect.Empty() {
			return nil, fmt.Errorf("region (%d,%d) %dx%d lies entirely outside the %dx%d canvas",
				r.OriginX, r.OriginY, r.Width, r.Height, origW, origH)
		}
		work = imaging.Crop(img, rect)
		proc.RegionExtracted = true
		proc.RegionCoords = &RegionCoords{X: r.OriginX, Y: r.OriginY, W: r.Width, H: r.Height}
	}

	// Region scaling wins over the whole-image bound; the bound is only
	// meaningful when no region was requested.
	var target *Size
	switch {
	case opts.Region != nil && opts.ScaleTo != nil:
		target = opts.ScaleTo
	case opts.Region == nil && opts.MaxBound != nil:
		target = opts.MaxBound
	}

	if target != nil {
		if target.Width <= 0 || target.Height <= 0 {
			return nil, fmt.Errorf("scale target must be positive, got %dx%d", target.Width, target.Height)
		}
		curW, curH := work.Bounds().Dx(), work.Bounds().Dy()
		tw, th := fitWithin(curW, curH, target.Width, target.Height)
		if tw != curW || th != curH {
			ratio := float64(tw*th) / float64(curW*curH)
			if ratio > LargeScalingThreshold {
				log.Printf("large scaling operation: %dx%d -> %dx%d (ratio %.2f)", curW, curH, tw, th, ratio)
			}
			work = imaging.Resize(work, tw, th, imaging.Lanczos)
			proc.Scaled = true
		}
	}

	data, err := encodePNG(work)
	if err != nil {
		return nil, err
	}

	return &Result{
		ImageData:         base64.StdEncoding.EncodeToString(data),
		Format:            "png",
		Width:             work.Bounds().Dx(),
		Height:            work.Bounds().Dy(),
		OriginalWidth:     origW,
		OriginalHeight:    origH,
		Encoding:          "base64",
		ProcessingApplied: proc,
	}, nil
}

// Encoded wraps PNG bytes a host-native exporter already produced.
// Used for untransformed exports, where no crop or scale forces the
// pipeline through a raster buffer.
func Encoded(data []byte, width, height int) *Result {
	return &Result{
		ImageData:      base64.StdEncoding.EncodeToString(data),
		Format:         "png",
		Width:          width,
		Height:         height,
		OriginalWidth:  width,
		OriginalHeight: height,
		Encoding:       "base64",
	}
}

// fitWithin computes the center-inside target: the dimension that is
// large relative to the target aspect hits its bound exactly, the
// other shrinks proportionally. Never returns a zero dimension.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	aspect := float64(w) / float64(h)
	maxAspect := float64(maxW) / float64(maxH)

	var tw, th int
	if aspect > maxAspect {
		tw = maxW
		th = int(float64(maxW) / aspect)
	} else {
		th = maxH
		tw = int(float64(maxH) * aspect)
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// encodePNG tries the primary encoder and falls back to a second
// implementation before giving up. Export robustness is a required
// behavior: a response must not fail just because one encoder did.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	primaryErr := imgio.PNGEncoder()(&buf, img)
	if primaryErr == nil {
		return buf.Bytes(), nil
	}

	buf.Reset()
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("all PNG encoders failed: %v; fallback: %w", primaryErr, err)
	}
	return buf.Bytes(), nil
}
