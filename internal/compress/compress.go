// Package compress re-encodes images as JPEG so that they fit a byte budget.
//
// The search runs in two phases. The quality phase re-encodes the original
// pixels at decreasing JPEG quality. If no quality fits, the resize phase
// shrinks the image with a Lanczos filter at a fixed quality. The first
// encoding that fits wins.
package compress

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP with image.Decode
)

// Phase names the strategy that produced a Result.
type Phase string

const (
	PhaseQuality Phase = "quality"
	PhaseResize  Phase = "resize"
)

const (
	startQuality  = 95
	qualityStep   = 5
	minQuality    = 10 // exclusive
	resizeQuality = 85
	// Scales are expressed in tenths: 9 means 0.9. The sweep stops before 1 (0.1).
	startScaleTenths = 9
	minScaleTenths   = 1 // exclusive
)

// Result is a successful compression.
type Result struct {
	Data         []byte
	Phase        Phase
	Quality      int
	Scale        float64 // 1 in the quality phase
	Width        int
	Height       int
	OriginalSize int
}

// Compress decodes data and returns a JPEG encoding no larger than maxBytes.
// It returns a *DecodeError if data is not a supported image and a
// *BudgetUnmetError if neither phase finds an encoding that fits.
func Compress(data []byte, maxBytes int) (Result, error) {
	img, err := decode(data)
	if err != nil {
		return Result{}, err
	}
	if maxBytes <= 0 {
		return Result{}, &BudgetUnmetError{Budget: maxBytes, Smallest: -1}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	smallest := -1

	for q := startQuality; q > minQuality; q -= qualityStep {
		out, err := encodeJPEG(img, q)
		if err != nil {
			return Result{}, err
		}
		if len(out) <= maxBytes {
			return Result{Data: out, Phase: PhaseQuality, Quality: q, Scale: 1, Width: w, Height: h, OriginalSize: len(data)}, nil
		}
		smallest = minPositive(smallest, len(out))
	}

	for tenths := startScaleTenths; tenths > minScaleTenths; tenths-- {
		sw, sh := scaledSize(w, h, tenths)
		resized := imaging.Resize(img, sw, sh, imaging.Lanczos)
		out, err := encodeJPEG(resized, resizeQuality)
		if err != nil {
			return Result{}, err
		}
		if len(out) <= maxBytes {
			return Result{
				Data:         out,
				Phase:        PhaseResize,
				Quality:      resizeQuality,
				Scale:        float64(tenths) / 10,
				Width:        sw,
				Height:       sh,
				OriginalSize: len(data),
			}, nil
		}
		smallest = minPositive(smallest, len(out))
	}

	return Result{}, &BudgetUnmetError{Budget: maxBytes, Smallest: smallest}
}

// decode sniffs the format, applies EXIF orientation and flattens
// transparency onto white, since JPEG has no alpha channel.
func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Err: errEmptyImage}
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img, nil
	}
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &EncodeError{Quality: quality, Err: err}
	}
	return buf.Bytes(), nil
}

// scaledSize truncates w*tenths/10 and h*tenths/10, clamping each to 1 so
// tiny images never produce a zero-sized target.
func scaledSize(w, h, tenths int) (int, int) {
	sw := w * tenths / 10
	sh := h * tenths / 10
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

func minPositive(cur, n int) int {
	if cur < 0 || n < cur {
		return n
	}
	return cur
}
