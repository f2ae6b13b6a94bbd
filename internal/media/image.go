// Package media prepares photos attached to a chat turn (receipts, bills)
// for the mentor: decode, fix orientation, downsize, re-encode as JPEG.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// MediaTypeJPEG is the type of every prepared image.
const MediaTypeJPEG = "image/jpeg"

// MaxInputBytes bounds a single decoded attachment.
const MaxInputBytes = 10 << 20

// MaxPixels bounds width*height before the image is decoded.
const MaxPixels = 40_000_000

var (
	ErrEmptyImage   = errors.New("empty image")
	ErrInvalidImage = errors.New("invalid image")
	ErrImageTooBig  = errors.New("image too large")
)

// Image is a base64 payload ready to be sent to the mentor.
type Image struct {
	MediaType string
	Data      string
	Width     int
	Height    int
}

type Preparer struct {
	maxDimension int
	quality      int
}

func NewPreparer(maxDimension int) *Preparer {
	if maxDimension <= 0 {
		maxDimension = 1568
	}
	return &Preparer{maxDimension: maxDimension, quality: 85}
}

// PrepareBase64 accepts plain base64 or a data URL ("data:image/png;base64,...").
func (p *Preparer) PrepareBase64(encoded string) (Image, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	if encoded == "" {
		return Image{}, ErrEmptyImage
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxInputBytes {
		return Image{}, fmt.Errorf("%w: more than %d bytes", ErrImageTooBig, MaxInputBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Image{}, fmt.Errorf("%w: bad base64: %v", ErrInvalidImage, err)
	}
	return p.Prepare(raw)
}

// Prepare decodes raw image bytes, applies EXIF orientation and fits the
// image inside maxDimension on both sides.
func (p *Preparer) Prepare(raw []byte) (Image, error) {
	if len(raw) == 0 {
		return Image{}, ErrEmptyImage
	}
	if len(raw) > MaxInputBytes {
		return Image{}, fmt.Errorf("%w: more than %d bytes", ErrImageTooBig, MaxInputBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("%w: empty dimensions", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Image{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooBig, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() > p.maxDimension || b.Dy() > p.maxDimension {
		img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}

	out := img.Bounds()
	return Image{
		MediaType: MediaTypeJPEG,
		Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:     out.Dx(),
		Height:    out.Dy(),
	}, nil
}
