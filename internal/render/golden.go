package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/natefinch/atomic"
)

// Tolerance is the maximum per-channel difference two pixels may have
// and still count as equal. A difference of 3 fails.
const Tolerance = 2

// Status is the outcome of one golden comparison.
type Status uint8

const (
	// StatusMatch means the rendered image equals the reference.
	StatusMatch Status = iota
	// StatusUpdated means the reference was (re)written in update mode.
	StatusUpdated
	// StatusMismatch means the images differ and update mode is off.
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusMatch:
		return "match"
	case StatusUpdated:
		return "updated"
	default:
		return "mismatch"
	}
}

// Result carries the comparison outcome and, on mismatch, the reason.
type Result struct {
	Status Status
	Reason string
}

// Equal compares two images pixel by pixel with the channel tolerance.
func Equal(a, b image.Image) bool {
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	ao, bo := a.Bounds().Min, b.Bounds().Min
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pa := color.RGBAModel.Convert(a.At(ao.X+x, ao.Y+y)).(color.RGBA)
			pb := color.RGBAModel.Convert(b.At(bo.X+x, bo.Y+y)).(color.RGBA)
			if !within(pa.R, pb.R) || !within(pa.G, pb.G) || !within(pa.B, pb.B) || !within(pa.A, pb.A) {
				return false
			}
		}
	}
	return true
}

func within(a, b uint8) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= Tolerance
}

// Compare diffs a rendered image against the reference at refPath. A
// missing reference takes the same update-or-fail branch as a mismatch.
// Updates are idempotent: a matching reference is never rewritten.
func Compare(img image.Image, refPath string, update bool) (Result, error) {
	ref, err := loadRef(refPath)
	switch {
	case os.IsNotExist(err):
		if !update {
			return Result{StatusMismatch, "missing reference image"}, nil
		}
		if err := WriteRef(img, refPath); err != nil {
			return Result{}, err
		}
		return Result{Status: StatusUpdated}, nil
	case err != nil:
		return Result{}, err
	}

	if Equal(img, ref) {
		return Result{Status: StatusMatch}, nil
	}

	reason := "pixel difference beyond tolerance"
	if img.Bounds().Size() != ref.Bounds().Size() {
		reason = fmt.Sprintf("dimensions differ: rendered %v, reference %v",
			img.Bounds().Size(), ref.Bounds().Size())
	}
	if !update {
		return Result{StatusMismatch, reason}, nil
	}
	if err := WriteRef(img, refPath); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusUpdated}, nil
}

func loadRef(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// WriteRef encodes the image with maximum compression and replaces the
// reference atomically, so a crash mid-update never leaves a truncated
// file behind.
func WriteRef(img image.Image, path string) error {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return atomic.WriteFile(path, &buf)
}
