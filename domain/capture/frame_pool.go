package capture

import (
	"image"
	"sync"
)

// Reusable frame buffers for short-lived per-tick images (overlay renders,
// preview copies). Frames stored as the service's latest snapshot are never
// pooled because readers may hold them indefinitely.
//
// Usage: AcquireFrame(rect) returns a *image.RGBA whose Pix length is exactly
// rect area * 4. When done, call RecycleFrame(frame). Not recycling is safe;
// it only degrades to plain allocation.

var framePool sync.Pool // stores *image.RGBA

// AcquireFrame returns a reusable RGBA image sized to rect with Stride width*4.
// Pixel contents are unspecified.
func AcquireFrame(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// CopyFrame copies src into a pooled frame with the same bounds.
func CopyFrame(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := AcquireFrame(src.Rect)
	w := src.Rect.Dx() * 4
	for y := 0; y < src.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
	return dst
}

// RecycleFrame returns the frame to the pool for potential reuse. The frame
// must no longer be accessed by the caller after invoking RecycleFrame.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	framePool.Put(img)
}
