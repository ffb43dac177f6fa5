package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

var (
	errEmptyImage   = errors.New("vision: empty image")
	errSizeMismatch = errors.New("vision: mat and image sizes differ")
)

// RGBAToMat copies img into a 4-channel Mat in RGBA order. The caller closes
// the returned Mat.
func RGBAToMat(img *image.RGBA) (gocv.Mat, error) {
	if img == nil || img.Rect.Empty() {
		return gocv.NewMat(), errEmptyImage
	}
	return gocv.NewMatFromBytes(img.Rect.Dy(), img.Rect.Dx(), gocv.MatTypeCV8UC4, packedPix(img))
}

// RGBAToBGR converts img into a 3-channel BGR Mat for drawing and colour
// conversion. The caller closes the returned Mat.
func RGBAToBGR(img *image.RGBA) (gocv.Mat, error) {
	src, err := RGBAToMat(img)
	if err != nil {
		return src, err
	}
	defer src.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(src, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// WriteBGR converts a BGR Mat back into dst, which must have the same size.
func WriteBGR(m gocv.Mat, dst *image.RGBA) error {
	if dst == nil || m.Empty() {
		return errEmptyImage
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if m.Cols() != w || m.Rows() != h {
		return errSizeMismatch
	}
	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(m, &rgba, gocv.ColorBGRToRGBA)
	data := rgba.ToBytes()
	rowLen := 4 * w
	for y := 0; y < h; y++ {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+rowLen], data[y*rowLen:(y+1)*rowLen])
	}
	return nil
}

// GrayToMat copies a mask image into a single channel Mat.
func GrayToMat(img *image.Gray) (gocv.Mat, error) {
	if img == nil || img.Rect.Empty() {
		return gocv.NewMat(), errEmptyImage
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := img.Pix
	if img.Stride != w {
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(pix[y*w:(y+1)*w], img.Pix[off:off+w])
		}
	} else {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
		pix = pix[off : off+w*h]
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, pix)
}

// packedPix returns the pixel rows of img without stride padding.
func packedPix(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rowLen := 4 * w
	if img.Stride == rowLen {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
		return img.Pix[off : off+rowLen*h]
	}
	out := make([]byte, rowLen*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out[y*rowLen:(y+1)*rowLen], img.Pix[off:off+rowLen])
	}
	return out
}
