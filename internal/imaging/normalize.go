package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	"server/internal/domain"
)

// ratioTolerance is how close a source ratio must be to the target before we
// treat it as already matching.
const ratioTolerance = 1e-3

// Normalize scales and center-crops raw image bytes so the result has exactly
// the pixel dimensions mapped to the requested aspect ratio ("cover" crop:
// the frame is always filled, overflow on one axis is discarded). The output
// is re-encoded as PNG regardless of the source format.
func Normalize(data []byte, aspect domain.AspectRatio) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	targetW, targetH := aspect.Dimensions()
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrImageDecode)
	}

	srcRatio := float64(srcW) / float64(srcH)
	if srcW == targetW && srcH == targetH && math.Abs(srcRatio-aspect.Ratio()) < ratioTolerance {
		return encodePNG(src)
	}

	// Scale uniformly so the relatively shorter axis fills the target, then
	// crop the overflow on the other axis around the center.
	var scaledW, scaledH int
	if srcRatio > aspect.Ratio() {
		scale := float64(targetH) / float64(srcH)
		scaledW = int(math.Round(float64(srcW) * scale))
		scaledH = targetH
	} else {
		scale := float64(targetW) / float64(srcW)
		scaledW = targetW
		scaledH = int(math.Round(float64(srcH) * scale))
	}
	if scaledW < targetW {
		scaledW = targetW
	}
	if scaledH < targetH {
		scaledH = targetH
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, xdraw.Over, nil)

	offsetX := (scaledW - targetW) / 2
	offsetY := (scaledH - targetH) / 2
	if offsetX < 0 {
		offsetX = 0
	}
	if offsetY < 0 {
		offsetY = 0
	}

	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.Draw(out, out.Bounds(), scaled, image.Pt(offsetX, offsetY), xdraw.Src)

	return encodePNG(out)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions reports the pixel size of encoded image bytes without fully
// decoding the raster.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
