package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

const (
	// contrastBoost is the percentage passed to imaging.AdjustContrast.
	contrastBoost = 40

	// thresholdBlock is the side of the square neighbourhood used for the
	// local mean. It must be odd.
	thresholdBlock = 11

	// thresholdOffset is subtracted from the local mean before comparison.
	thresholdOffset = 2
)

// LoadImage opens and decodes a screenshot, honouring EXIF orientation.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, WrapOCRError("LoadImage", ErrImageLoad, err.Error())
	}
	return img, nil
}

// Preprocess converts img to grayscale, boosts its contrast and binarizes it
// with an adaptive mean threshold. Engines that do no binarization of their
// own recognize thin screen fonts noticeably better on the result.
func Preprocess(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	boosted := imaging.AdjustContrast(gray, contrastBoost)
	return AdaptiveThreshold(boosted, thresholdBlock, thresholdOffset)
}

// AdaptiveThreshold binarizes img: a pixel becomes white when its luminance
// exceeds the mean of its block×block neighbourhood minus offset, black
// otherwise. The neighbourhood is clipped at the image border.
func AdaptiveThreshold(img image.Image, block int, offset float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if block < 1 {
		block = 1
	}
	half := block / 2

	lum := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
		}
	}

	// integral[(y+1)*(w+1)+(x+1)] is the sum of lum over [0,x]×[0,y].
	stride := w + 1
	integral := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(lum[y*w+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := integral[(y1+1)*stride+x1+1] - integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] + integral[y0*stride+x0]
			area := float64((y1 - y0 + 1) * (x1 - x0 + 1))
			if float64(lum[y*w+x]) > float64(sum)/area-offset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
