package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"

	"github.com/nixxel-company-limited/labelprint/units"
)

// ErrInvalidDimensions is returned for non-positive or inconsistent sizes
var ErrInvalidDimensions = errors.New("invalid bitmap dimensions")

const (
	bitsPerByte    = 8
	bytesPerPixel  = 4
	whiteThreshold = 128
)

// Pixels is a decoded RGBA pixel buffer, 4 bytes per pixel, rows top to bottom.
// Color channels are not premultiplied by alpha.
type Pixels struct {
	Width  int
	Height int
	Data   []byte
}

// Bitmap is a printer-native 1-bit image. Every bit is one pixel, most
// significant bit first, 1 for white and 0 for black. Rows are padded with
// white pixels to a whole number of bytes.
type Bitmap struct {
	WidthInBytes int
	Height       int
	Bytes        []byte
}

// Options controls the destination size of a conversion. A zero Width or
// Height is unset and follows the source aspect ratio.
type Options struct {
	Width  int
	Height int
	// Dither applies Floyd-Steinberg error diffusion before thresholding
	Dither bool
}

// Validate checks that the byte buffer matches the declared geometry
func (b *Bitmap) Validate() error {
	if b == nil || b.WidthInBytes <= 0 || b.Height <= 0 {
		return ErrInvalidDimensions
	}
	if len(b.Bytes) != b.WidthInBytes*b.Height {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidDimensions, len(b.Bytes), b.WidthInBytes, b.Height)
	}
	return nil
}

// PixelWidth returns the padded width in pixels
func (b *Bitmap) PixelWidth() int {
	return b.WidthInBytes * bitsPerByte
}

// White reports whether the pixel at (x, y) is white
func (b *Bitmap) White(x, y int) bool {
	index := y*b.WidthInBytes + x/bitsPerByte
	shift := bitsPerByte - 1 - x%bitsPerByte
	return (b.Bytes[index]>>shift)&1 == 1
}

// FromImage copies any image into a non-premultiplied RGBA pixel buffer
func FromImage(img image.Image) Pixels {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return Pixels{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Data:   dst.Pix,
	}
}

// Convert downscales a pixel buffer with nearest-neighbour sampling,
// thresholds it to black and white and packs it into a Bitmap.
func Convert(p Pixels, opts Options) (*Bitmap, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: source %dx%d", ErrInvalidDimensions, p.Width, p.Height)
	}
	if len(p.Data) < p.Width*p.Height*bytesPerPixel {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrInvalidDimensions, len(p.Data), p.Width, p.Height)
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("%w: requested %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}

	width, height := units.SizePreserveAspect(p.Width, p.Height, opts.Width, opts.Height)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: destination %dx%d", ErrInvalidDimensions, width, height)
	}

	var sampled image.Image = resample(p, width, height)
	if opts.Dither {
		d := dither.NewDitherer([]color.Color{color.Black, color.White})
		d.Matrix = dither.FloydSteinberg
		sampled = d.DitherPaletted(sampled)
	}

	return pack(sampled, width, height), nil
}

// resample picks the nearest source pixel for every destination pixel.
// Pixels with alpha at or below the threshold become opaque white.
func resample(p Pixels, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for h := 0; h < height; h++ {
		sy := sourceIndex(h, height, p.Height)
		for w := 0; w < width; w++ {
			sx := sourceIndex(w, width, p.Width)
			base := (sy*p.Width + sx) * bytesPerPixel
			px := color.NRGBA{R: p.Data[base], G: p.Data[base+1], B: p.Data[base+2], A: p.Data[base+3]}
			if px.A <= whiteThreshold {
				px = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
			}
			dst.SetNRGBA(w, h, px)
		}
	}
	return dst
}

// sourceIndex maps a destination coordinate onto the source axis. A single
// destination row or column always samples index 0.
func sourceIndex(d, destSize, srcSize int) int {
	if destSize <= 1 {
		return 0
	}
	return int(math.Round(float64(d*(srcSize-1)) / float64(destSize-1)))
}

func pack(img image.Image, width, height int) *Bitmap {
	widthInBytes := (width + bitsPerByte - 1) / bitsPerByte
	out := make([]byte, widthInBytes*height)

	for y := 0; y < height; y++ {
		row := out[y*widthInBytes : (y+1)*widthInBytes]
		for i := range row {
			// padding pixels stay white
			row[i] = 0xFF
		}
		for x := 0; x < width; x++ {
			if !isWhite(img.At(x, y)) {
				row[x/bitsPerByte] &^= 1 << (bitsPerByte - 1 - x%bitsPerByte)
			}
		}
	}

	return &Bitmap{
		WidthInBytes: widthInBytes,
		Height:       height,
		Bytes:        out,
	}
}

func isWhite(c color.Color) bool {
	px := color.NRGBAModel.Convert(c).(color.NRGBA)
	if px.A <= whiteThreshold {
		return true
	}
	avg := (float64(px.R) + float64(px.G) + float64(px.B)) / 3
	return avg > whiteThreshold
}
