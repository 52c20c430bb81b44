package label

import (
	"context"
	"fmt"

	"github.com/nixxel-company-limited/labelprint/bitmap"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/fonts"
)

// DefaultFontSize is the text size in dots when none is set
const DefaultFontSize = 10

// DefaultLineThickness is the line thickness in dots when none is set
const DefaultLineThickness = 3

// Field is an element drawn on a label: *Text, *Line, *Bar, *Image,
// *QRCode or *BarCode
type Field interface {
	field()
}

func (*Text) field()    {}
func (*Line) field()    {}
func (*Bar) field()     {}
func (*Image) field()   {}
func (*QRCode) field()  {}
func (*BarCode) field() {}

// Text is a run of text, optionally formatted with b, i, u and s tags. It is
// single line and unbounded unless configured otherwise.
type Text struct {
	Content   string
	At        command.Point
	Formatted bool
	Font      fonts.Option
	Alignment command.Alignment

	multiline bool
	width     float64
	height    float64
}

// NewText creates a formatted single line text at (x, y) in the default font
func NewText(content string, x, y float64) *Text {
	return &Text{
		Content:   content,
		At:        command.Pt(x, y),
		Formatted: true,
		Font:      fonts.Option{Name: fonts.DefaultName, Size: DefaultFontSize},
	}
}

// SetFont selects a registered family, a printer font or "default". size is
// in dots.
func (t *Text) SetFont(name string, size float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty font name", ErrInvalidGeometry)
	}
	if size <= 0 {
		return fmt.Errorf("%w: font size %v", ErrInvalidGeometry, size)
	}
	t.Font.Name = name
	t.Font.Size = size
	return nil
}

// SetSingleLine keeps the text on one row. A width of 0 lets it grow.
func (t *Text) SetSingleLine(width float64) error {
	if width < 0 {
		return fmt.Errorf("%w: width %v", ErrInvalidGeometry, width)
	}
	t.multiline = false
	t.width = width
	t.height = 0
	return nil
}

// SetMultiLine wraps the text at width. A height of 0 lets the box grow.
func (t *Text) SetMultiLine(width, height float64) error {
	if width <= 0 {
		return fmt.Errorf("%w: width %v", ErrInvalidGeometry, width)
	}
	if height < 0 {
		return fmt.Errorf("%w: height %v", ErrInvalidGeometry, height)
	}
	t.multiline = true
	t.width = width
	t.height = height
	return nil
}

// Multiline reports whether the text wraps
func (t *Text) Multiline() bool {
	return t.multiline
}

// Line is a straight line between two points
type Line struct {
	Start     command.Point
	End       command.Point
	Thickness float64
}

// NewLine creates a line. A zero thickness uses DefaultLineThickness.
func NewLine(start, end command.Point, thickness float64) (*Line, error) {
	if thickness < 0 {
		return nil, fmt.Errorf("%w: thickness %v", ErrInvalidGeometry, thickness)
	}
	if thickness == 0 {
		thickness = DefaultLineThickness
	}
	return &Line{Start: start, End: end, Thickness: thickness}, nil
}

// Bar is a filled black rectangle
type Bar struct {
	At     command.Point
	Width  float64
	Height float64
}

// NewBar creates a bar of width x height dots at (x, y)
func NewBar(x, y, width, height float64) (*Bar, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bar %vx%v", ErrInvalidGeometry, width, height)
	}
	return &Bar{At: command.Pt(x, y), Width: width, Height: height}, nil
}

// Image is a 1-bit bitmap
type Image struct {
	At     command.Point
	Bitmap *bitmap.Bitmap
	Mode   command.GraphicMode
}

// NewImage places an already converted bitmap at (x, y)
func NewImage(x, y float64, image *bitmap.Bitmap) (*Image, error) {
	if err := image.Validate(); err != nil {
		return nil, err
	}
	return &Image{At: command.Pt(x, y), Bitmap: image}, nil
}

// LoadImage reads an image from a file path, an http(s) URL or a data URL
// and converts it to a bitmap of width x height dots. Zero dimensions follow
// the image aspect ratio.
func LoadImage(ctx context.Context, source string, x, y float64, width, height int, opts ...ImageOption) (*Image, error) {
	conversion := bitmap.Options{Width: width, Height: height}
	for _, opt := range opts {
		opt(&conversion)
	}
	image, err := bitmap.DecodeBitmap(ctx, source, conversion)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	return NewImage(x, y, image)
}

// ImageOption adjusts the conversion done by LoadImage
type ImageOption func(*bitmap.Options)

// WithDither applies error diffusion before thresholding, which keeps
// photographs readable
func WithDither() ImageOption {
	return func(o *bitmap.Options) {
		o.Dither = true
	}
}

// QRCode is a QR code scaled to fit Width dots
type QRCode struct {
	Content string
	At      command.Point
	Width   float64
	Options command.QROptions
}

// NewQRCode creates a QR code with the default options
func NewQRCode(content string, x, y, width float64) (*QRCode, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: QR code width %v", ErrInvalidGeometry, width)
	}
	return &QRCode{
		Content: content,
		At:      command.Pt(x, y),
		Width:   width,
		Options: command.DefaultQROptions(),
	}, nil
}

// BarCode is a one dimensional barcode
type BarCode struct {
	Content string
	At      command.Point
	Options command.BarcodeOptions
}

// NewBarCode creates a barcode of the given symbology and height in dots,
// with the human readable text on the left
func NewBarCode(content string, x, y float64, kind command.BarcodeType, height float64) (*BarCode, error) {
	if height <= 0 {
		return nil, fmt.Errorf("%w: barcode height %v", ErrInvalidGeometry, height)
	}
	return &BarCode{
		Content: content,
		At:      command.Pt(x, y),
		Options: command.BarcodeOptions{
			Type:          kind,
			Height:        height,
			HumanReadable: command.HumanReadableLeft,
			Alignment:     command.AlignLeft,
		},
	}, nil
}
