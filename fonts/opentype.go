package fonts

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Loader turns raw font file bytes into a measurable face
type Loader interface {
	Load(data []byte) (Face, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(data []byte) (Face, error)

// Load calls f(data)
func (f LoaderFunc) Load(data []byte) (Face, error) {
	return f(data)
}

// Face measures text set in a loaded font
type Face interface {
	// Measure returns the advance width of text in points
	Measure(text string, sizeInPoints float64) float64
}

// OpenType loads TrueType and OpenType fonts with golang.org/x/image
type OpenType struct{}

var _ Loader = OpenType{}

// Load parses the font data
func (OpenType) Load(data []byte) (Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &openTypeFace{font: parsed, faces: make(map[float64]font.Face)}, nil
}

// openTypeFace caches one sized face per requested point size
type openTypeFace struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// Measure returns the advance width of text in points. Unknown sizes are
// created on first use at 72 dpi so one pixel equals one point.
func (f *openTypeFace) Measure(text string, sizeInPoints float64) float64 {
	if sizeInPoints <= 0 || text == "" {
		return 0
	}
	face, ok := f.faces[sizeInPoints]
	if !ok {
		var err error
		face, err = opentype.NewFace(f.font, &opentype.FaceOptions{
			Size:    sizeInPoints,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return 0
		}
		f.faces[sizeInPoints] = face
	}
	return fixedToFloat64(font.MeasureString(face, text))
}

// FamilyName returns the family recorded in the font's name table
func (f *openTypeFace) FamilyName() string {
	var buf sfnt.Buffer
	name, err := f.font.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// FamilyName reads the family name of a face loaded by OpenType. Other faces
// report an empty name.
func FamilyName(face Face) string {
	if named, ok := face.(interface{ FamilyName() string }); ok {
		return named.FamilyName()
	}
	return ""
}

func fixedToFloat64(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}
