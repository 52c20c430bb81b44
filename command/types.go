package command

import (
	"github.com/nixxel-company-limited/labelprint/units"
)

// Point is a position on the label in dots
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add offsets a point
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Alignment of text and barcodes. The zero value is unset.
type Alignment int

const (
	AlignUnset Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Rotation in degrees clockwise
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether the rotation is a quarter turn
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// GraphicMode decides how an image combines with what is already in the
// image buffer
type GraphicMode int

const (
	ModeOverwrite GraphicMode = iota
	ModeOr
	ModeXor
)

// HumanReadable places the text under a barcode
type HumanReadable int

const (
	HumanReadableNone HumanReadable = iota
	HumanReadableLeft
	HumanReadableCenter
	HumanReadableRight
)

// Direction is the feed orientation of the label
type Direction int

const (
	DirectionNormal Direction = iota
	DirectionInverse
)

// ECC is the QR error correction level
type ECC string

const (
	ECCLow      ECC = "L"
	ECCMedium   ECC = "M"
	ECCQuartile ECC = "Q"
	ECCHigh     ECC = "H"
)

// QRMode selects automatic or manual QR encoding
type QRMode string

const (
	QRAuto   QRMode = "A"
	QRManual QRMode = "M"
)

// QRModel is the QR symbol model
type QRModel string

const (
	QRModel1 QRModel = "M1"
	QRModel2 QRModel = "M2"
)

// QROptions are the QR code arguments besides content and position
type QROptions struct {
	ECC      ECC
	Mode     QRMode
	Rotation Rotation
	Model    QRModel
	// Mask is the mask pattern, 0 to 8
	Mask int
}

// DefaultQROptions returns the settings used when a caller sets none:
// high error correction, automatic mode, model 2 and mask 7
func DefaultQROptions() QROptions {
	return QROptions{
		ECC:   ECCHigh,
		Mode:  QRAuto,
		Model: QRModel2,
		Mask:  7,
	}
}

// BarcodeType names a barcode symbology
type BarcodeType string

const (
	BarcodeCode128    BarcodeType = "CODE128"
	BarcodeEAN13      BarcodeType = "EAN13"
	BarcodeEAN8       BarcodeType = "EAN8"
	BarcodeEAN5       BarcodeType = "EAN5"
	BarcodeEAN2       BarcodeType = "EAN2"
	BarcodeUPC        BarcodeType = "UPC"
	BarcodeCode39     BarcodeType = "CODE39"
	BarcodeITF14      BarcodeType = "ITF14"
	BarcodeMSI10      BarcodeType = "MSI10"
	BarcodeMSI11      BarcodeType = "MSI11"
	BarcodeMSI1010    BarcodeType = "MSI1010"
	BarcodeMSI1110    BarcodeType = "MSI1110"
	BarcodePharmacode BarcodeType = "pharmacode"
	BarcodeCodabar    BarcodeType = "codabar"
)

// BarcodeOptions are the barcode arguments besides content and position.
// Narrow and Wide default to one dot when zero.
type BarcodeOptions struct {
	Type          BarcodeType
	Height        float64
	Rotation      Rotation
	HumanReadable HumanReadable
	Alignment     Alignment
	Narrow        float64
	Wide          float64
}

// Setup describes the label geometry sent before any drawing command.
// Dimensions are in the units of System.
type Setup struct {
	Width     float64
	Height    float64
	Gap       float64
	GapOffset float64
	Direction Direction
	Mirror    bool
	System    units.System
}
