// Package tspl implements the TSPL command language used by TSC and
// compatible thermal label printers.
package tspl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nixxel-company-limited/labelprint/bitmap"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/units"
)

var (
	// ErrInvalidMask is returned for a QR mask outside 0-8
	ErrInvalidMask = errors.New("invalid QR mask")
	// ErrInvalidCellWidth is returned when a QR code cannot fit the requested width
	ErrInvalidCellWidth = errors.New("invalid QR cell width")
)

// quoteEscape is how TSPL writes a double quote inside a string argument
const quoteEscape = `\["]`

var num = units.FormatNumber

func escape(content string) string {
	return strings.ReplaceAll(content, `"`, quoteEscape)
}

// Raw sends a command body unchanged, for commands without a constructor
func Raw(body string) command.Text {
	return command.Text{Body: body}
}

// Size sets the label width and height
func Size(width, height float64, system units.System) command.Text {
	return Raw(fmt.Sprintf("SIZE %s, %s", units.ValueWithUnit(width, system), units.ValueWithUnit(height, system)))
}

// Gap sets the gap between labels and its offset
func Gap(gap, offset float64, system units.System) command.Text {
	return Raw(fmt.Sprintf("GAP %s, %s", units.ValueWithUnit(gap, system), units.ValueWithUnit(offset, system)))
}

// Direction sets the print orientation and mirroring
func Direction(direction command.Direction, mirror bool) command.Text {
	d := 1
	if direction == command.DirectionInverse {
		d = 0
	}
	m := 0
	if mirror {
		m = 1
	}
	return Raw(fmt.Sprintf("DIRECTION %d, %d", d, m))
}

// CLS clears the image buffer
func CLS() command.Text {
	return Raw("CLS")
}

// Text places one line of text
func Text(content string, at command.Point, font string, rotation command.Rotation, xMul, yMul float64, alignment command.Alignment) command.Text {
	return Raw(fmt.Sprintf(`TEXT %s,%s,"%s",%d,%s,%s,%d,"%s"`,
		num(at.X), num(at.Y), font, rotation, num(xMul), num(yMul), AlignmentValue(alignment), escape(content)))
}

// Block places text wrapped by the printer inside a box
func Block(content string, at command.Point, width, height float64, font string, rotation command.Rotation, xMul, yMul, lineSpacing float64, alignment command.Alignment) command.Text {
	return Raw(fmt.Sprintf(`BLOCK %s,%s,%s, %s,"%s",%d,%s,%s,%s,%d,"%s"`,
		num(at.X), num(at.Y), num(width), num(height), font, rotation, num(xMul), num(yMul), num(lineSpacing), AlignmentValue(alignment), escape(content)))
}

// Diagonal draws a line between two points
func Diagonal(start, end command.Point, thickness float64) command.Text {
	return Raw(fmt.Sprintf("DIAGONAL %s, %s, %s, %s, %s", num(start.X), num(start.Y), num(end.X), num(end.Y), num(thickness)))
}

// Bar draws a filled rectangle
func Bar(at command.Point, width, height float64) command.Text {
	return Raw(fmt.Sprintf("BAR %s, %s, %s, %s", num(at.X), num(at.Y), num(width), num(height)))
}

// QRCode draws a QR code with explicit cell width
func QRCode(content string, at command.Point, cellWidth int, opts command.QROptions) (command.Text, error) {
	if opts.Mask < 0 || opts.Mask > 8 {
		return command.Text{}, fmt.Errorf("%w: %d", ErrInvalidMask, opts.Mask)
	}
	if cellWidth < 1 {
		return command.Text{}, fmt.Errorf("%w: %d", ErrInvalidCellWidth, cellWidth)
	}
	defaults := command.DefaultQROptions()
	if opts.ECC == "" {
		opts.ECC = defaults.ECC
	}
	if opts.Mode == "" {
		opts.Mode = defaults.Mode
	}
	if opts.Model == "" {
		opts.Model = defaults.Model
	}
	return Raw(fmt.Sprintf(`QRCODE %s, %s, %s, %d, %s, %d, %s, %d, "%s"`,
		num(at.X), num(at.Y), opts.ECC, cellWidth, opts.Mode, opts.Rotation, opts.Model, opts.Mask, escape(content))), nil
}

// Barcode draws a one dimensional barcode
func Barcode(content string, at command.Point, opts command.BarcodeOptions) command.Text {
	narrow, wide := opts.Narrow, opts.Wide
	if narrow == 0 {
		narrow = 1
	}
	if wide == 0 {
		wide = 1
	}
	return Raw(fmt.Sprintf(`BARCODE %s, %s, "%s", %s, %d, %d, %s, %s, %d, "%s"`,
		num(at.X), num(at.Y), opts.Type, num(opts.Height), HumanReadableValue(opts.HumanReadable), opts.Rotation,
		num(narrow), num(wide), AlignmentValue(opts.Alignment), escape(content)))
}

// Bitmap draws a packed 1-bit image. The header is followed by the raw bytes.
func Bitmap(image *bitmap.Bitmap, at command.Point, mode command.GraphicMode) command.Binary {
	return command.Binary{
		Header:  fmt.Sprintf("BITMAP %s, %s,%d,%d,%d,", num(at.X), num(at.Y), image.WidthInBytes, image.Height, GraphicModeValue(mode)),
		Payload: image.Bytes,
	}
}

// Download stores a file in printer memory under name
func Download(name string, data []byte) command.Binary {
	return command.Binary{
		Header:  fmt.Sprintf(`DOWNLOAD "%s", %d,`, name, len(data)),
		Payload: data,
	}
}

// Print prints the image buffer
func Print(sets, copiesPerSet int) command.Text {
	return Raw(fmt.Sprintf("PRINT %d, %d", sets, copiesPerSet))
}

// Display shows the image buffer on the printer screen
func Display() command.Group {
	return command.NewGroup(Raw("DISPLAY CLS"), Raw("DISPLAY IMAGE"))
}

// FormFeed feeds one label
func FormFeed() command.Text {
	return Raw("FORMFEED")
}

// Identify asks the printer for its model name
func Identify() command.Text {
	return Raw("~!I")
}

// AlignmentValue encodes an alignment. Unset and left are both 1.
func AlignmentValue(a command.Alignment) int {
	switch a {
	case command.AlignCenter:
		return 2
	case command.AlignRight:
		return 3
	default:
		return 1
	}
}

// HumanReadableValue encodes the position of the barcode text
func HumanReadableValue(h command.HumanReadable) int {
	switch h {
	case command.HumanReadableLeft:
		return 1
	case command.HumanReadableCenter:
		return 2
	case command.HumanReadableRight:
		return 3
	default:
		return 0
	}
}

// GraphicModeValue encodes a bitmap overlap mode
func GraphicModeValue(m command.GraphicMode) int {
	switch m {
	case command.ModeOr:
		return 1
	case command.ModeXor:
		return 2
	default:
		return 0
	}
}
