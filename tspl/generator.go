package tspl

import (
	"fmt"
	"math"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/nixxel-company-limited/labelprint/bitmap"
	"github.com/nixxel-company-limited/labelprint/command"
)

func init() {
	command.Register(command.LanguageTSPL, Generator{})
}

// Generator builds TSPL commands for label operations
type Generator struct{}

var _ command.Generator = Generator{}

func (Generator) Group(commands ...command.Command) command.Command {
	return command.NewGroup(commands...)
}

func (Generator) Print(sets, copiesPerSet int) command.Command {
	return Print(sets, copiesPerSet)
}

// Text places an unrotated run with the same multiplier on both axes
func (Generator) Text(content string, at command.Point, font string, size float64, alignment command.Alignment) command.Command {
	return Text(content, at, font, command.Rotate0, size, size, alignment)
}

func (Generator) Upload(name string, data []byte) command.Command {
	return Download(name, data)
}

func (Generator) Line(start, end command.Point, thickness float64) command.Command {
	return Diagonal(start, end, thickness)
}

func (Generator) Bar(at command.Point, width, height float64) command.Command {
	return Bar(at, width, height)
}

func (Generator) Image(image *bitmap.Bitmap, at command.Point, mode command.GraphicMode) command.Command {
	return Bitmap(image, at, mode)
}

// QRCode picks the largest cell width for which the symbol fits in width
// dots
func (Generator) QRCode(content string, width float64, at command.Point, opts command.QROptions) (command.Command, error) {
	if opts.ECC == "" {
		opts.ECC = command.DefaultQROptions().ECC
	}
	cellWidth, err := CellWidth(content, width, opts.ECC)
	if err != nil {
		return nil, err
	}
	return QRCode(content, at, cellWidth, opts)
}

func (Generator) BarCode(content string, at command.Point, opts command.BarcodeOptions) command.Command {
	return Barcode(content, at, opts)
}

func (Generator) Display() command.Command {
	return Display()
}

func (Generator) SetUp(setup command.Setup) command.Command {
	return command.NewGroup(
		Size(setup.Width, setup.Height, setup.System),
		Gap(setup.Gap, setup.GapOffset, setup.System),
		Direction(setup.Direction, setup.Mirror),
		CLS(),
	)
}

func (Generator) FeedLabel() command.Command {
	return FormFeed()
}

func (Generator) Identify() command.Command {
	return Identify()
}

// Modules returns the number of modules per side of the smallest QR symbol
// holding content at the given error correction level
func Modules(content string, ecc command.ECC) (int, error) {
	level, err := recoveryLevel(ecc)
	if err != nil {
		return 0, err
	}
	code, err := qrcode.New(content, level)
	if err != nil {
		return 0, fmt.Errorf("encode QR content: %w", err)
	}
	return 17 + 4*code.VersionNumber, nil
}

// CellWidth returns the whole number of dots per module that fits the
// symbol in width dots
func CellWidth(content string, width float64, ecc command.ECC) (int, error) {
	modules, err := Modules(content, ecc)
	if err != nil {
		return 0, err
	}
	cell := int(math.Floor(width / float64(modules)))
	if cell < 1 {
		return 0, fmt.Errorf("%w: %s dots cannot hold %d modules", ErrInvalidCellWidth, num(width), modules)
	}
	return cell, nil
}

func recoveryLevel(ecc command.ECC) (qrcode.RecoveryLevel, error) {
	switch ecc {
	case command.ECCLow:
		return qrcode.Low, nil
	case command.ECCMedium:
		return qrcode.Medium, nil
	case command.ECCQuartile:
		return qrcode.High, nil
	case command.ECCHigh:
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unknown QR error correction level %q", ecc)
	}
}
