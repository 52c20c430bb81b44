package tspl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/labelprint/bitmap"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/units"
)

func TestCommandStrings(t *testing.T) {
	testCases := []struct {
		name string
		cmd  command.Command
		want string
	}{
		{"SizeMetric", Size(50, 25, units.Metric), "SIZE 50 mm, 25 mm"},
		{"SizeImperial", Size(2, 1.5, units.Imperial), "SIZE 2, 1.5"},
		{"SizeDot", Size(400, 200, units.Dot), "SIZE 400 dot, 200 dot"},
		{"Gap", Gap(2, 0, units.Metric), "GAP 2 mm, 0 mm"},
		{"DirectionNormal", Direction(command.DirectionNormal, false), "DIRECTION 1, 0"},
		{"DirectionInverseMirrored", Direction(command.DirectionInverse, true), "DIRECTION 0, 1"},
		{"CLS", CLS(), "CLS"},
		{"TextDefault", Text("Hello", command.Pt(5, 10), "default", command.Rotate0, 1, 1, command.AlignUnset), `TEXT 5,10,"default",0,1,1,1,"Hello"`},
		{"TextCentered", Text("Hi", command.Pt(0, 2.5), "FONT1.TTF", command.Rotate90, 12, 12, command.AlignCenter), `TEXT 0,2.5,"FONT1.TTF",90,12,12,2,"Hi"`},
		{"TextRight", Text("R", command.Pt(1, 1), "3", command.Rotate0, 1, 2, command.AlignRight), `TEXT 1,1,"3",0,1,2,3,"R"`},
		{"TextEscapesQuotes", Text(`say "hi"`, command.Pt(0, 0), "default", command.Rotate0, 1, 1, command.AlignLeft), `TEXT 0,0,"default",0,1,1,1,"say \["]hi\["]"`},
		{"Block", Block("Long", command.Pt(1, 2), 100, 50, "3", command.Rotate0, 1, 1, 0, command.AlignCenter), `BLOCK 1,2,100, 50,"3",0,1,1,0,2,"Long"`},
		{"Diagonal", Diagonal(command.Pt(10, 20.5), command.Pt(110, 20.5), 1.2), "DIAGONAL 10, 20.5, 110, 20.5, 1.2"},
		{"Bar", Bar(command.Pt(5, 6), 100, 3), "BAR 5, 6, 100, 3"},
		{"Barcode", Barcode("123456", command.Pt(10, 20), command.BarcodeOptions{
			Type:          command.BarcodeCode128,
			Height:        80,
			HumanReadable: command.HumanReadableCenter,
			Rotation:      command.Rotate0,
			Alignment:     command.AlignRight,
		}), `BARCODE 10, 20, "CODE128", 80, 2, 0, 1, 1, 3, "123456"`},
		{"BarcodeNoText", Barcode("5901234123457", command.Pt(0, 0), command.BarcodeOptions{
			Type:   command.BarcodeEAN13,
			Height: 50,
			Narrow: 2,
			Wide:   4,
		}), `BARCODE 0, 0, "EAN13", 50, 0, 0, 2, 4, 1, "5901234123457"`},
		{"Print", Print(2, 3), "PRINT 2, 3"},
		{"FormFeed", FormFeed(), "FORMFEED"},
		{"Identify", Identify(), "~!I"},
		{"Raw", Raw("SET TEAR ON"), "SET TEAR ON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, command.String(tc.cmd))
		})
	}
}

func TestQRCode(t *testing.T) {
	cmd, err := QRCode("https://example.com", command.Pt(10, 10), 4, command.DefaultQROptions())
	require.NoError(t, err)
	assert.Equal(t, `QRCODE 10, 10, H, 4, A, 0, M2, 7, "https://example.com"`, command.String(cmd))

	cmd, err = QRCode(`a"b`, command.Pt(0, 0), 2, command.QROptions{ECC: command.ECCLow, Rotation: command.Rotate180, Mask: 0})
	require.NoError(t, err)
	assert.Equal(t, `QRCODE 0, 0, L, 2, A, 180, M2, 0, "a\["]b"`, command.String(cmd))
}

func TestQRCodeRejects(t *testing.T) {
	for _, mask := range []int{-1, 9} {
		_, err := QRCode("x", command.Pt(0, 0), 2, command.QROptions{Mask: mask})
		assert.ErrorIs(t, err, ErrInvalidMask, "mask %d", mask)
	}
	_, err := QRCode("x", command.Pt(0, 0), 8, command.QROptions{Mask: 8})
	assert.NoError(t, err)

	_, err = QRCode("x", command.Pt(0, 0), 0, command.DefaultQROptions())
	assert.ErrorIs(t, err, ErrInvalidCellWidth)
}

func TestBitmap(t *testing.T) {
	image := &bitmap.Bitmap{WidthInBytes: 2, Height: 2, Bytes: []byte{0x7F, 0xBF, 0x00, 0x3F}}

	cmd := Bitmap(image, command.Pt(10, 20), command.ModeXor)
	assert.Equal(t, "BITMAP 10, 20,2,2,2,", cmd.Header)
	assert.Equal(t, image.Bytes, cmd.Payload)
	assert.Equal(t, append([]byte("BITMAP 10, 20,2,2,2,"), 0x7F, 0xBF, 0x00, 0x3F, '\n'), command.Encode(cmd))

	assert.Equal(t, "BITMAP 0, 0,2,2,0,", Bitmap(image, command.Pt(0, 0), command.ModeOverwrite).Header)
	assert.Equal(t, "BITMAP 0, 0,2,2,1,", Bitmap(image, command.Pt(0, 0), command.ModeOr).Header)
}

func TestDownload(t *testing.T) {
	data := []byte{0x00, 0x01, '\n', 0x02}
	cmd := Download("FONT1.TTF", data)

	assert.Equal(t, `DOWNLOAD "FONT1.TTF", 4,`, cmd.Header)
	assert.Equal(t, data, cmd.Payload)
}

func TestDisplay(t *testing.T) {
	cmd := Display()
	assert.Equal(t, "", command.String(cmd))
	assert.Equal(t, []string{"DISPLAY CLS", "DISPLAY IMAGE"}, command.Lines(cmd))
	assert.Equal(t, "DISPLAY CLS\nDISPLAY IMAGE\n", string(command.Encode(cmd)))
}

func TestEncodings(t *testing.T) {
	assert.Equal(t, 1, AlignmentValue(command.AlignUnset))
	assert.Equal(t, 1, AlignmentValue(command.AlignLeft))
	assert.Equal(t, 2, AlignmentValue(command.AlignCenter))
	assert.Equal(t, 3, AlignmentValue(command.AlignRight))

	assert.Equal(t, 0, HumanReadableValue(command.HumanReadableNone))
	assert.Equal(t, 1, HumanReadableValue(command.HumanReadableLeft))
	assert.Equal(t, 2, HumanReadableValue(command.HumanReadableCenter))
	assert.Equal(t, 3, HumanReadableValue(command.HumanReadableRight))

	assert.Equal(t, 0, GraphicModeValue(command.ModeOverwrite))
	assert.Equal(t, 1, GraphicModeValue(command.ModeOr))
	assert.Equal(t, 2, GraphicModeValue(command.ModeXor))
}
