// Package label holds the content of a label and generates the complete
// command stream that prints or displays it.
//
// A Label is not safe for concurrent use. Fields and fonts are added by the
// owning caller between print calls.
package label

import (
	"errors"
	"fmt"

	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/fonts"
	"github.com/nixxel-company-limited/labelprint/layout"
	_ "github.com/nixxel-company-limited/labelprint/tspl" // registers the TSPL generator
	"github.com/nixxel-company-limited/labelprint/units"
)

// ErrInvalidGeometry is returned for non-positive sizes and other values
// that cannot describe a label
var ErrInvalidGeometry = errors.New("invalid label geometry")

// DefaultDPI is the resolution of most 203 dpi desktop label printers
const DefaultDPI = layout.DefaultDPI

// Label is a fixed size label with an ordered list of fields
type Label struct {
	width  float64
	height float64
	system units.System
	dpi    int
	fonts  *fonts.Registry
	fields []Field
}

// PrintOptions controls a print action. Gap and GapOffset are in the label's
// unit system. Zero Sets or CopiesPerSet print one.
type PrintOptions struct {
	Sets         int
	CopiesPerSet int
	Gap          float64
	GapOffset    float64
	Direction    command.Direction
	Mirror       bool
}

// New creates a width x height label measured in system, at DefaultDPI, that
// loads fonts with golang.org/x/image
func New(width, height float64, system units.System) (*Label, error) {
	return NewWithLoader(width, height, system, DefaultDPI, fonts.OpenType{})
}

// NewWithLoader creates a label with an explicit resolution and font loader
func NewWithLoader(width, height float64, system units.System, dpi int, loader fonts.Loader) (*Label, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %vx%v", ErrInvalidGeometry, width, height)
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("%w: dpi %d", ErrInvalidGeometry, dpi)
	}
	if loader == nil {
		loader = fonts.OpenType{}
	}
	return &Label{
		width:  width,
		height: height,
		system: system,
		dpi:    dpi,
		fonts:  fonts.NewRegistry(loader),
	}, nil
}

// Width returns the label width in its unit system
func (l *Label) Width() float64 { return l.width }

// Height returns the label height in its unit system
func (l *Label) Height() float64 { return l.height }

// System returns the unit system of the label dimensions
func (l *Label) System() units.System { return l.system }

// DPI returns the printer resolution the label is laid out for
func (l *Label) DPI() int { return l.dpi }

// Fonts returns the label's font registry
func (l *Label) Fonts() *fonts.Registry { return l.fonts }

// Fields returns the fields in the order they were added
func (l *Label) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Add appends fields to the label. Nil fields are ignored.
func (l *Label) Add(fields ...Field) {
	for _, f := range fields {
		if f != nil {
			l.fields = append(l.fields, f)
		}
	}
}

// RegisterFont makes a TrueType font available to text fields under name.
// The font is uploaded with the next print or display.
func (l *Label) RegisterFont(name string, weight fonts.Weight, style fonts.Style, data []byte) (string, error) {
	return l.fonts.Register(name, weight, style, data)
}

// MarkFontsUploaded records that every registered font reached the printer
func (l *Label) MarkFontsUploaded() {
	l.fonts.MarkUploaded(l.fonts.Pending()...)
}

// CommandForLanguage returns the commands for every field, in order
func (l *Label) CommandForLanguage(language command.Language) (command.Command, error) {
	generator, err := command.GeneratorFor(language)
	if err != nil {
		return nil, err
	}
	return l.fieldsCommand(generator)
}

// PrintCommand returns the complete command stream for printing: pending
// font uploads, geometry setup, the fields, then PRINT
func (l *Label) PrintCommand(language command.Language, opts PrintOptions) (command.Command, error) {
	if opts.Sets < 0 || opts.CopiesPerSet < 0 {
		return nil, fmt.Errorf("%w: %d sets of %d copies", ErrInvalidGeometry, opts.Sets, opts.CopiesPerSet)
	}
	if opts.Gap < 0 || opts.GapOffset < 0 {
		return nil, fmt.Errorf("%w: gap %v offset %v", ErrInvalidGeometry, opts.Gap, opts.GapOffset)
	}
	sets, copies := max(opts.Sets, 1), max(opts.CopiesPerSet, 1)

	generator, err := command.GeneratorFor(language)
	if err != nil {
		return nil, err
	}
	return l.fullCommand(generator, opts.Gap, opts.GapOffset, opts.Direction, opts.Mirror, generator.Print(sets, copies))
}

// DisplayCommand returns the complete command stream for showing the label
// on the printer screen. The label is set up without a gap.
func (l *Label) DisplayCommand(language command.Language, direction command.Direction, mirror bool) (command.Command, error) {
	generator, err := command.GeneratorFor(language)
	if err != nil {
		return nil, err
	}
	return l.fullCommand(generator, 0, 0, direction, mirror, generator.Display())
}

func (l *Label) fullCommand(generator command.Generator, gap, offset float64, direction command.Direction, mirror bool, action command.Command) (command.Command, error) {
	fields, err := l.fieldsCommand(generator)
	if err != nil {
		return nil, err
	}

	var commands []command.Command
	for _, entry := range l.fonts.Pending() {
		commands = append(commands, generator.Upload(entry.Alias, entry.Data))
	}
	commands = append(commands,
		generator.SetUp(command.Setup{
			Width:     l.width,
			Height:    l.height,
			Gap:       gap,
			GapOffset: offset,
			Direction: direction,
			Mirror:    mirror,
			System:    l.system,
		}),
		fields,
		action,
	)
	return generator.Group(commands...), nil
}

func (l *Label) fieldsCommand(generator command.Generator) (command.Command, error) {
	engine := &layout.Engine{Generator: generator, Fonts: l.fonts, DPI: l.dpi}

	commands := make([]command.Command, 0, len(l.fields))
	for i, f := range l.fields {
		c, err := fieldCommand(generator, engine, f)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		commands = append(commands, c)
	}
	return generator.Group(commands...), nil
}

func fieldCommand(generator command.Generator, engine *layout.Engine, f Field) (command.Command, error) {
	switch f := f.(type) {
	case *Text:
		return textCommand(engine, f), nil
	case *Line:
		return generator.Line(f.Start, f.End, f.Thickness), nil
	case *Bar:
		return generator.Bar(f.At, f.Width, f.Height), nil
	case *Image:
		return generator.Image(f.Bitmap, f.At, f.Mode), nil
	case *QRCode:
		return generator.QRCode(f.Content, f.Width, f.At, f.Options)
	case *BarCode:
		return generator.BarCode(f.Content, f.At, f.Options), nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", f)
	}
}

func textCommand(engine *layout.Engine, t *Text) command.Command {
	font := t.Font
	if font.Name == "" {
		font.Name = fonts.DefaultName
	}
	if font.Size <= 0 {
		font.Size = DefaultFontSize
	}

	nodes := layout.Plain(t.Content)
	if t.Formatted {
		nodes = layout.Parse(t.Content)
	}
	return engine.LayoutNodes(nodes, font, layout.Box{
		At:        t.At,
		Width:     t.width,
		Height:    t.height,
		Multiline: t.multiline,
		Alignment: t.Alignment,
	})
}
