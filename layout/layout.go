// Package layout turns text with inline markup into positioned text runs and
// decoration lines. Layout is deterministic and never fails on content: text
// that does not fit the box is wrapped or dropped.
package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/fonts"
	"github.com/nixxel-company-limited/labelprint/units"
)

// LineSpacing is the gap in dots added between wrapped rows
const LineSpacing = 2

// Decoration is a set of lines drawn with a text run
type Decoration uint8

const (
	Underline Decoration = 1 << iota
	Strike
)

// Has reports whether d contains every flag in flag
func (d Decoration) Has(flag Decoration) bool {
	return d&flag == flag
}

// Box is the area a text field occupies. A zero Width or Height means
// unbounded on that axis. Only multiline boxes wrap.
type Box struct {
	At        command.Point
	Width     float64
	Height    float64
	Multiline bool
	Alignment command.Alignment
}

// MeasureFunc returns the width of text set in font, in dots
type MeasureFunc func(text string, font fonts.Option) float64

// Engine lays out text for one label
type Engine struct {
	Generator command.Generator
	Fonts     *fonts.Registry
	DPI       int
	// Measure overrides the registry based measurement when set
	Measure MeasureFunc
}

// style is what the enclosing markup elements apply to a text leaf
type style struct {
	font       fonts.Option
	decoration Decoration
}

func (s style) with(tag string) style {
	switch tag {
	case "b", "strong":
		s.font.Weight = fonts.WeightBold
	case "i", "em":
		s.font.Style = fonts.StyleItalic
	case "u", "ins":
		s.decoration |= Underline
	case "s", "strike", "del":
		s.decoration |= Strike
	}
	return s
}

// cursor is the running pen position. full is set once the box height is
// used up and nothing more may be placed.
type cursor struct {
	x, y float64
	full bool
}

// Layout parses content as markup and lays it out in box
func (e *Engine) Layout(content string, font fonts.Option, box Box) command.Command {
	return e.LayoutNodes(Parse(content), font, box)
}

// LayoutNodes lays out an already parsed node tree in box. The result is a
// group holding every run in placement order.
func (e *Engine) LayoutNodes(nodes []Node, font fonts.Option, box Box) command.Command {
	_, commands := e.walk(nodes, style{font: font}, box, cursor{x: box.At.X, y: box.At.Y})
	return e.Generator.Group(commands...)
}

func (e *Engine) walk(nodes []Node, st style, box Box, cur cursor) (cursor, []command.Command) {
	var out []command.Command
	for _, node := range nodes {
		if cur.full {
			break
		}
		var commands []command.Command
		if node.IsText() {
			cur, commands = e.place(node.Text, st, box, cur)
		} else {
			cur, commands = e.walk(node.Children, st.with(node.Tag), box, cur)
		}
		out = append(out, commands...)
	}
	return cur, out
}

// place lays out one text leaf starting at the cursor
func (e *Engine) place(text string, st style, box Box, cur cursor) (cursor, []command.Command) {
	if text == "" {
		return cur, nil
	}
	width := e.measure(text, st.font)
	if box.Width <= 0 || !box.Multiline {
		at := command.Pt(cur.x, cur.y)
		cur.x += width
		return cur, []command.Command{e.run(text, at, st, width, box.Alignment)}
	}

	var out []command.Command
	lineHeight := st.font.Size + LineSpacing
	rowWidth := box.Width - (cur.x - box.At.X)
	remaining := text
	for {
		if width <= rowWidth {
			out = append(out, e.run(remaining, command.Pt(cur.x, cur.y), st, width, box.Alignment))
			cur.x += width
			return cur, out
		}
		if rowWidth <= 0 {
			if !e.fits(cur.y+lineHeight, st.font.Size, box) {
				cur.full = true
				return cur, out
			}
			cur.x, cur.y = box.At.X, cur.y+lineHeight
			rowWidth = box.Width
			continue
		}

		row, rest := split(remaining, width, rowWidth)
		rowMeasured := e.measure(row, st.font)
		// a row of only spaces at the end of a line is not drawn
		if strings.TrimSpace(row) != "" {
			out = append(out, e.run(row, command.Pt(cur.x, cur.y), st, rowMeasured, box.Alignment))
		}
		if rest == "" {
			cur.x += rowMeasured
			return cur, out
		}
		if !e.fits(cur.y+lineHeight, st.font.Size, box) {
			cur.full = true
			return cur, out
		}
		cur.x, cur.y = box.At.X, cur.y+lineHeight
		rowWidth = box.Width
		remaining = rest
		width = e.measure(remaining, st.font)
	}
}

// fits reports whether a row starting at y still fits in the box height
func (e *Engine) fits(y, fontSize float64, box Box) bool {
	return box.Height <= 0 || (y-box.At.Y)+fontSize <= box.Height
}

// split breaks text into the part that fits rowWidth and the rest. It
// estimates the break from the overflow ratio, then moves left to the end
// of a word. Without a word end the break falls on the estimate.
func split(text string, measured, rowWidth float64) (string, string) {
	runes := []rune(text)
	rows := measured / rowWidth
	estimate := int(float64(len(runes)) / rows)
	if estimate >= len(runes) {
		estimate = len(runes) - 1
	}
	if estimate < 0 {
		estimate = 0
	}

	end := -1
	for i := estimate; i >= 0; i-- {
		if isWordEnd(runes, i) {
			end = i + 1
			break
		}
	}
	if end < 0 {
		end = max(estimate, 1)
	}

	row := string(runes[:end])
	rest := strings.TrimLeftFunc(string(runes[end:]), unicode.IsSpace)
	return row, rest
}

func isWordEnd(runes []rune, i int) bool {
	if unicode.IsSpace(runes[i]) {
		return false
	}
	return i == len(runes)-1 || unicode.IsSpace(runes[i+1])
}

// run emits one text command, preceded by its strike and underline lines
func (e *Engine) run(text string, at command.Point, st style, width float64, alignment command.Alignment) command.Command {
	name, multiplier := e.deviceFont(st.font)
	textCommand := e.Generator.Text(text, at, name, multiplier, alignment)
	if st.decoration == 0 {
		return textCommand
	}

	size := st.font.Size
	thickness := 0.1 * size
	var commands []command.Command
	if st.decoration.Has(Strike) {
		y := at.Y + 0.5*size
		commands = append(commands, e.Generator.Line(command.Pt(at.X, y), command.Pt(at.X+width, y), thickness))
	}
	if st.decoration.Has(Underline) {
		y := at.Y + 0.9*size
		commands = append(commands, e.Generator.Line(command.Pt(at.X, y), command.Pt(at.X+width, y), thickness))
	}
	commands = append(commands, textCommand)
	return e.Generator.Group(commands...)
}

// deviceFont returns the font name the printer knows and the size
// multiplier for it. The built-in font and plain device fonts scale by 1,
// uploaded TrueType fonts take their size in points.
func (e *Engine) deviceFont(font fonts.Option) (string, float64) {
	if font.IsDefault() {
		return fonts.DefaultName, 1
	}
	points := float64(units.DotToPoint(font.Size, e.dpi()))
	if entry := e.registry().Resolve(font); entry != nil {
		return entry.Alias, points
	}
	if strings.HasSuffix(strings.ToUpper(font.Name), ".TTF") {
		return font.Name, points
	}
	return font.Name, 1
}

func (e *Engine) measure(text string, font fonts.Option) float64 {
	if e.Measure != nil {
		return e.Measure(text, font)
	}
	return MeasureWith(e.registry(), e.dpi())(text, font)
}

// MeasureWith measures text with the registered face for the font. Fonts
// that are not registered are assumed to have square glyphs of the font size.
func MeasureWith(registry *fonts.Registry, dpi int) MeasureFunc {
	return func(text string, font fonts.Option) float64 {
		if entry := registry.Resolve(font); entry != nil && entry.Face != nil {
			points := float64(units.DotToPoint(font.Size, dpi))
			return units.PointsToDots(entry.Face.Measure(text, points), dpi)
		}
		return float64(utf8.RuneCountInString(text)) * font.Size
	}
}

func (e *Engine) dpi() int {
	if e.DPI <= 0 {
		return DefaultDPI
	}
	return e.DPI
}

func (e *Engine) registry() *fonts.Registry {
	if e.Fonts == nil {
		return emptyRegistry
	}
	return e.Fonts
}

// DefaultDPI is the resolution assumed when none is configured
const DefaultDPI = 203

var emptyRegistry = fonts.NewRegistry(fonts.OpenType{})
