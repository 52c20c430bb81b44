package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nixxel-company-limited/labelprint/bitmap"
)

// ErrUnknownLanguage is returned when no generator is registered for a language
var ErrUnknownLanguage = errors.New("unknown printer language")

// Language identifies a printer command language
type Language string

// LanguageTSPL is the TSC printer language
const LanguageTSPL Language = "tspl"

// Generator maps label operations onto commands of one printer language
type Generator interface {
	// Group combines commands into one, written in order
	Group(commands ...Command) Command
	// Print prints the image buffer sets times, copiesPerSet copies each
	Print(sets, copiesPerSet int) Command
	// Text places a single run of text. size is the font multiplier
	// understood by the device font.
	Text(content string, at Point, font string, size float64, alignment Alignment) Command
	// Upload stores a file such as a font in printer memory
	Upload(name string, data []byte) Command
	// Line draws a straight line between two points
	Line(start, end Point, thickness float64) Command
	// Bar draws a filled rectangle
	Bar(at Point, width, height float64) Command
	// Image draws a 1-bit bitmap
	Image(image *bitmap.Bitmap, at Point, mode GraphicMode) Command
	// QRCode draws a QR code that fits in width dots
	QRCode(content string, width float64, at Point, opts QROptions) (Command, error)
	// BarCode draws a one dimensional barcode
	BarCode(content string, at Point, opts BarcodeOptions) Command
	// Display shows the image buffer on the printer screen instead of printing
	Display() Command
	// SetUp configures label geometry and clears the image buffer
	SetUp(setup Setup) Command
	// FeedLabel advances the media by one label
	FeedLabel() Command
	// Identify asks the printer to report itself. Any answer means the
	// printer speaks this language.
	Identify() Command
}

var (
	generatorsMu sync.RWMutex
	generators   = make(map[Language]Generator)
)

// Register makes a generator available for a language. Registering the same
// language twice replaces the previous generator.
func Register(language Language, generator Generator) {
	generatorsMu.Lock()
	defer generatorsMu.Unlock()
	generators[language] = generator
}

// GeneratorFor returns the generator registered for a language
func GeneratorFor(language Language) (Generator, error) {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	g, ok := generators[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}
	return g, nil
}

// Languages lists the registered languages in a stable order
func Languages() []Language {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	out := make([]Language, 0, len(generators))
	for language := range generators {
		out = append(out, language)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
