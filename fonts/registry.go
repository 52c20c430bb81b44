// Package fonts keeps the per-label font registry: which font files were
// registered under which family, weight and style, and under which alias they
// are known to the printer once uploaded.
package fonts

import (
	"errors"
	"fmt"
)

// DefaultName selects the printer's built-in font
const DefaultName = "default"

var (
	// ErrDuplicateFont is returned when a family already has the weight and style
	ErrDuplicateFont = errors.New("font already registered")
	// ErrInvalidFont is returned for unusable registration arguments
	ErrInvalidFont = errors.New("invalid font")
)

// Weight is a CSS-style font weight (100-900)
type Weight int

const (
	WeightNormal Weight = 400
	WeightBold   Weight = 700
)

// Style is the slant of a font face
type Style string

const (
	StyleNormal Style = "normal"
	StyleItalic Style = "italic"
)

// Option describes the font a piece of text asks for. Size is in dots.
// A zero Weight means normal, an empty Style means normal.
type Option struct {
	Name   string
	Size   float64
	Weight Weight
	Style  Style
}

// IsDefault reports whether the option uses the printer's built-in font
func (o Option) IsDefault() bool {
	return o.Name == DefaultName
}

func (o Option) weight() Weight {
	if o.Weight == 0 {
		return WeightNormal
	}
	return o.Weight
}

func (o Option) style() Style {
	if o.Style == "" {
		return StyleNormal
	}
	return o.Style
}

// Entry is one registered font file
type Entry struct {
	Family string
	Weight Weight
	Style  Style
	// Alias is the file name the font is uploaded under
	Alias string
	Data  []byte
	Face  Face

	uploaded bool
}

// Uploaded reports whether the font was already sent to the printer
func (e *Entry) Uploaded() bool {
	return e.uploaded
}

type key struct {
	weight Weight
	style  Style
}

// family keeps entries in registration order next to the key index
type family struct {
	entries []*Entry
	byKey   map[key]*Entry
}

// Registry maps family names to their registered faces. A Registry is owned
// by a single label and is not safe for concurrent mutation.
type Registry struct {
	loader   Loader
	families map[string]*family
	ordered  []*Entry
	counter  int
}

// NewRegistry creates an empty registry that shapes fonts with loader
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:   loader,
		families: make(map[string]*family),
	}
}

// Register adds a font file and returns the alias it will be uploaded as.
// Aliases are assigned from a monotonic counter and never change. An empty
// name uses the family name stored in the font file.
func (r *Registry) Register(name string, weight Weight, style Style, data []byte) (string, error) {
	if name == DefaultName {
		return "", fmt.Errorf("%w: family name %q is reserved", ErrInvalidFont, name)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: no font data for %q", ErrInvalidFont, name)
	}

	face, err := r.loader.Load(data)
	if err != nil {
		return "", fmt.Errorf("load font %q: %w", name, err)
	}
	if name == "" {
		name = FamilyName(face)
		if name == "" {
			return "", fmt.Errorf("%w: font has no family name", ErrInvalidFont)
		}
	}
	if weight == 0 {
		weight = WeightNormal
	}
	if style == "" {
		style = StyleNormal
	}

	k := key{weight: weight, style: style}
	fam, ok := r.families[name]
	if ok {
		if _, exists := fam.byKey[k]; exists {
			return "", fmt.Errorf("%w: %s %d %s", ErrDuplicateFont, name, weight, style)
		}
	} else {
		fam = &family{byKey: make(map[key]*Entry)}
		r.families[name] = fam
	}

	r.counter++
	entry := &Entry{
		Family: name,
		Weight: weight,
		Style:  style,
		Alias:  fmt.Sprintf("FONT%d.TTF", r.counter),
		Data:   data,
		Face:   face,
	}
	fam.entries = append(fam.entries, entry)
	fam.byKey[k] = entry
	r.ordered = append(r.ordered, entry)

	return entry.Alias, nil
}

// Resolve picks the entry for an option. It returns nil for the built-in
// font and for unknown families. Within a family it tries the exact weight
// and style, then the closest weight with the same style, then the first
// registered entry.
func (r *Registry) Resolve(opt Option) *Entry {
	if opt.IsDefault() {
		return nil
	}
	fam, ok := r.families[opt.Name]
	if !ok {
		return nil
	}

	weight, style := opt.weight(), opt.style()
	if entry, ok := fam.byKey[key{weight: weight, style: style}]; ok {
		return entry
	}

	var best *Entry
	bestDistance := 0
	for _, entry := range fam.entries {
		if entry.Style != style {
			continue
		}
		distance := abs(int(entry.Weight - weight))
		if best == nil || distance < bestDistance {
			best, bestDistance = entry, distance
		}
	}
	if best != nil {
		return best
	}

	return fam.entries[0]
}

// Has reports whether a family has at least one registered face
func (r *Registry) Has(name string) bool {
	_, ok := r.families[name]
	return ok
}

// Entries returns every registered font in registration order
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Pending returns the fonts that were not uploaded yet, in registration order
func (r *Registry) Pending() []*Entry {
	var out []*Entry
	for _, entry := range r.ordered {
		if !entry.uploaded {
			out = append(out, entry)
		}
	}
	return out
}

// MarkUploaded records that the given fonts reached the printer
func (r *Registry) MarkUploaded(entries ...*Entry) {
	for _, entry := range entries {
		entry.uploaded = true
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
