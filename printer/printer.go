package printer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/labelprint/adapter"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/label"
)

// ErrUnsupportedLanguage is returned when the printer answers none of the
// known identification probes
var ErrUnsupportedLanguage = errors.New("printer language not supported")

// Printer sends labels and raw jobs to one device. Writes are serialized so
// that jobs never interleave on the device.
type Printer struct {
	adapter   adapter.Adapter
	language  command.Language
	generator command.Generator
	logger    *zap.Logger
	mu        sync.Mutex
}

// New creates a printer speaking language over a
func New(a adapter.Adapter, language command.Language) (*Printer, error) {
	return NewWithLogger(a, language, zap.NewNop())
}

// NewWithLogger creates a printer with a custom logger
func NewWithLogger(a adapter.Adapter, language command.Language, logger *zap.Logger) (*Printer, error) {
	generator, err := command.GeneratorFor(language)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Printer{
		adapter:   a,
		language:  language,
		generator: generator,
		logger:    logger.With(zap.String("language", string(language))),
	}, nil
}

// Language returns the command language of the printer
func (p *Printer) Language() command.Language {
	return p.language
}

// Adapter returns the underlying transport
func (p *Printer) Adapter() adapter.Adapter {
	return p.adapter
}

// WriteCommand sends c, opening the adapter first when needed
func (p *Printer) WriteCommand(c command.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(c)
}

func (p *Printer) write(c command.Command) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if err := command.Write(p.adapter, c); err != nil {
		return fmt.Errorf("write to printer: %w", err)
	}
	return nil
}

func (p *Printer) ensureOpen() error {
	if p.adapter.IsOpen() {
		return nil
	}
	if err := p.adapter.Open(); err != nil {
		return fmt.Errorf("failed to open adapter: %w", err)
	}
	return nil
}

// Print prints l. Nothing is sent when the label cannot be turned into
// commands. Fonts uploaded by a successful print are not sent again.
func (p *Printer) Print(l *label.Label, opts label.PrintOptions) error {
	c, err := l.PrintCommand(p.language, opts)
	if err != nil {
		return fmt.Errorf("build print command: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending := len(l.Fonts().Pending())
	if err := p.write(c); err != nil {
		p.logger.Error("Print failed", zap.Error(err))
		return err
	}
	l.MarkFontsUploaded()
	p.logger.Info("Printed label",
		zap.Int("fields", len(l.Fields())),
		zap.Int("fonts", pending),
		zap.Int("sets", max(opts.Sets, 1)),
		zap.Int("copies", max(opts.CopiesPerSet, 1)))
	return nil
}

// Display shows l on the printer screen
func (p *Printer) Display(l *label.Label, direction command.Direction, mirror bool) error {
	c, err := l.DisplayCommand(p.language, direction, mirror)
	if err != nil {
		return fmt.Errorf("build display command: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.write(c); err != nil {
		p.logger.Error("Display failed", zap.Error(err))
		return err
	}
	l.MarkFontsUploaded()
	p.logger.Info("Displayed label", zap.Int("fields", len(l.Fields())))
	return nil
}

// FeedLabel advances the media by one label
func (p *Printer) FeedLabel() error {
	return p.WriteCommand(p.generator.FeedLabel())
}

// WriteRaw sends data exactly as given, as one job
func (p *Printer) WriteRaw(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureOpen(); err != nil {
		return err
	}
	n, err := p.adapter.Write(data)
	if err != nil {
		return fmt.Errorf("write to printer: %w", err)
	}
	if n < len(data) {
		return fmt.Errorf("write to printer: %w", io.ErrShortWrite)
	}
	p.logger.Debug("Wrote raw job", zap.Int("bytes", n))
	return nil
}

// Close closes the adapter
func (p *Printer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.adapter.IsOpen() {
		return nil
	}
	return p.adapter.Close()
}
