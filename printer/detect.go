package printer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/labelprint/adapter"
	"github.com/nixxel-company-limited/labelprint/command"

	// registers the TSPL generator
	_ "github.com/nixxel-company-limited/labelprint/tspl"
)

// identifyAnswerSize is how much of the identification answer is read
const identifyAnswerSize = 64

// Detect probes a with the identification command of every known language
// and returns a printer for the first one that answers. The adapter is
// opened when needed and left open.
func Detect(ctx context.Context, a adapter.Adapter, logger *zap.Logger) (*Printer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !a.IsOpen() {
		if err := a.Open(); err != nil {
			return nil, fmt.Errorf("failed to open adapter: %w", err)
		}
	}

	for _, language := range command.Languages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := probe(a, language)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", language, err)
		}
		if !ok {
			logger.Debug("Printer did not answer probe", zap.String("language", string(language)))
			continue
		}

		logger.Info("Detected printer language", zap.String("language", string(language)))
		return NewWithLogger(a, language, logger)
	}

	return nil, ErrUnsupportedLanguage
}

// probe writes the identification command and reports whether the printer
// answered. Silence or a failed read means another language.
func probe(a adapter.Adapter, language command.Language) (bool, error) {
	generator, err := command.GeneratorFor(language)
	if err != nil {
		return false, err
	}
	if err := command.Write(a, generator.Identify()); err != nil {
		return false, err
	}

	buf := make([]byte, identifyAnswerSize)
	n, err := a.Read(buf)
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// DetectAll detects every adapter and keeps the ones with a known language.
// Adapters that do not match are closed.
func DetectAll(ctx context.Context, adapters []adapter.Adapter, logger *zap.Logger) []*Printer {
	if logger == nil {
		logger = zap.NewNop()
	}

	printers := []*Printer{}
	for _, a := range adapters {
		p, err := Detect(ctx, a, logger)
		if err != nil {
			logger.Warn("Skipping printer", zap.Error(err))
			if a.IsOpen() {
				_ = a.Close()
			}
			continue
		}
		printers = append(printers, p)
	}
	return printers
}
