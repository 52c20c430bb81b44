package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/labelprint/adapter"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/config"
	"github.com/nixxel-company-limited/labelprint/fonts"
	"github.com/nixxel-company-limited/labelprint/label"
	"github.com/nixxel-company-limited/labelprint/printer"
	"github.com/nixxel-company-limited/labelprint/server"
	"github.com/nixxel-company-limited/labelprint/units"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Print server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := openAdapter(cfg, logger)
	if err != nil {
		return err
	}
	defer device.Close()

	p, err := printer.Detect(ctx, device, logger)
	if errors.Is(err, printer.ErrUnsupportedLanguage) {
		// write-only printers never answer the probe
		logger.Warn("Printer did not identify itself, assuming TSPL")
		p, err = printer.NewWithLogger(device, command.LanguageTSPL, logger)
	}
	if err != nil {
		return fmt.Errorf("detect printer: %w", err)
	}

	if cfg.TestLabel {
		l, err := testLabel(cfg.DPI)
		if err != nil {
			return err
		}
		if err := p.Print(l, label.PrintOptions{}); err != nil {
			return fmt.Errorf("print test label: %w", err)
		}
	}

	svr := server.NewWithLogger(p, cfg.ServerAddress, logger)
	go func() {
		<-ctx.Done()
		if err := svr.Stop(); err != nil {
			logger.Warn("Error stopping server", zap.Error(err))
		}
	}()

	logger.Info("Server will listen", zap.String("address", cfg.ServerAddress))
	return svr.Start()
}

func openAdapter(cfg *config.Config, logger *zap.Logger) (adapter.Adapter, error) {
	switch cfg.Transport {
	case config.TransportTCP:
		return adapter.NewTCPAdapterWithLogger(cfg.PrinterAddress, cfg.ReadTimeout, logger), nil
	default:
		usb, err := adapter.NewUSBAdapterWithLogger(adapter.USBOptions{
			VID:         cfg.VID,
			PID:         cfg.PID,
			Serial:      cfg.Serial,
			ReadTimeout: cfg.ReadTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return usb, nil
	}
}

// testLabel is a 50 x 25 mm sample with formatted text, a rule and codes
func testLabel(dpi int) (*label.Label, error) {
	l, err := label.NewWithLoader(50, 25, units.Metric, dpi, nil)
	if err != nil {
		return nil, err
	}

	title := label.NewText("<b>labelprint</b> test <u>label</u>", 16, 16)
	if err := title.SetFont(fonts.DefaultName, 24); err != nil {
		return nil, err
	}

	body := label.NewText(fmt.Sprintf("Printed at %d dpi", dpi), 16, 48)
	if err := body.SetMultiLine(220, 48); err != nil {
		return nil, err
	}

	rule, err := label.NewLine(command.Pt(16, 104), command.Pt(240, 104), 2)
	if err != nil {
		return nil, err
	}
	qr, err := label.NewQRCode("https://github.com/nixxel-company-limited/labelprint", 260, 16, 120)
	if err != nil {
		return nil, err
	}
	barcode, err := label.NewBarCode("LABELPRINT", 16, 120, command.BarcodeCode128, 40)
	if err != nil {
		return nil, err
	}

	l.Add(title, body, rule, qr, barcode)
	return l, nil
}
