package adapter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

// USBOptions selects the printer a USBAdapter drives. Serial wins over
// VID/PID. With neither set the first printer-class device is used.
type USBOptions struct {
	VID         uint16
	PID         uint16
	Serial      string
	ReadTimeout time.Duration
}

// USBAdapter drives a label printer over the USB printer class
type USBAdapter struct {
	listeners

	ctx         *gousb.Context
	device      *gousb.Device
	config      *gousb.Config
	iface       *gousb.Interface
	outEndpoint *gousb.OutEndpoint
	inEndpoint  *gousb.InEndpoint
	readTimeout time.Duration
	logger      *zap.Logger
	isOpen      bool
	mu          sync.Mutex
}

// NewUSBAdapter creates an adapter for the printer with the given VID/PID,
// falling back to any connected printer
func NewUSBAdapter(vid, pid uint16) (*USBAdapter, error) {
	return NewUSBAdapterWithLogger(USBOptions{VID: vid, PID: pid}, zap.NewNop())
}

// NewUSBAdapterAuto creates adapter with auto-detection
func NewUSBAdapterAuto() (*USBAdapter, error) {
	return NewUSBAdapterWithLogger(USBOptions{}, zap.NewNop())
}

// NewUSBAdapterWithLogger creates an adapter for the printer selected by opts
func NewUSBAdapterWithLogger(opts USBOptions, logger *zap.Logger) (*USBAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	ctx := gousb.NewContext()
	device, err := selectDevice(ctx, opts, logger)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	a := &USBAdapter{
		ctx:         ctx,
		device:      device,
		readTimeout: opts.ReadTimeout,
		logger:      logger.With(zap.String("device", describeUSB(device))),
	}
	a.logger.Info("Selected USB printer")
	return a, nil
}

func selectDevice(ctx *gousb.Context, opts USBOptions, logger *zap.Logger) (*gousb.Device, error) {
	switch {
	case opts.Serial != "":
		return GetDeviceBySerial(ctx, opts.Serial)
	case opts.VID != 0 || opts.PID != 0:
		device, err := GetDeviceByVIDPID(ctx, opts.VID, opts.PID)
		if err == nil {
			return device, nil
		}
		logger.Warn("Printer not found by VID/PID, trying any printer",
			zap.String("vid", gousb.ID(opts.VID).String()),
			zap.String("pid", gousb.ID(opts.PID).String()),
			zap.Error(err))
	}

	printers := FindPrinters(ctx, logger)
	if len(printers) == 0 {
		return nil, ErrNoPrinter
	}
	for _, extra := range printers[1:] {
		extra.Close()
	}
	return printers[0], nil
}

// IsPrinter checks if a device exposes a printer-class interface
func IsPrinter(dev *gousb.Device) bool {
	if dev == nil {
		return false
	}

	cfg, err := dev.ActiveConfigNum()
	if err != nil {
		return false
	}

	cfgDesc, ok := dev.Desc.Configs[cfg]
	if !ok {
		return false
	}
	_, ok = printerInterface(cfgDesc)
	return ok
}

func printerInterface(desc gousb.ConfigDesc) (int, bool) {
	for _, iface := range desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number, true
			}
		}
	}
	return 0, false
}

// FindPrinters opens every connected printer-class device. Devices that are
// not printers are closed again.
func FindPrinters(ctx *gousb.Context, logger *zap.Logger) []*gousb.Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	printers := []*gousb.Device{}

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil {
		// OpenDevices still returns the devices it could open
		logger.Debug("Some USB devices could not be opened", zap.Error(err))
	}

	for _, dev := range devices {
		if IsPrinter(dev) {
			logger.Debug("Found printer", zap.String("device", describeUSB(dev)))
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

// GetDeviceByVIDPID opens a device by VID and PID
func GetDeviceByVIDPID(ctx *gousb.Context, vid, pid uint16) (*gousb.Device, error) {
	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, fmt.Errorf("open %s:%s: %w", gousb.ID(vid), gousb.ID(pid), err)
	}
	if device == nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrNoPrinter, gousb.ID(vid), gousb.ID(pid))
	}
	return device, nil
}

// GetDeviceBySerial opens a device by serial number
func GetDeviceBySerial(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devices, _ := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})

	var found *gousb.Device
	for _, dev := range devices {
		if found == nil {
			if s, err := dev.SerialNumber(); err == nil && s == serial {
				found = dev
				continue
			}
		}
		dev.Close()
	}

	if found == nil {
		return nil, fmt.Errorf("%w: serial number %q not found", ErrNoPrinter, serial)
	}
	return found, nil
}

// Open claims the printer interface and its bulk endpoints
func (a *USBAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}
	if a.device == nil {
		return ErrNoPrinter
	}

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		if err := a.device.SetAutoDetach(true); err != nil {
			a.logger.Debug("Kernel driver auto-detach unavailable", zap.Error(err))
		}
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	cfg, err := a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	ifaceNum, ok := printerInterface(cfg.Desc)
	if !ok {
		cfg.Close()
		return errors.New("no printer interface found")
	}

	iface, err := cfg.Interface(ifaceNum, 0)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	var out *gousb.OutEndpoint
	var in *gousb.InEndpoint
	for _, epDesc := range iface.Setting.Endpoints {
		switch {
		case epDesc.Direction == gousb.EndpointDirectionOut && out == nil:
			if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
				out = ep
			}
		case epDesc.Direction == gousb.EndpointDirectionIn && in == nil:
			if ep, err := iface.InEndpoint(epDesc.Number); err == nil {
				in = ep
			}
		}
	}

	if out == nil {
		iface.Close()
		cfg.Close()
		return errors.New("cannot find output endpoint from printer")
	}

	a.config, a.iface, a.outEndpoint, a.inEndpoint = cfg, iface, out, in
	a.isOpen = true
	a.logger.Info("Opened USB printer", zap.Bool("bidirectional", in != nil))
	a.emit(Event{Type: EventConnect, Device: describeUSB(a.device)})

	return nil
}

// Write sends data to the printer
func (a *USBAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	a.emit(Event{Type: EventData, Device: describeUSB(a.device), Data: data})

	n, err := a.outEndpoint.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	a.logger.Debug("Wrote to printer", zap.Int("bytes", n))

	return n, nil
}

// Read reads the printer's answer, giving up after the read timeout
func (a *USBAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}
	if a.inEndpoint == nil {
		return 0, errors.New("input endpoint not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.readTimeout)
	defer cancel()

	n, err := a.inEndpoint.ReadContext(ctx, buf)
	if err != nil {
		return n, fmt.Errorf("read failed: %w", err)
	}
	a.logger.Debug("Read from printer", zap.Int("bytes", n))

	return n, nil
}

// Close releases the interface, the device and the USB context
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	var errs []error

	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
	}
	if a.config != nil {
		if err := a.config.Close(); err != nil {
			errs = append(errs, err)
		}
		a.config = nil
	}
	a.outEndpoint, a.inEndpoint = nil, nil

	device := describeUSB(a.device)
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	a.isOpen = false
	a.logger.Info("Closed USB printer")
	a.emit(Event{Type: EventClose, Device: device})

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}

	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// GetDevice returns the underlying USB device
func (a *USBAdapter) GetDevice() *gousb.Device {
	return a.device
}

func describeUSB(dev *gousb.Device) string {
	if dev == nil || dev.Desc == nil {
		return "usb"
	}
	return fmt.Sprintf("usb %03d:%03d %s:%s", dev.Desc.Bus, dev.Desc.Address, dev.Desc.Vendor, dev.Desc.Product)
}
