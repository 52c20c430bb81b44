package adapter

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUSBOrSkip(t *testing.T) *USBAdapter {
	t.Helper()
	a, err := NewUSBAdapterAuto()
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewUSBAdapterAuto(t *testing.T) {
	a := newUSBOrSkip(t)

	assert.NotNil(t, a.ctx)
	assert.NotNil(t, a.device)
	assert.Equal(t, DefaultReadTimeout, a.readTimeout)
}

func TestNewUSBAdapterFallsBackToAnyPrinter(t *testing.T) {
	a, err := NewUSBAdapter(0xFFFF, 0xFFFF)
	if err != nil {
		assert.ErrorIs(t, err, ErrNoPrinter)
		return
	}
	defer a.Close()
	assert.True(t, IsPrinter(a.GetDevice()))
}

func TestNewUSBAdapterUnknownSerial(t *testing.T) {
	_, err := NewUSBAdapterWithLogger(USBOptions{Serial: "INVALID_SERIAL_NUMBER"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoPrinter)
}

func TestFindPrinters(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	printers := FindPrinters(ctx, zap.NewNop())
	assert.NotNil(t, printers)

	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}
	for _, printer := range printers {
		assert.True(t, IsPrinter(printer))
		printer.Close()
	}
}

func TestIsPrinter(t *testing.T) {
	assert.False(t, IsPrinter(nil))
}

func TestPrinterInterface(t *testing.T) {
	desc := gousb.ConfigDesc{
		Interfaces: []gousb.InterfaceDesc{
			{Number: 0, AltSettings: []gousb.InterfaceSetting{{Class: IfaceClassHID}}},
			{Number: 1, AltSettings: []gousb.InterfaceSetting{{Class: IfaceClassAudio}, {Class: IfaceClassPrinter}}},
		},
	}
	number, ok := printerInterface(desc)
	assert.True(t, ok)
	assert.Equal(t, 1, number)

	_, ok = printerInterface(gousb.ConfigDesc{})
	assert.False(t, ok)
}

func TestUSBAdapterOpenClose(t *testing.T) {
	a := newUSBOrSkip(t)
	assert.False(t, a.IsOpen())

	require.NoError(t, a.Open())
	assert.True(t, a.IsOpen())
	assert.ErrorIs(t, a.Open(), ErrAlreadyOpen)

	require.NoError(t, a.Close())
	assert.False(t, a.IsOpen())
	assert.NoError(t, a.Close())
}

func TestUSBAdapterWriteRead(t *testing.T) {
	a := newUSBOrSkip(t)

	_, err := a.Write([]byte("~!I\n"))
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = a.Read(make([]byte, 64))
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, a.Open())

	n, err := a.Write([]byte("~!I\n"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	// printers without an IN endpoint or without an answer fail here
	_, _ = a.Read(make([]byte, 64))
}

func TestUSBAdapterEventListeners(t *testing.T) {
	a := newUSBOrSkip(t)

	var connected, closed, data atomic.Bool
	a.On(EventConnect, func(e Event) { connected.Store(e.Device != "") })
	a.On(EventClose, func(Event) { closed.Store(true) })
	a.On(EventData, func(e Event) { data.Store(len(e.Data) > 0) })

	require.NoError(t, a.Open())
	_, err := a.Write([]byte("CLS\n"))
	assert.NoError(t, err)
	require.NoError(t, a.Close())

	assert.Eventually(t, func() bool {
		return connected.Load() && closed.Load() && data.Load()
	}, time.Second, 10*time.Millisecond, "All events should have been triggered")
}

func TestGetDeviceByVIDPID(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	_, err := GetDeviceByVIDPID(ctx, 0xFFFF, 0xFFFF)
	assert.Error(t, err)
}

func TestGetDeviceBySerial(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	_, err := GetDeviceBySerial(ctx, "INVALID_SERIAL_NUMBER")
	assert.ErrorIs(t, err, ErrNoPrinter)
	assert.Contains(t, err.Error(), "not found")
}
