package printer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nixxel-company-limited/labelprint/adapter"
	"github.com/nixxel-company-limited/labelprint/command"
	"github.com/nixxel-company-limited/labelprint/fonts"
	"github.com/nixxel-company-limited/labelprint/label"
	"github.com/nixxel-company-limited/labelprint/units"
)

var errBroken = errors.New("broken pipe")

// MockAdapter is a mock implementation of the Adapter interface for testing
type MockAdapter struct {
	open       bool
	openCalls  int
	openErr    error
	writes     [][]byte
	failWrite  int // 1-based index of the write that fails, 0 for never
	shortWrite bool
	answer     []byte
	readErr    error
}

func (m *MockAdapter) Open() error {
	m.openCalls++
	if m.openErr != nil {
		return m.openErr
	}
	m.open = true
	return nil
}

func (m *MockAdapter) Write(data []byte) (int, error) {
	if m.failWrite > 0 && len(m.writes)+1 == m.failWrite {
		return 0, errBroken
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	if m.shortWrite {
		return len(data) / 2, nil
	}
	return len(data), nil
}

func (m *MockAdapter) Read(buf []byte) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return copy(buf, m.answer), nil
}

func (m *MockAdapter) Close() error {
	m.open = false
	return nil
}

func (m *MockAdapter) IsOpen() bool {
	return m.open
}

func (m *MockAdapter) sent() string {
	var b strings.Builder
	for _, w := range m.writes {
		b.Write(w)
	}
	return b.String()
}

type fixedFace struct{}

func (fixedFace) Measure(text string, size float64) float64 {
	return float64(len([]rune(text))) * size
}

func newLabel(t *testing.T) *label.Label {
	t.Helper()
	l, err := label.NewWithLoader(40, 30, units.Metric, 203, fonts.LoaderFunc(func([]byte) (fonts.Face, error) {
		return fixedFace{}, nil
	}))
	require.NoError(t, err)
	return l
}

func newPrinter(t *testing.T, a *MockAdapter) *Printer {
	t.Helper()
	p, err := NewWithLogger(a, command.LanguageTSPL, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestNewRejectsUnknownLanguage(t *testing.T) {
	_, err := New(&MockAdapter{}, "zpl")
	assert.ErrorIs(t, err, command.ErrUnknownLanguage)
}

func TestPrinterAccessors(t *testing.T) {
	a := &MockAdapter{}
	p, err := New(a, command.LanguageTSPL)
	require.NoError(t, err)

	assert.Equal(t, command.LanguageTSPL, p.Language())
	assert.Equal(t, a, p.Adapter())
}

func TestPrintOpensAdapterAndWritesLabel(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	l := newLabel(t)
	l.Add(label.NewText("Hello", 5, 10))

	require.NoError(t, p.Print(l, label.PrintOptions{CopiesPerSet: 2}))

	assert.True(t, a.IsOpen())
	assert.Equal(t, 1, a.openCalls)
	assert.Equal(t, "SIZE 40 mm, 30 mm\n"+
		"GAP 0 mm, 0 mm\n"+
		"DIRECTION 1, 0\n"+
		"CLS\n"+
		`TEXT 5,10,"default",0,1,1,1,"Hello"`+"\n"+
		"PRINT 1, 2\n", a.sent())
	assert.Len(t, a.writes, 6, "one write per text command")

	require.NoError(t, p.Print(l, label.PrintOptions{}))
	assert.Equal(t, 1, a.openCalls, "an open adapter is reused")
}

func TestPrintUploadsFontsOnce(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	l := newLabel(t)
	alias, err := l.RegisterFont("Sans", fonts.WeightNormal, fonts.StyleNormal, []byte{0xAA, 0xBB})
	require.NoError(t, err)

	require.NoError(t, p.Print(l, label.PrintOptions{}))
	assert.Equal(t, `DOWNLOAD "`+alias+`", 2,`, string(a.writes[0]))
	assert.Equal(t, []byte{0xAA, 0xBB}, a.writes[1])
	assert.Equal(t, "\n", string(a.writes[2]))
	assert.Empty(t, l.Fonts().Pending())

	a.writes = nil
	require.NoError(t, p.Print(l, label.PrintOptions{}))
	assert.Equal(t, "SIZE 40 mm, 30 mm\n", string(a.writes[0]))
}

func TestPrintFailureKeepsFontsPending(t *testing.T) {
	a := &MockAdapter{failWrite: 2}
	p := newPrinter(t, a)

	l := newLabel(t)
	_, err := l.RegisterFont("Sans", fonts.WeightNormal, fonts.StyleNormal, []byte{0x01})
	require.NoError(t, err)

	err = p.Print(l, label.PrintOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	assert.Len(t, a.writes, 1, "nothing is written after the failure")
	assert.Len(t, l.Fonts().Pending(), 1)
}

func TestPrintRejectsBeforeWriting(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	err := p.Print(newLabel(t), label.PrintOptions{Sets: -1})
	assert.ErrorIs(t, err, label.ErrInvalidGeometry)
	assert.Empty(t, a.writes)
	assert.Zero(t, a.openCalls)
}

func TestPrintOpenFailure(t *testing.T) {
	a := &MockAdapter{openErr: errBroken}
	p := newPrinter(t, a)

	err := p.Print(newLabel(t), label.PrintOptions{})
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, a.writes)
}

func TestDisplay(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	l := newLabel(t)
	_, err := l.RegisterFont("Sans", fonts.WeightNormal, fonts.StyleNormal, []byte{0x01})
	require.NoError(t, err)

	require.NoError(t, p.Display(l, command.DirectionNormal, true))
	assert.True(t, strings.HasSuffix(a.sent(), "GAP 0 mm, 0 mm\nDIRECTION 1, 1\nCLS\nDISPLAY CLS\nDISPLAY IMAGE\n"))
	assert.Empty(t, l.Fonts().Pending())
}

func TestFeedLabel(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	require.NoError(t, p.FeedLabel())
	assert.Equal(t, "FORMFEED\n", a.sent())
}

func TestWriteRaw(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	require.NoError(t, p.WriteRaw([]byte("CLS\nPRINT 1\n")))
	assert.Equal(t, [][]byte{[]byte("CLS\nPRINT 1\n")}, a.writes)

	short := &MockAdapter{shortWrite: true}
	err := newPrinter(t, short).WriteRaw([]byte("CLS\n"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestClose(t *testing.T) {
	a := &MockAdapter{}
	p := newPrinter(t, a)

	assert.NoError(t, p.Close())
	require.NoError(t, p.FeedLabel())
	assert.True(t, a.IsOpen())
	assert.NoError(t, p.Close())
	assert.False(t, a.IsOpen())
}

func TestDetect(t *testing.T) {
	testCases := []struct {
		name    string
		adapter *MockAdapter
		wantErr error
	}{
		{"answers", &MockAdapter{answer: []byte("TSC TE200\r\n")}, nil},
		{"silent", &MockAdapter{}, ErrUnsupportedLanguage},
		{"read timeout", &MockAdapter{readErr: errors.New("timeout")}, ErrUnsupportedLanguage},
		{"write fails", &MockAdapter{failWrite: 1}, errBroken},
		{"open fails", &MockAdapter{openErr: errBroken}, errBroken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Detect(context.Background(), tc.adapter, nil)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, command.LanguageTSPL, p.Language())
			assert.Equal(t, "~!I\n", tc.adapter.sent())
			assert.True(t, tc.adapter.IsOpen())
		})
	}
}

func TestDetectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Detect(ctx, &MockAdapter{answer: []byte("x")}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectAll(t *testing.T) {
	good := &MockAdapter{answer: []byte("TSC")}
	silent := &MockAdapter{}

	printers := DetectAll(context.Background(), []adapter.Adapter{good, silent}, zap.NewNop())
	require.Len(t, printers, 1)
	assert.Equal(t, good, printers[0].Adapter())
	assert.False(t, silent.IsOpen())

	assert.NotNil(t, DetectAll(context.Background(), nil, nil))
}
