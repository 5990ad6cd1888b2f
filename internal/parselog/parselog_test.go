package parselog

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/fsys"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestProcessor(t *testing.T, opts ...Option) (*Processor, *fsys.FS, *bytes.Buffer) {
	t.Helper()
	fs := fsys.NewInMemoryFS()
	console := &bytes.Buffer{}
	base := []Option{WithConsole(console), WithLogger(quietLogger())}
	return New(fs, "out", append(base, opts...)...), fs, console
}

func TestDecodeChargerDump(t *testing.T) {
	p, fs, console := newTestProcessor(t)

	log := strings.Join([]string{
		"<6>[    1.204817] cx2560x_init: cx2560x driver init successfully!",
		"<6>[   12.004500] cx2560x_dump_regs: [REG_0x00]=0x04 [REG_0x08]=0x54 [REG_0x0F]=0x00",
		"<6>[   12.104500] unrelated chatter",
	}, "\n")
	require.NoError(t, fs.MkdirAll("log", 0o755))
	require.NoError(t, fs.WriteFile("log/kmsg.log", []byte(log), 0o644))

	rep, err := p.DecodeChargerDump("log/kmsg.log")
	require.NoError(t, err)

	assert.True(t, rep.Detected)
	// REG_0x0F is past the documented range and must be skipped.
	assert.Equal(t, 2, rep.Registers)
	assert.Equal(t, "out/charger_registers.txt", rep.ReportPath)

	report, err := fs.ReadFile(rep.ReportPath)
	require.NoError(t, err)
	text := string(report)
	assert.Contains(t, text, "CX2560X register report")
	assert.Contains(t, text, "Source: log/kmsg.log")
	assert.Contains(t, text, "cx2560x_dump_regs")
	assert.Contains(t, text, "Register 0x00 = 0x04")
	assert.Contains(t, text, "Register 0x08 = 0x54")
	assert.Contains(t, text, "VBUS_STAT")
	assert.NotContains(t, text, "0x0F =")
	assert.NotContains(t, text, "\x1b[", "report file must stay plain text")

	assert.Contains(t, console.String(), "Register 0x00 = 0x04")
}

func TestDecodeChargerDumpDriverAbsent(t *testing.T) {
	p, fs, console := newTestProcessor(t)

	// Dump lines alone do not count without the driver init marker.
	log := "<6>[   12.0] other_charger: [REG_0x00]=0x04"
	require.NoError(t, fs.WriteFile("kmsg.log", []byte(log), 0o644))

	rep, err := p.DecodeChargerDump("kmsg.log")
	require.NoError(t, err)

	assert.False(t, rep.Detected)
	assert.Zero(t, rep.Registers)
	assert.Empty(t, rep.ReportPath)
	assert.Empty(t, console.String())

	exists, err := fs.Exists("out/charger_registers.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDecodeChargerDumpMissingFile(t *testing.T) {
	p, _, _ := newTestProcessor(t)

	_, err := p.DecodeChargerDump("no/such.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestDecodeInteractive(t *testing.T) {
	p, fs, console := newTestProcessor(t)

	in := strings.NewReader(strings.Join([]string{
		"REG_0x00=0x04",
		"garbage line",
		"REG_0x0F=0xFF",
		"q",
		"REG_0x01=0x1A",
	}, "\n"))

	rep, err := p.DecodeInteractive(in)
	require.NoError(t, err)

	assert.True(t, rep.Detected)
	assert.Equal(t, 1, rep.Registers, "only the documented register before q counts")
	assert.Equal(t, "out/charger_registers.txt", rep.ReportPath)

	out := console.String()
	assert.Contains(t, out, "q quits")
	assert.Contains(t, out, "no register values found")
	assert.Contains(t, out, "register 0x0F is not documented")
	assert.Contains(t, out, "Register 0x00 = 0x04")

	report, err := fs.ReadFile(rep.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "REG_0x00=0x04")
	assert.NotContains(t, string(report), "0x01", "input after q must not be read")
}

func TestDecodeInteractiveEOF(t *testing.T) {
	p, fs, _ := newTestProcessor(t)

	rep, err := p.DecodeInteractive(strings.NewReader(""))
	require.NoError(t, err)

	assert.False(t, rep.Detected)
	assert.Zero(t, rep.Registers)

	exists, err := fs.Exists(rep.ReportPath)
	require.NoError(t, err)
	assert.True(t, exists, "empty sessions still leave a report header")
}

func TestDecodeRegister(t *testing.T) {
	t.Run("bare hex", func(t *testing.T) {
		p, _, console := newTestProcessor(t)

		require.NoError(t, p.DecodeRegister("06", "a2"))
		assert.Contains(t, console.String(), "Register 0x06 = 0xA2")
	})

	t.Run("0x prefixed", func(t *testing.T) {
		p, _, console := newTestProcessor(t)

		require.NoError(t, p.DecodeRegister("0x08", "0x54"))
		assert.Contains(t, console.String(), "Register 0x08 = 0x54")
		assert.Contains(t, console.String(), "USB CDP (1.5A)")
	})

	t.Run("bad register text", func(t *testing.T) {
		p, _, _ := newTestProcessor(t)

		err := p.DecodeRegister("zz", "00")
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeInvalidInput))
		assert.Contains(t, err.Error(), `bad register "zz"`)
	})

	t.Run("bad value text", func(t *testing.T) {
		p, _, _ := newTestProcessor(t)

		err := p.DecodeRegister("00", "gg")
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeInvalidInput))
		assert.Contains(t, err.Error(), `bad value "gg"`)
	})

	t.Run("undocumented register", func(t *testing.T) {
		p, _, _ := newTestProcessor(t)

		err := p.DecodeRegister("0F", "00")
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.CodeBadRegister))
	})
}

func TestParseHexByte(t *testing.T) {
	tests := []struct {
		in      string
		want    uint8
		wantErr bool
	}{
		{"06", 0x06, false},
		{"0x06", 0x06, false},
		{"0XA2", 0xA2, false},
		{"  0e  ", 0x0E, false},
		{"1FF", 0, true},
		{"zz", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexByte(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
