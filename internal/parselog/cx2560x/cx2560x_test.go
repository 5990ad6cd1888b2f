package cx2560x

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/wangguanran/Tools/internal/errors"
)

func TestDetect(t *testing.T) {
	t.Run("driver present", func(t *testing.T) {
		log := strings.Join([]string{
			"<6>[    0.840282] sprd-adi 64000000.spi: spi probe ok",
			"<6>[    1.204817] cx2560x_init: cx2560x driver init successfully!",
			"<6>[    1.204901] usb_phy probe",
		}, "\n")
		assert.True(t, Detect(strings.NewReader(log)))
	})

	t.Run("driver absent", func(t *testing.T) {
		log := "<6>[    0.840282] some other charger: bq2560x_init done"
		assert.False(t, Detect(strings.NewReader(log)))
	})

	t.Run("empty stream", func(t *testing.T) {
		assert.False(t, Detect(strings.NewReader("")))
	})
}

func TestParseDump(t *testing.T) {
	t.Run("kernel dump line", func(t *testing.T) {
		line := "<6>[  123.456789] cx2560x_dump_regs: [REG_0x00]=0x17 [REG_0x01]=0x1A [REG_0x08]=0x54"

		got := ParseDump(line)
		require.Len(t, got, 3)

		assert.Equal(t, Match{Register: 0x00, Value: 0x17, Raw: "[REG_0x00]=0x17"}, got[0])
		assert.Equal(t, Match{Register: 0x01, Value: 0x1A, Raw: "[REG_0x01]=0x1A"}, got[1])
		assert.Equal(t, Match{Register: 0x08, Value: 0x54, Raw: "[REG_0x08]=0x54"}, got[2])
	})

	t.Run("hand-typed without brackets", func(t *testing.T) {
		got := ParseDump("REG_0x0B=0x2A")
		require.Len(t, got, 1)
		assert.Equal(t, uint8(0x0B), got[0].Register)
		assert.Equal(t, uint8(0x2A), got[0].Value)
		assert.Equal(t, "REG_0x0B=0x2A", got[0].Raw)
	})

	t.Run("lowercase hex", func(t *testing.T) {
		got := ParseDump("[REG_0x0a]=0xff")
		require.Len(t, got, 1)
		assert.Equal(t, uint8(0x0A), got[0].Register)
		assert.Equal(t, uint8(0xFF), got[0].Value)
	})

	t.Run("no assignments", func(t *testing.T) {
		assert.Empty(t, ParseDump("charging current changed to 1170mA"))
	})
}

func TestDecodeUnknownRegister(t *testing.T) {
	_, err := Decode(0x0F, 0x00)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeBadRegister))
	assert.Contains(t, err.Error(), "register 0x0F is not documented")
}

func TestDecodeCoversAllRegisters(t *testing.T) {
	for reg := uint8(0); reg <= MaxRegister; reg++ {
		d, err := Decode(reg, 0x00)
		require.NoError(t, err, "register 0x%02X", reg)
		assert.Equal(t, reg, d.Register)
		assert.NotEmpty(t, d.Fields, "register 0x%02X", reg)
	}
}

func fieldByName(t *testing.T, d *Decoded, name string) Field {
	t.Helper()
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not present in register 0x%02X", name, d.Register)
	return Field{}
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name     string
		register uint8
		value    uint8
		field    string
		want     uint8
		wantDesc string
	}{
		{"hiz enabled", 0x00, 0x97, "EN_HIZ", 1, "Enable"},
		{"input current limit", 0x00, 0x97, "IINDPM", 23, "Input Current Limit: 2400mA"},

		{"otg enabled", 0x01, 0x20, "OTG_CONFIG", 1, "OTG Enable"},
		{"system minimum voltage", 0x01, 0x05, "SYS_MIN", 5, "Minimum System Voltage: 3.5V"},
		{"system minimum voltage off table", 0x01, 0x09, "SYS_MIN", 9, "Minimum System Voltage: Unknown"},

		{"charge current top of 90mA scale", 0x02, 0x0D, "ICHG", 13, "Fast Charge Current: 1170.0mA"},
		{"charge current start of 57.5mA scale", 0x02, 0x0E, "ICHG", 14, "Fast Charge Current: 805.0mA"},
		{"charge current second step", 0x02, 0x0F, "ICHG", 15, "Fast Charge Current: 862.5mA"},
		{"boost limit default", 0x02, 0x80, "BOOST_LIM", 1, "1.2A (default)"},

		{"precharge current clamped", 0x03, 0xF2, "IPRECHG", 15, "Pre-charge Current: 676mA"},
		{"termination current", 0x03, 0xF2, "ITERM", 2, "Termination Current: 180mA"},
		{"termination current clamped", 0x03, 0x0F, "ITERM", 15, "Termination Current: 780mA"},

		{"charge voltage", 0x04, 0xB8, "VREG", 23, "Charge Voltage: 4.592V"},
		{"charge voltage clamped", 0x04, 0xF8, "VREG", 31, "Charge Voltage: 4.624V"},
		{"recharge threshold default", 0x04, 0x00, "VRECHG", 0, "4.3V (default)"},

		{"watchdog default", 0x05, 0x10, "WATCHDOG", 1, "40s (default)"},
		{"watchdog longest", 0x05, 0x30, "WATCHDOG", 3, "160s"},

		{"input ovp nine volt", 0x06, 0x96, "OVP", 2, "10.5V (9V input)"},
		{"boost voltage", 0x06, 0x96, "BOOSTV", 1, "Boost Voltage: 4.998V"},
		{"input voltage limit", 0x06, 0x96, "VINDPM", 6, "Input Voltage Limit: 4.5V"},

		{"vindpm tracking", 0x07, 0x02, "VDPM_TRACK", 2, "VBAT + 250mV"},

		{"vbus status cdp", 0x08, 0x54, "VBUS_STAT", 2, "USB CDP (1.5A)"},
		{"charge status fast", 0x08, 0x54, "CHRG_STAT", 2, "Fast Charge"},
		{"power good", 0x08, 0x54, "PG_STAT", 1, "Power Good"},
		{"vbus status off table", 0x08, 0x80, "VBUS_STAT", 4, "Unknown"},

		{"watchdog fault", 0x09, 0xA8, "FAULT_WDT", 1, "Watchdog Timer Expiration"},
		{"charge fault", 0x09, 0xA8, "FAULT_CHRG", 1, "Charge Fault"},
		{"ntc fault", 0x09, 0xA8, "FAULT_NTC", 1, "NTC Fault"},
		{"battery healthy", 0x09, 0x00, "FAULT_BAT", 0, "Normal"},

		{"vbus good", 0x0A, 0x80, "VBUS_GD", 1, "VBUS Good"},

		{"part number", 0x0B, 0x2A, "PN", 5, "Part Number: 0x5"},
		{"device revision", 0x0B, 0x2A, "DEV_REV", 2, "Device Revision: 0x2"},

		{"boost thermal protection off", 0x0C, 0xB0, "BHOT", 3, "Disable boost mode thermal protection"},
		{"boost frequency", 0x0C, 0x80, "BOOST_FREQ", 1, "500kHz"},

		{"detected input limit", 0x0D, 0x3F, "IDPM_LIM", 63, "Input Current Limit: 3250mA"},

		{"fine charge voltage", 0x0E, 0x04, "VREG", 1, "Charge Voltage: 3.872V"},
		{"fine charge voltage clamped", 0x0E, 0xFC, "VREG", 63, "Charge Voltage: 4.624V"},
		{"fine tuning enabled", 0x0E, 0x02, "VREG_FT", 1, "VREG+8mV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(tt.register, tt.value)
			require.NoError(t, err)

			f := fieldByName(t, d, tt.field)
			assert.Equal(t, tt.want, f.Value)
			assert.Equal(t, tt.wantDesc, f.Description)
		})
	}
}

func TestRenderPlain(t *testing.T) {
	d, err := Decode(0x02, 0x0E)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf, false))

	want := "Register 0x02 = 0x0E (0b00001110)\n" +
		"  BOOST_LIM  7       0  0.5A\n" +
		"  Q1_FULLON  6       0  Use higher Q1 Rdson when IINDPM<700mA (default, better accuracy)\n" +
		"  ICHG       [5:0]  14  Fast Charge Current: 805.0mA\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderColor(t *testing.T) {
	d, err := Decode(0x08, 0x54)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf, true))

	out := buf.String()
	assert.Contains(t, out, ansiBold+"Register 0x08 = 0x54 (0b01010100)"+ansiReset)
	assert.Contains(t, out, ansiCyan)
	assert.Contains(t, out, "USB CDP (1.5A)")
}
