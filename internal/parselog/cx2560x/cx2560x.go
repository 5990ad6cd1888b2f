// Package cx2560x decodes CX2560X charger IC registers captured in Android
// kernel logs.
//
// The IC exposes fifteen I2C registers (0x00 through 0x0E). Kernel drivers
// periodically dump them as "[REG_0x00]=0x04" pairs; this package turns the
// raw bytes back into the datasheet bitfields.
package cx2560x

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	errs "github.com/wangguanran/Tools/internal/errors"
)

// initMarker is the driver probe line proving the board carries this IC.
const initMarker = "cx2560x_init"

// MaxRegister is the highest register the IC exposes.
const MaxRegister = 0x0E

// dumpPattern matches one register assignment in a dump line. Brackets are
// optional so hand-typed "REG_0x00=0x04" input works as well.
var dumpPattern = regexp.MustCompile(`\[?REG_0x([0-9a-fA-F]{2})\]?=0x([0-9a-fA-F]{2})`)

// Detect reports whether the log stream shows the CX2560X driver.
func Detect(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.Contains(sc.Text(), initMarker) {
			return true
		}
	}
	return false
}

// Match is one register assignment found in a dump line.
type Match struct {
	// Register is the register address
	Register uint8

	// Value is the raw register value
	Value uint8

	// Raw is the matched text
	Raw string
}

// ParseDump extracts every register assignment from one line.
func ParseDump(line string) []Match {
	var matches []Match
	for _, m := range dumpPattern.FindAllStringSubmatch(line, -1) {
		reg, regErr := strconv.ParseUint(m[1], 16, 8)
		val, valErr := strconv.ParseUint(m[2], 16, 8)
		if regErr != nil || valErr != nil {
			continue
		}
		matches = append(matches, Match{
			Register: uint8(reg),
			Value:    uint8(val),
			Raw:      m[0],
		})
	}
	return matches
}

// Field is one decoded bitfield of a register.
type Field struct {
	// Name is the datasheet field name
	Name string

	// Bits describes the field position, e.g. "7" or "[4:0]"
	Bits string

	// Value is the extracted field value
	Value uint8

	// Description is the datasheet meaning of the value
	Description string
}

// Decoded is a register value broken into datasheet bitfields.
type Decoded struct {
	Register uint8
	Value    uint8
	Fields   []Field
}

type decoder func(v uint8) []Field

var decoders = map[uint8]decoder{
	0x00: decode00,
	0x01: decode01,
	0x02: decode02,
	0x03: decode03,
	0x04: decode04,
	0x05: decode05,
	0x06: decode06,
	0x07: decode07,
	0x08: decode08,
	0x09: decode09,
	0x0A: decode0A,
	0x0B: decode0B,
	0x0C: decode0C,
	0x0D: decode0D,
	0x0E: decode0E,
}

// Decode breaks one register value into its bitfields.
func Decode(register, value uint8) (*Decoded, error) {
	dec, ok := decoders[register]
	if !ok {
		return nil, errs.Newf(errs.CodeBadRegister,
			"register 0x%02X is not documented (valid range 0x00-0x%02X)", register, MaxRegister)
	}
	return &Decoded{
		Register: register,
		Value:    value,
		Fields:   dec(value),
	}, nil
}
