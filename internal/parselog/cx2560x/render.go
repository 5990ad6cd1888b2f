package cx2560x

import (
	"fmt"
	"io"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
)

// Render writes the register header and one line per bitfield. Columns are
// padded, not tabbed, so ANSI color codes do not disturb alignment.
func (d *Decoded) Render(w io.Writer, color bool) error {
	header := fmt.Sprintf("Register 0x%02X = 0x%02X (0b%08b)", d.Register, d.Value, d.Value)
	if color {
		header = ansiBold + header + ansiReset
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	nameWidth, bitsWidth := 0, 0
	for _, f := range d.Fields {
		if len(f.Name) > nameWidth {
			nameWidth = len(f.Name)
		}
		if len(f.Bits) > bitsWidth {
			bitsWidth = len(f.Bits)
		}
	}

	for _, f := range d.Fields {
		name := fmt.Sprintf("%-*s", nameWidth, f.Name)
		if color {
			name = ansiCyan + name + ansiReset
		}
		_, err := fmt.Fprintf(w, "  %s  %-*s  %2d  %s\n", name, bitsWidth, f.Bits, f.Value, f.Description)
		if err != nil {
			return err
		}
	}
	return nil
}
