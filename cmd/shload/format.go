package main

import (
	"fmt"
	"io"
	"strings"
)

// registerNames is the order of registers in a g reply.
var registerNames = []string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
	"PC", "PR", "GBR", "VBR", "MACH", "MACL", "SR",
}

// printRegisters prints a register dump four to a line. A reply of
// unexpected length is printed as received.
func printRegisters(w io.Writer, regs string) {
	if len(regs) == 0 || len(regs)%8 != 0 || len(regs)/8 > len(registerNames) {
		fmt.Fprintf(w, "Board replied with %s to regdump command\n", regs)
		return
	}

	for i := 0; i < len(regs)/8; i++ {
		fmt.Fprintf(w, "%-4s %s", registerNames[i], regs[i*8:i*8+8])
		if i%4 == 3 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "  ")
		}
	}
	if (len(regs)/8)%4 != 0 {
		fmt.Fprintln(w)
	}
}

// printDump prints data as a hex dump with board addresses, 16 bytes per
// line.
func printDump(w io.Writer, addr uint32, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		var hexPart, text strings.Builder
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&hexPart, "%02x ", line[i])
			} else {
				hexPart.WriteString("   ")
			}
			if i == 7 {
				hexPart.WriteByte(' ')
			}
		}
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				text.WriteByte(b)
			} else {
				text.WriteByte('.')
			}
		}

		fmt.Fprintf(w, "%08x  %s |%s|\n", addr+uint32(off), hexPart.String(), text.String())
	}
}
