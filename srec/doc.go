// Package srec decodes Motorola S-record firmware images into the payload
// chunks that the SH Advanced Monitor loads with memory-write commands.
//
// # Decoding Rules
//
// The decoder is lazy and line oriented:
//
//   - Leading lines are skipped until one whose record type is at least 1
//     (the S0 header and any preamble are ignored).
//   - Each following S1, S2, S3 or S4 line yields one Record. The payload
//     starts 6+2*type characters into the line and runs up to the trailing
//     checksum pair, which is stripped and not verified.
//   - An S5 count record, any other record type, or a line that does not
//     start with 'S' ends the sequence.
//
// A line too short to hold its payload offset and checksum, or a payload
// containing non-hex characters, fails with a MalformedRecordError instead
// of being loaded.
//
// # Basic Usage
//
//	f, err := srec.Open("kernel.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	for {
//	    rec, err := f.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("%d bytes: %s\n", rec.Len(), rec.Hex())
//	}
//
// # Other Sources
//
// FromIntelHex turns an Intel HEX image into records of a fixed size, and
// Encoder writes records back out as S3 lines, which is how the shload
// convert command produces images the monitor can load.
package srec
