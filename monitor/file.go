package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moffa90/go-shload/srec"
)

// IsIntelHex reports whether path names an Intel HEX image by its
// extension (.hex, .ihex or .ihx).
func IsIntelHex(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex", ".ihx":
		return true
	}
	return false
}

// LoadFile loads the image at path. S-record images are placed back to back
// from start. Intel HEX segments carry their own addresses and are each
// loaded there, so start is ignored for them.
func (s *Session) LoadFile(ctx context.Context, path string, start uint32) (*LoadResult, error) {
	if IsIntelHex(path) {
		img, err := srec.OpenIntelHex(path)
		if err != nil {
			return nil, err
		}
		return s.LoadImage(ctx, img)
	}

	f, err := srec.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	s.logInfo("loading image", "path", path, "address", fmt.Sprintf("0x%x", start))
	return s.Load(ctx, f, start)
}

// LoadImage loads every segment of img at its own address. The result
// spans all segments.
func (s *Session) LoadImage(ctx context.Context, img *srec.Image) (*LoadResult, error) {
	startTime := time.Now()
	total := &LoadResult{}

	for i, seg := range img.Segments {
		res, err := s.LoadRecords(ctx, seg.Records(s.config.ChunkSize), seg.Address)
		if i == 0 {
			total.Start = res.Start
		}
		total.Chunks += res.Chunks
		total.Bytes += res.Bytes
		total.SendFailures += res.SendFailures
		total.ReceiveFailures += res.ReceiveFailures
		total.End = res.End
		total.Elapsed = time.Since(startTime)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
