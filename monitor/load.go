package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/srec"
)

// LoadResult summarizes a load.
type LoadResult struct {
	// Chunks is the number of memory-write commands sent
	Chunks int

	// Bytes is the payload sent
	Bytes int

	// SendFailures counts chunks skipped because they could not be sent.
	// Always 0 unless LoadPolicy.AbortOnSendFailure is false.
	SendFailures int

	// ReceiveFailures counts chunks whose reply was lost or an error reply
	ReceiveFailures int

	// Start is the first load address
	Start uint32

	// End is the address following the last chunk
	End uint32

	// Elapsed is the time spent loading
	Elapsed time.Duration
}

// Load writes every record of src to the board with memory-write commands.
// Records are placed back to back from start, regardless of the addresses
// written in the records; records longer than ChunkSize are split.
//
// A record the source cannot decode stops the load. Send and receive
// failures are handled according to the configured LoadPolicy; a fatal one
// returns a *LoadAbortedError and nothing more is written to the link.
// The returned result is valid even when err is non-nil.
//
// Example:
//
//	f, _ := srec.Open("kernel.srec")
//	defer f.Close()
//	res, err := sess.Load(ctx, f, 0x8c010000)
func (s *Session) Load(ctx context.Context, src srec.Source, start uint32) (*LoadResult, error) {
	return s.load(ctx, src, start, 0)
}

// LoadRecords is Load over records in memory. Progress reports carry the
// total size and a percentage.
func (s *Session) LoadRecords(ctx context.Context, records []srec.Record, start uint32) (*LoadResult, error) {
	total := 0
	for _, r := range records {
		total += r.Len()
	}
	return s.load(ctx, srec.NewSliceSource(records), start, total)
}

func (s *Session) load(ctx context.Context, src srec.Source, start uint32, total int) (*LoadResult, error) {
	startTime := time.Now()
	policy := s.config.LoadPolicy

	res := &LoadResult{Start: start, End: start}
	index := 0

	finish := func() {
		res.Elapsed = time.Since(startTime)
	}

	for {
		if err := ctx.Err(); err != nil {
			finish()
			return res, fmt.Errorf("cancelled: %w", err)
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			finish()
			return res, fmt.Errorf("read image: %w", err)
		}

		data := rec.Data
		for len(data) > 0 {
			n := len(data)
			if n > s.config.ChunkSize {
				n = s.config.ChunkSize
			}
			chunk := data[:n]
			data = data[n:]

			cmd, err := protocol.MemoryWrite(res.End, chunk)
			if err != nil {
				finish()
				return res, err
			}

			if err := s.Send(ctx, cmd); err != nil {
				if policy.AbortOnSendFailure || ctx.Err() != nil {
					s.logError("load aborted", "chunk", index, "address", fmt.Sprintf("0x%x", res.End), "error", err)
					finish()
					return res, &LoadAbortedError{Chunk: index, Address: res.End, Err: err}
				}
				s.logError("chunk not sent", "chunk", index, "address", fmt.Sprintf("0x%x", res.End), "error", err)
				res.SendFailures++
				res.End += uint32(n)
				index++
				continue
			}

			if err := s.checkWriteReply(ctx); err != nil {
				if policy.AbortOnReceiveFailure || ctx.Err() != nil {
					s.logError("load aborted", "chunk", index, "address", fmt.Sprintf("0x%x", res.End), "error", err)
					finish()
					return res, &LoadAbortedError{Chunk: index, Address: res.End, Err: err}
				}
				s.logError("error while transmitting chunk", "chunk", index, "error", err)
				res.ReceiveFailures++
			}

			res.Chunks++
			res.Bytes += n
			res.End += uint32(n)
			index++

			progress := Progress{
				Phase:        PhaseLoading,
				Chunk:        res.Chunks,
				Address:      res.End,
				BytesWritten: res.Bytes,
				TotalBytes:   total,
				ElapsedTime:  time.Since(startTime),
			}
			if total > 0 {
				progress.Percentage = float64(res.Bytes) / float64(total) * 100
			}
			s.reportProgress(progress)
		}
	}

	finish()
	s.reportProgress(Progress{
		Phase:        PhaseComplete,
		Chunk:        res.Chunks,
		Address:      res.End,
		BytesWritten: res.Bytes,
		TotalBytes:   total,
		Percentage:   100,
		ElapsedTime:  res.Elapsed,
	})

	s.logInfo("load complete",
		"chunks", res.Chunks,
		"bytes", res.Bytes,
		"receive_failures", res.ReceiveFailures,
		"elapsed", res.Elapsed.String(),
	)

	return res, nil
}

// checkWriteReply reads the reply to a memory-write command.
func (s *Session) checkWriteReply(ctx context.Context) error {
	resp, err := s.Receive(ctx)
	if err != nil {
		return err
	}

	reply := resp.Reply()
	if reply.Kind == protocol.ReplyError {
		return &protocol.ProtocolError{Operation: "write memory", Code: reply.Code}
	}
	return nil
}
