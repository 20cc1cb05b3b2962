// Package monitor drives the SH Advanced Monitor, the GDB-style ROM monitor
// on Hitachi SuperH evaluation boards.
//
// # Overview
//
// A Session owns one transport.Transport and provides:
//   - Framed send and receive with wall-clock budgets and the mandatory '+'
//     acknowledgement of every terminated reply
//   - Board queries: identification, section offsets, registers, memory
//   - Reset and continue (start execution)
//   - Chunked image loading with a configurable failure policy
//
// # Basic Usage
//
//	link, err := transport.OpenSerial("/dev/cua00", 9600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer link.Close()
//
//	sess := monitor.New(link)
//	version, err := sess.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("ROM version:", version)
//
//	f, err := srec.Open("kernel.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	if _, err := sess.Load(ctx, f, 0x8c010000); err != nil {
//	    log.Fatal(err)
//	}
//	_ = sess.Continue(ctx, 0x8c010000)
//
// # Failure Policy
//
// By default a chunk that cannot be sent aborts the load, while a lost or
// negative reply is logged and the load moves on. The monitor sometimes
// drops acknowledgements under load, and stopping would leave the board in
// a worse state than a retried download. Both behaviors are selected with
// WithLoadPolicy.
//
// # Configuration Options
//
//	sess := monitor.New(link,
//	    monitor.WithLogger(slog.Default()),
//	    monitor.WithSendTimeout(2*time.Second),
//	    monitor.WithReceiveTimeout(2*time.Second),
//	    monitor.WithMaxResponseSize(1024),
//	    monitor.WithVerifyChecksum(false),
//	    monitor.WithChunkSize(128),
//	    monitor.WithProgressCallback(progressFunc),
//	)
//
// # Error Handling
//
// Framing failures wrap protocol.ErrTransportExhausted, protocol.ErrTimeout,
// protocol.ErrTruncatedChecksum or protocol.ErrResponseTooLarge. Error replies from the board are
// *protocol.ProtocolError. A fatal load failure is a *LoadAbortedError
// carrying the chunk index and address:
//
//	_, err := sess.Load(ctx, f, addr)
//	var aborted *monitor.LoadAbortedError
//	if errors.As(err, &aborted) {
//	    fmt.Printf("stopped at chunk %d (0x%x)\n", aborted.Chunk, aborted.Address)
//	}
//
// Failures never invalidate the Session; the next command can be issued
// right away.
package monitor
