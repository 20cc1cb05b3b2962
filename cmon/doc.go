// Package cmon downloads S-record images to SuperH boards running the CMON
// monitor, using its echo flow-controlled download handshake.
//
// # Handshake
//
// The loader writes CMON's load command and waits for the board, which has
// to be reset by the operator, to announce itself:
//
//	Idle                  --0x05-->            WokenByPeer (write '*')
//	WokenByPeer           --'L'..'O'..'x'-->   MagicAcknowledged (write first byte)
//	MagicAcknowledged     --echo-->            Streaming (write next byte)
//	Streaming             --'>'-->             CompletionPromptSeen (write ACK, '\n')
//	CompletionPromptSeen  --'>'-->             (write 'g')
//	                      --'g'-->             (write '\n')
//	                      --'\n'-->            ExecutionHandoff
//
// Bytes that match nothing are discarded. Machine implements these
// transitions as a pure function of the current state and the received
// byte; Loader drives it over a transport.Transport.
//
// # Basic Usage
//
//	image, err := os.ReadFile("kernel.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loader := cmon.New(link, cmon.WithByteTimeout(2*time.Second))
//	if _, err := loader.Run(ctx, image, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// # Timeouts and Cancellation
//
// CMON never reports errors during a download; a lost byte simply stops the
// exchange. Every wait therefore has a deadline, and an expired one returns
// a *TimeoutError naming the state and the awaited byte. Cancelling the
// context returns an error matching ErrCancelled. After the handoff, Follow
// copies program output until cancelled or until the optional idle timeout.
package cmon
