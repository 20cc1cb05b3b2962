package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/transport"
)

// writeRetryInterval is the pause between attempts when the link accepts
// zero bytes.
const writeRetryInterval = time.Millisecond

// Send writes command as a $command#cc packet, one byte at a time. The whole
// packet shares one SendTimeout budget; running out of it, or a write error,
// yields an error wrapping protocol.ErrTransportExhausted.
func (s *Session) Send(ctx context.Context, command string) error {
	pkt := protocol.BuildPacket(command)
	deadline := time.Now().Add(s.config.SendTimeout)

	for _, b := range pkt {
		if err := s.writeByte(ctx, b, deadline); err != nil {
			return fmt.Errorf("send %q: %w", command, err)
		}
	}

	s.logDebug("packet sent", "command", command)
	return nil
}

// writeByte retries until the link accepts exactly one byte.
func (s *Session) writeByte(ctx context.Context, b byte, deadline time.Time) error {
	buf := [1]byte{b}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := s.link.Write(ctx, buf[:])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %w", protocol.ErrTransportExhausted, err)
		}
		if n == 1 {
			return nil
		}

		if !time.Now().Before(deadline) {
			return protocol.ErrTransportExhausted
		}
		time.Sleep(writeRetryInterval)
	}
}

// Receive reads one reply. Bytes are collected up to and including the '#'
// terminator, then the two checksum bytes are always consumed. Only a
// terminated reply is acknowledged with '+' ('-' when verification is
// enabled and the checksum does not match).
//
// Returns protocol.ErrTimeout when the terminator did not arrive within
// ReceiveTimeout, protocol.ErrResponseTooLarge when the reply reached
// MaxResponseSize first, and protocol.ErrTruncatedChecksum, together with
// the acknowledged reply, when only the checksum bytes were missing.
func (s *Session) Receive(ctx context.Context) (*protocol.Response, error) {
	deadline := time.Now().Add(s.config.ReceiveTimeout)
	resp := &protocol.Response{Raw: make([]byte, 0, 64)}

	var failure error
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			failure = protocol.ErrTimeout
			break
		}

		b, err := s.link.ReadByte(ctx, remaining)
		if errors.Is(err, transport.ErrTimeout) {
			failure = protocol.ErrTimeout
			break
		}
		if err != nil {
			return nil, fmt.Errorf("receive: %w", err)
		}

		resp.Raw = append(resp.Raw, b)
		if b == protocol.EndOfPacket {
			break
		}
		if len(resp.Raw) >= s.config.MaxResponseSize {
			failure = protocol.ErrResponseTooLarge
			break
		}
	}

	// The checksum field follows regardless of how the reply ended.
	trailer := s.config.ReceiveTimeout
	if failure != nil {
		trailer = s.config.TrailerTimeout
	}
	complete, err := s.readChecksum(ctx, resp, trailer)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}

	if failure != nil {
		s.logDebug("reply failed", "error", failure, "received", len(resp.Raw))
		return resp, failure
	}

	ack := byte(protocol.Ack)
	var verifyErr error
	if s.config.VerifyChecksum {
		if !complete {
			verifyErr = protocol.ErrTruncatedChecksum
		} else {
			verifyErr = protocol.VerifyResponse(resp)
		}
		if verifyErr != nil {
			ack = protocol.Nak
		}
	}

	if err := s.writeByte(ctx, ack, time.Now().Add(s.config.SendTimeout)); err != nil {
		return resp, fmt.Errorf("acknowledge reply: %w", err)
	}

	s.status = resp.String()
	s.logDebug("reply received", "payload", s.status)

	if verifyErr != nil {
		return resp, verifyErr
	}
	if !complete {
		return resp, protocol.ErrTruncatedChecksum
	}
	return resp, nil
}

// readChecksum consumes the two checksum bytes. It reports whether both
// arrived; only cancellation and link errors are returned as errors.
func (s *Session) readChecksum(ctx context.Context, resp *protocol.Response, timeout time.Duration) (bool, error) {
	for i := 0; i < protocol.ChecksumSize; i++ {
		b, err := s.link.ReadByte(ctx, timeout)
		if errors.Is(err, transport.ErrTimeout) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		resp.Checksum[i] = b
	}
	return true, nil
}

// Exchange sends command and reads its reply.
func (s *Session) Exchange(ctx context.Context, command string) (*protocol.Response, error) {
	if err := s.Send(ctx, command); err != nil {
		return nil, err
	}
	return s.Receive(ctx)
}
