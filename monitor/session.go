package monitor

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/transport"
)

// Session is a conversation with the SH Advanced Monitor over one
// transport. It owns the transport for its whole lifetime.
//
// Session is not safe for concurrent use.
type Session struct {
	link   transport.Transport
	config Config

	romVersion string
	status     string
}

// New creates a Session on link with the given options.
//
// Example:
//
//	link, _ := transport.OpenSerial("/dev/cua00", 9600)
//	sess := monitor.New(link,
//	    monitor.WithLogger(slog.Default()),
//	    monitor.WithTimeout(5*time.Second),
//	)
func New(link transport.Transport, opts ...Option) *Session {
	if link == nil {
		panic("link cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		link:   link,
		config: cfg,
	}
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.config
}

// ROMVersion returns the identification stored by Connect.
func (s *Session) ROMVersion() string {
	return s.romVersion
}

// Status returns the payload of the last acknowledged reply.
func (s *Session) Status() string {
	return s.status
}

// Connect identifies the board and stores its ROM version.
func (s *Session) Connect(ctx context.Context) (string, error) {
	version, err := s.Identify(ctx)
	if err != nil {
		return "", fmt.Errorf("identify board: %w", err)
	}

	s.romVersion = version
	s.logInfo("board identified", "rom_version", version)
	return version, nil
}

// Identify sends qID and returns the identification string.
func (s *Session) Identify(ctx context.Context) (string, error) {
	reply, err := s.command(ctx, "identify", protocol.CmdIdentify)
	if err != nil {
		return "", err
	}
	return string(reply.Payload), nil
}

// QueryOffsets sends qOffsets and parses the section offsets.
func (s *Session) QueryOffsets(ctx context.Context) (protocol.Offsets, error) {
	reply, err := s.command(ctx, "query offsets", protocol.CmdQueryOffsets)
	if err != nil {
		return protocol.Offsets{}, err
	}

	off, err := protocol.ParseOffsets(reply.Payload)
	if err != nil {
		return protocol.Offsets{}, &ReplyFormatError{Operation: "query offsets", Payload: string(reply.Payload)}
	}
	return off, nil
}

// Registers sends g and returns the register dump as the monitor sends it:
// hex digits, eight per 32-bit register.
func (s *Session) Registers(ctx context.Context) (string, error) {
	reply, err := s.command(ctx, "read registers", protocol.CmdRegisters)
	if err != nil {
		return "", err
	}
	return string(reply.Payload), nil
}

// MemoryDump reads length bytes at addr. length <= 0 uses the configured
// MemoryDumpSize.
func (s *Session) MemoryDump(ctx context.Context, addr uint32, length int) ([]byte, error) {
	if length <= 0 {
		length = s.config.MemoryDumpSize
	}

	cmd, err := protocol.MemoryRead(addr, length)
	if err != nil {
		return nil, err
	}

	reply, err := s.command(ctx, "read memory", cmd)
	if err != nil {
		return nil, err
	}

	data, err := hex.DecodeString(string(reply.Payload))
	if err != nil {
		return nil, &ReplyFormatError{Operation: "read memory", Payload: string(reply.Payload)}
	}
	return data, nil
}

// Reset sends r and waits for the monitor's reply.
func (s *Session) Reset(ctx context.Context) error {
	_, err := s.command(ctx, "reset", protocol.CmdReset)
	return err
}

// Continue starts execution at addr. The monitor hands the CPU to the
// program and does not reply, so nothing is read.
func (s *Session) Continue(ctx context.Context, addr uint32) error {
	if err := s.Send(ctx, protocol.Continue(addr)); err != nil {
		return err
	}
	s.logInfo("execution started", "address", fmt.Sprintf("0x%x", addr))
	return nil
}

// command exchanges one packet and turns an Exx reply into a ProtocolError.
func (s *Session) command(ctx context.Context, operation, cmd string) (protocol.Reply, error) {
	resp, err := s.Exchange(ctx, cmd)
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("%s: %w", operation, err)
	}

	reply := resp.Reply()
	if reply.Kind == protocol.ReplyError {
		return reply, &protocol.ProtocolError{Operation: operation, Code: reply.Code}
	}
	return reply, nil
}

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
