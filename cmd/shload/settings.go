package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/moffa90/go-shload/console"
	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/transport"
)

// DefaultSettingsFile is read from the working directory when --config is
// not given. It is optional.
const DefaultSettingsFile = "shload.json"

// Settings are the link and protocol parameters. They come from the
// settings file, then from explicitly set flags.
type Settings struct {
	Port           string   `json:"port"`
	Baud           int      `json:"baud"`
	Charset        string   `json:"charset"`
	SendTimeout    Duration `json:"send_timeout"`
	ReceiveTimeout Duration `json:"receive_timeout"`
	ByteTimeout    Duration `json:"byte_timeout"`
	WakeTimeout    Duration `json:"wake_timeout"`
	ResetWindow    Duration `json:"reset_window"`
	ChunkSize      int      `json:"chunk_size"`
	VerifyChecksum bool     `json:"verify_checksum"`
}

// Duration is a time.Duration written as a string such as "2s" in JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"2s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func defaultSettings() Settings {
	return Settings{
		Port:           transport.DefaultPort,
		Baud:           transport.DefaultBaud,
		Charset:        string(console.DefaultCharset),
		SendTimeout:    Duration(2 * time.Second),
		ReceiveTimeout: Duration(2 * time.Second),
		ByteTimeout:    Duration(2 * time.Second),
		WakeTimeout:    Duration(30 * time.Second),
		ResetWindow:    Duration(5 * time.Second),
		ChunkSize:      128,
	}
}

// loadSettings reads path over the defaults. A missing file is only an
// error when required is set.
func loadSettings(path string, required bool) (Settings, error) {
	s := defaultSettings()

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return s, nil
		}
		return s, fmt.Errorf("unable to open configuration file: %w", err)
	}

	if err := json.Unmarshal(content, &s); err != nil {
		return s, fmt.Errorf("configuration file %s contains invalid data: %w", path, err)
	}
	return s, s.validate()
}

// applyFlags overrides s with every flag the user set explicitly.
func (s *Settings) applyFlags(flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "port":
			s.Port, err = flags.GetString("port")
		case "baud":
			s.Baud, err = flags.GetInt("baud")
		case "charset":
			s.Charset, err = flags.GetString("charset")
		case "send-timeout":
			err = getDuration(flags, f.Name, &s.SendTimeout)
		case "receive-timeout":
			err = getDuration(flags, f.Name, &s.ReceiveTimeout)
		case "byte-timeout":
			err = getDuration(flags, f.Name, &s.ByteTimeout)
		case "wake-timeout":
			err = getDuration(flags, f.Name, &s.WakeTimeout)
		case "reset-window":
			err = getDuration(flags, f.Name, &s.ResetWindow)
		case "chunk-size":
			s.ChunkSize, err = flags.GetInt("chunk-size")
		case "verify":
			s.VerifyChecksum, err = flags.GetBool("verify")
		}
	})
	if err != nil {
		return err
	}
	return s.validate()
}

func getDuration(flags *pflag.FlagSet, name string, dst *Duration) error {
	v, err := flags.GetDuration(name)
	if err != nil {
		return err
	}
	*dst = Duration(v)
	return nil
}

func (s *Settings) validate() error {
	if !transport.ValidBaud(s.Baud) {
		return fmt.Errorf("unsupported baud rate %d (use 9600, 19200 or 38400)", s.Baud)
	}
	if _, err := console.ParseCharset(s.Charset); err != nil {
		return err
	}
	if s.ChunkSize < 1 || s.ChunkSize > monitor.MaxChunkSize {
		return fmt.Errorf("chunk size must be between 1 and %d, got %d", monitor.MaxChunkSize, s.ChunkSize)
	}
	return nil
}
