// Package logging builds the structured logger shared by the CLI and the
// library packages.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"strings"
)

var ErrUnknownLevel = errors.New("logging: unknown level")

// ParseLevel accepts debug, info, warn or error in any case. An empty name
// means info.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return slog.LevelInfo, errors.Join(ErrUnknownLevel, err)
	}
	return l, nil
}

// New returns a text logger writing to w at the named level.
func New(level string, w io.Writer) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
