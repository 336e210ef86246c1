// Package link carries the operator command protocol: newline text
// lines in, diagnostic lines out, over the Pi UART or process stdio.
package link

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.bug.st/serial"
)

// Backend selects the link transport.
type Backend string

const (
	// BackendSerial opens a UART device, the production transport.
	BackendSerial Backend = "serial"
	// BackendStdio uses process stdin/stdout, for bench work and the
	// supervisor harness.
	BackendStdio Backend = "stdio"
)

// Config describes how to open the link.
type Config struct {
	Backend Backend
	Port    string
	Baud    int
}

// Longer lines than this are a framing fault, not a command.
const maxLineLen = 4096

// Link is an open command stream. Reads are line oriented through
// Lines; writes go out one diagnostic line at a time.
type Link struct {
	r      io.Reader
	w      io.Writer
	closer io.Closer
	name   string
	logger *slog.Logger

	wmu sync.Mutex
}

// New wraps a stream pair as a link. Open is the production entry
// point; New backs the stdio transport and tests.
func New(r io.Reader, w io.Writer, name string, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{r: r, w: w, name: name, logger: logger}
}

// Open opens the configured transport. The serial backend runs the
// UART at 8 data bits, no parity, one stop bit.
func Open(cfg Config, logger *slog.Logger) (*Link, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case BackendStdio:
		return New(os.Stdin, os.Stdout, "stdio", logger), nil
	case BackendSerial:
		mode := &serial.Mode{
			BaudRate: cfg.Baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(cfg.Port, mode)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
		}
		logger.Info("serial link open", "port", cfg.Port, "baud", cfg.Baud)
		l := New(port, port, cfg.Port, logger)
		l.closer = port
		return l, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Name returns the transport name for logs and status.
func (l *Link) Name() string {
	return l.name
}

// Lines starts a reader goroutine and returns its channel of received
// lines. The channel closes when the stream ends or fails; cancel the
// context to stop delivery.
func (l *Link) Lines(ctx context.Context) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(l.r)
		sc.Buffer(make([]byte, 0, 256), maxLineLen)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			l.logger.Error("link read failed", "link", l.name, "error", err)
		}
	}()
	return out
}

// WriteLine sends one diagnostic line, appending the newline.
func (l *Link) WriteLine(line string) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		return fmt.Errorf("write %s: %w", l.name, err)
	}
	return nil
}

// Close closes the underlying transport if it owns one. The stdio
// backend leaves the process streams alone.
func (l *Link) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
