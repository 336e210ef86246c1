package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type WatchCommand struct{}

// Execute streams the daemon's diagnostic feed until interrupted.
// Every line the device writes on the serial link shows up here too.
func (c *WatchCommand) Execute(args []string) error {
	wsURL, err := diagURL(opts.Addr)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Interrupt closes the socket, which ends the read loop.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "watching %s\n", wsURL)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		printEvent(data)
	}
}

func printEvent(data []byte) {
	var ev struct {
		Type   string          `json:"type"`
		Line   string          `json:"line"`
		Status json.RawMessage `json:"status"`
		At     time.Time       `json:"at"`
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
		fmt.Println(string(data))
		return
	}

	stamp := ev.At.Format("15:04:05.000")
	switch ev.Type {
	case "diag":
		fmt.Printf("%s  %s\n", stamp, ev.Line)
	case "status":
		fmt.Printf("%s  status %s\n", stamp, ev.Status)
	default:
		fmt.Println(string(data))
	}
}

// diagURL converts the API base URL into the diagnostic stream URL.
func diagURL(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse addr %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/diag"
	return u.String(), nil
}
