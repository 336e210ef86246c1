// rufusctl drives a running rufusd over its local HTTP API.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Addr string `short:"a" long:"addr" env:"RUFUS_ADDR" default:"http://127.0.0.1:8093" description:"Base URL of the rufusd API"`

	Status   StatusCommand   `command:"status" description:"Show the device status"`
	Servo    ServoCommand    `command:"servo" description:"Drive one channel to an angle"`
	Gesture  GestureCommand  `command:"gesture" description:"Run a gesture by name"`
	Gestures GesturesCommand `command:"gestures" description:"List registered gestures"`
	Play     PlayCommand     `command:"play" description:"Play the announcement audio file"`
	Volume   VolumeCommand   `command:"volume" description:"Set the codec output volume"`
	Send     SendCommand     `command:"send" description:"Send one raw protocol line"`
	Reinit   ReinitCommand   `command:"reinit" description:"Remount the storage volume"`
	Watch    WatchCommand    `command:"watch" description:"Stream live diagnostics"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "rufusctl - control CLI for the Rufus companion daemon"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// api joins the daemon base URL and an API path.
func api(path string) string {
	return strings.TrimRight(opts.Addr, "/") + path
}

func cmdCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
