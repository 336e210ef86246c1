package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rufuslabs/go-rufus/internal/httpc"
	"github.com/rufuslabs/go-rufus/pkg/rufus"
)

type StatusCommand struct{}

func (c *StatusCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	var st rufus.Status
	if err := httpc.GetJSON(ctx, api("/api/status"), &st); err != nil {
		return err
	}

	fmt.Printf("ready:    %s\n", yesno(st.Ready))
	fmt.Printf("uptime:   %s\n", time.Duration(st.UptimeSec)*time.Second)
	fmt.Printf("link:     %s\n", st.Link)
	fmt.Printf("servo:    %s\n", st.ServoBackend)
	fmt.Printf("codec:    %s\n", st.Codec)
	storage := "degraded"
	if st.Storage.Available {
		storage = "ok"
	}
	fmt.Printf("storage:  %s (%s)\n", storage, st.Storage.Dir)

	activity := "idle"
	if st.Activity != "" {
		activity = st.Activity
		if st.Pending != "" {
			activity += ", pending " + st.Pending
		}
	}
	fmt.Printf("activity: %s\n", activity)
	fmt.Printf("audio:    %s", st.Audio.State)
	if st.Audio.File != "" {
		fmt.Printf(" %s %d%%", st.Audio.File, st.Audio.Progress)
	}
	fmt.Println()
	fmt.Printf("commands: %d handled, %d unrecognized\n", st.Commands.Handled, st.Commands.Unknown)

	fmt.Println("channels:")
	for _, ch := range st.Channels {
		rest := ""
		if ch.Angle == ch.Rest {
			rest = "  (rest)"
		}
		fmt.Printf("  %-10s %3d  [%d..%d]%s\n", ch.Name, ch.Angle, ch.Min, ch.Max, rest)
	}
	fmt.Printf("gestures: %s\n", strings.Join(st.Gestures, ", "))
	return nil
}

type ServoCommand struct {
	Args struct {
		Channel string `positional-arg-name:"channel" required:"yes" description:"head, left_arm or right_arm"`
		Angle   int    `positional-arg-name:"angle" required:"yes" description:"Target angle in degrees"`
	} `positional-args:"yes"`
}

func (c *ServoCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	body := map[string]any{"channel": c.Args.Channel, "angle": c.Args.Angle}
	var out struct {
		Channel string `json:"channel"`
		Angle   int    `json:"angle"`
	}
	if err := httpc.PostJSON(ctx, api("/api/servo"), body, &out); err != nil {
		return err
	}
	fmt.Printf("%s %d\n", out.Channel, out.Angle)
	return nil
}

type GestureCommand struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes" description:"Gesture name, see: rufusctl gestures"`
	} `positional-args:"yes"`
}

func (c *GestureCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	var out struct {
		Gesture string `json:"gesture"`
		State   string `json:"state"`
	}
	if err := httpc.PostJSON(ctx, api("/api/gestures/"+c.Args.Name), nil, &out); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", out.Gesture, out.State)
	return nil
}

type GesturesCommand struct{}

func (c *GesturesCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	var out struct {
		Gestures []string `json:"gestures"`
	}
	if err := httpc.GetJSON(ctx, api("/api/gestures"), &out); err != nil {
		return err
	}
	for _, name := range out.Gestures {
		fmt.Println(name)
	}
	return nil
}

type PlayCommand struct{}

func (c *PlayCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	var out struct {
		State string `json:"state"`
	}
	if err := httpc.PostJSON(ctx, api("/api/play"), nil, &out); err != nil {
		return err
	}
	fmt.Println("playback " + out.State)
	return nil
}

type VolumeCommand struct {
	Args struct {
		Level int `positional-arg-name:"level" required:"yes" description:"Output volume, 0 to 100"`
	} `positional-args:"yes"`
}

func (c *VolumeCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	body := map[string]int{"level": c.Args.Level}
	var out struct {
		Volume int `json:"volume"`
	}
	if err := httpc.PostJSON(ctx, api("/api/volume"), body, &out); err != nil {
		return err
	}
	fmt.Printf("volume %d\n", out.Volume)
	return nil
}

type SendCommand struct {
	Args struct {
		Line []string `positional-arg-name:"line" required:"yes" description:"Protocol line, e.g. head_90 or yes"`
	} `positional-args:"yes"`
}

func (c *SendCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	body := map[string]string{"line": strings.Join(c.Args.Line, " ")}
	if err := httpc.PostJSON(ctx, api("/api/command"), body, nil); err != nil {
		return err
	}
	fmt.Println("sent")
	return nil
}

type ReinitCommand struct{}

func (c *ReinitCommand) Execute(args []string) error {
	ctx, cancel := cmdCtx()
	defer cancel()

	if err := httpc.PostJSON(ctx, api("/api/storage/reinit"), nil, nil); err != nil {
		return err
	}
	fmt.Println("storage ok")
	return nil
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
