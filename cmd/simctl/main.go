// Command simctl sends movement commands to a running relay.
//
//	simctl [--server URL] <command> [flags]
//
// Commands: move-rel, move, goal, stop, status, drive.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Mahendra2603/Robot-Simulator-Project/client"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var server string
	var timeout time.Duration

	global := pflag.NewFlagSet("simctl", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.StringVar(&server, "server", envOr("SIMCTL_SERVER", client.DefaultBaseURL), "relay command API base URL")
	global.DurationVar(&timeout, "timeout", 10*time.Second, "per-command timeout")
	global.Usage = func() { printUsage(stderr, global) }

	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr, global)
		return errors.New("missing command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c := client.New(server)

	name, cmdArgs := rest[0], rest[1:]
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	switch name {
	case "move-rel":
		turn := fs.Float64("turn", 0, "degrees to turn before moving")
		distance := fs.Float64("distance", 1.5, "distance to travel")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}
		if _, err := c.MoveRelative(ctx, *turn, *distance); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "movement command accepted: turn=%g, distance=%g\n", *turn, *distance)

	case "move", "goal", "drive":
		x := fs.Float64("x", 0, "target x")
		z := fs.Float64("z", 0, "target z")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}
		if !fs.Changed("x") || !fs.Changed("z") {
			return fmt.Errorf("%s requires --x and --z", name)
		}
		if name != "move" {
			if _, err := c.SetGoal(ctx, *x, *z); err != nil {
				return fmt.Errorf("set goal: %w", err)
			}
			fmt.Fprintf(stdout, "goal set at: x=%g, z=%g\n", *x, *z)
		}
		if name != "goal" {
			if _, err := c.MoveAbsolute(ctx, *x, *z); err != nil {
				return fmt.Errorf("move: %w", err)
			}
			fmt.Fprintf(stdout, "absolute move command accepted: x=%g, z=%g\n", *x, *z)
		}

	case "stop":
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}
		if _, err := c.Stop(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "stop command sent")

	case "status":
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "status=%s peers=%d uptime=%s\n", st.Status, st.Peers, st.Uptime)

	default:
		printUsage(stderr, global)
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage: simctl [flags] <command> [command flags]

Commands:
  move-rel --turn DEG --distance D   turn then move forward
  move --x X --z Z                   move to an absolute position
  goal --x X --z Z                   place the goal marker
  drive --x X --z Z                  place the goal, then move to it
  stop                               stop the robot
  status                             show relay status

Flags:
%s`, fs.FlagUsages())
}
