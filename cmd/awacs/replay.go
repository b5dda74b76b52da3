package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenRadar/awacs/internal/tacview"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.txt.acmi>",
	Short: "Feed a recorded telemetry file through the controller",
	Long: `replay decodes a text ACMI recording exactly like a live feed. Calls
made during the replay are printed as they happen; any --command lines are
answered once the recording ends.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Float64("pace", 0, "simulation seconds per wall second (0 replays as fast as possible)")
	replayCmd.Flags().StringArrayP("command", "c", nil, "radio command to ask after the replay (repeatable)")
	replayCmd.Flags().Bool("quiet", false, "do not print calls made during the replay")
}

func runReplay(cmd *cobra.Command, args []string) error {
	pace, _ := cmd.Flags().GetFloat64("pace")
	commands, _ := cmd.Flags().GetStringArray("command")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if pace < 0 {
		return fmt.Errorf("pace must not be negative")
	}

	src, err := tacview.OpenFile(args[0])
	if err != nil {
		return err
	}

	// stdout carries the radio transcript; logs go to stderr
	rt, err := newRuntime(os.Stderr)
	if err != nil {
		src.Close()
		return err
	}
	defer rt.close()

	out := cmd.OutOrStdout()
	if !quiet {
		rt.ctrl.Subscribe(func(a core.Alert) { printAlert(out, a) })
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.ctrl.SetConnected(true)
	err = rt.feed.Replay(ctx, src, pace)
	rt.ctrl.SetConnected(false)
	if err != nil {
		return fmt.Errorf("replay %s: %w", args[0], err)
	}

	lines, dropped := rt.feed.Stats()
	rt.logger.Info("Replay finished", "file", args[0], "lines", lines, "dropped", dropped)

	for _, text := range commands {
		fmt.Fprintf(out, "> %s\n%s\n", text, rt.ctrl.HandleText(text))
	}
	return nil
}

func printAlert(w io.Writer, a core.Alert) {
	if a.Kind == core.AlertCommand || a.Kind == core.AlertReply {
		return
	}
	fmt.Fprintf(w, "[%8.1f] %s\n", a.SimTime, a.Text)
}
