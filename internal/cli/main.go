// Package cli is the offline companion to the API server: it derives
// SRT captions and composes videos locally without the HTTP layer.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "audio2video",
		Short:        "Compose subtitled videos from narrated audio and a cover image",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	srt := &cobra.Command{
		Use:   "srt <audio> <text-file>",
		Short: "Derive an SRT file from audio duration and caption text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSRT(cmd, args[0], args[1])
		},
	}
	srt.Flags().String("out", "", "Output SRT path (default: stdout)")
	srt.Flags().String("ffprobe", "ffprobe", "ffprobe binary")

	composeCmd := &cobra.Command{
		Use:   "compose <audio> <image>",
		Short: "Compose a subtitled MP4 from audio and a still image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, args[0], args[1])
		},
	}
	composeCmd.Flags().String("text", "", "Caption text file (one caption per line)")
	composeCmd.Flags().String("aspect", "9:16", "Aspect ratio: 9:16 or 16:9")
	composeCmd.Flags().String("out", "out", "Output directory")
	composeCmd.Flags().Int("font-size", 0, "Caption font size")
	composeCmd.Flags().String("font-color", "", "Caption color (#RRGGBB)")
	composeCmd.Flags().String("outline-color", "", "Caption outline color (#RRGGBB)")
	composeCmd.Flags().Int("outline-width", 0, "Caption outline width")
	composeCmd.Flags().Bool("no-subtitles", false, "Skip caption burn-in")
	composeCmd.Flags().Bool("dry-run", false, "Print the planned ffmpeg command instead of running it")
	composeCmd.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary")
	composeCmd.Flags().String("ffprobe", "ffprobe", "ffprobe binary")

	root.AddCommand(srt, composeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
