package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ershuai-acc/audio2video/internal/compose"
	"github.com/ershuai-acc/audio2video/internal/media"
	"github.com/ershuai-acc/audio2video/internal/style"
	"github.com/ershuai-acc/audio2video/internal/subtitle"
)

func runSRT(cmd *cobra.Command, audioPath, textPath string) error {
	out, _ := cmd.Flags().GetString("out")
	ffprobe, _ := cmd.Flags().GetString("ffprobe")

	text, err := os.ReadFile(textPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	durationMS, err := media.NewProber(ffprobe).ProbeDurationMS(ctx, audioPath)
	if err != nil {
		return err
	}
	cues, err := subtitle.AllocateUniform(string(text), durationMS)
	if err != nil {
		return err
	}

	srt := subtitle.RenderSRT(cues)
	if out == "" {
		cmd.Print(srt)
		return nil
	}
	return os.WriteFile(out, []byte(srt), 0o644)
}

func runCompose(cmd *cobra.Command, audioPath, imagePath string) error {
	textPath, _ := cmd.Flags().GetString("text")
	aspect, _ := cmd.Flags().GetString("aspect")
	outDir, _ := cmd.Flags().GetString("out")
	fontSize, _ := cmd.Flags().GetInt("font-size")
	fontColor, _ := cmd.Flags().GetString("font-color")
	outlineColor, _ := cmd.Flags().GetString("outline-color")
	outlineWidth, _ := cmd.Flags().GetInt("outline-width")
	noSubtitles, _ := cmd.Flags().GetBool("no-subtitles")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ffmpeg, _ := cmd.Flags().GetString("ffmpeg")
	ffprobe, _ := cmd.Flags().GetString("ffprobe")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var subtitlePath string
	if !noSubtitles && textPath != "" {
		text, err := os.ReadFile(textPath)
		if err != nil {
			return err
		}
		durationMS, err := media.NewProber(ffprobe).ProbeDurationMS(ctx, audioPath)
		if err != nil {
			return err
		}
		cues, err := subtitle.AllocateUniform(string(text), durationMS)
		if err != nil {
			return err
		}
		subtitlePath = filepath.Join(outDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".srt")
		if err := os.WriteFile(subtitlePath, []byte(subtitle.RenderSRT(cues)), 0o644); err != nil {
			return err
		}
	}

	planner := compose.NewPlanner(ffmpeg, "")
	plan := planner.Compose(compose.Request{
		AudioPath:    audioPath,
		ImagePath:    imagePath,
		SubtitlePath: subtitlePath,
		Subtitles:    !noSubtitles && subtitlePath != "",
		Aspect:       aspect,
		Style: style.Config{
			FontSize:     fontSize,
			FontColor:    fontColor,
			OutlineColor: outlineColor,
			OutlineWidth: outlineWidth,
		},
		OutputDir:  outDir,
		OutputBase: filepath.Base(audioPath),
	})

	if dryRun {
		cmd.Println(plan.Program, strings.Join(plan.Args, " "))
		return nil
	}
	if err := media.NewRunner(nil).Run(ctx, plan); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), plan.OutputPath)
	return nil
}
