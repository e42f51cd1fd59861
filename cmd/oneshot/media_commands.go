package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var voice, output string

	cmd := &cobra.Command{
		Use:   "audio <text>",
		Short: "Synthesize speech for text and write an MP3 file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			defer c.Close()

			audio, err := c.Audio(cmd.Context(), strings.Join(args, " "), voice)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, audio, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(audio), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (server default when empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "speech.mp3", "Output file")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "video <text>",
		Short: "Render an explainer video for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			defer c.Close()

			v, err := c.Video(cmd.Context(), topic, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, v)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(ctx.server, "/")+v.VideoURL)
			return err
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Video title topic (required)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}
