package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/oneshot/internal/chat"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var questions []string

	cmd := &cobra.Command{
		Use:   "ask <selected text>",
		Short: "Ask questions about a selection, keeping the conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(questions) == 0 {
				return fmt.Errorf("at least one --question is required")
			}
			c := ctx.client()
			defer c.Close()

			mgr := chat.NewManager(c, ctx.logger(cmd))
			session, err := mgr.Open(strings.Join(args, " "))
			if err != nil {
				return err
			}
			defer mgr.Close()

			out := cmd.OutOrStdout()
			for _, q := range questions {
				answer, err := session.Ask(cmd.Context(), q)
				if err != nil && answer == "" {
					return err
				}
				if !ctx.jsonOut {
					fmt.Fprintf(out, "Q: %s\nA: %s\n\n", q, answer)
				}
				if err != nil {
					return err
				}
			}
			if ctx.jsonOut {
				return writeJSON(cmd, session.History())
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "Question to ask (repeatable, asked in order)")
	return cmd
}
