package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/tree"
)

func newExpandCommand(ctx *commandContext) *cobra.Command {
	var req explain.ExpandRequest

	cmd := &cobra.Command{
		Use:   "expand <term>",
		Short: "Expand a single term against a parent context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			defer c.Close()

			req.Term = args[0]
			if req.TermID == "" {
				req.TermID = tree.WordTermID(req.Term, req.Depth)
			}
			resp, err := c.Expand(cmd.Context(), req)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tree.Highlight(resp.Node))
			return err
		},
	}

	cmd.Flags().StringVar(&req.Topic, "topic", "", "Topic of the explanation (required)")
	cmd.Flags().StringVar(&req.ParentContext, "context", "", "Text the term appears in")
	cmd.Flags().StringVar(&req.TermID, "term-id", "", "Term id (defaults to the word id)")
	cmd.Flags().IntVar(&req.Depth, "depth", 0, "Depth of the parent node")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}
