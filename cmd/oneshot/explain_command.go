package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/tree"
)

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var tone string
	var complexity float64
	var examples, useCases, pitfalls bool
	var expand []string

	cmd := &cobra.Command{
		Use:   "explain <topic>",
		Short: "Explain a topic and optionally expand words into a tree",
		Long: `Explain a topic and print the explanation with its expandable terms in brackets.

Each --expand value is a slash-separated path of words or declared terms to
open, starting at the root: --expand "merkle tree/hash" expands "merkle tree"
in the root and then "hash" inside that child.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			defer c.Close()

			req := explain.ExplainRequest{Topic: strings.Join(args, " "), Options: &explain.Options{Tone: explain.Tone(tone)}}
			if cmd.Flags().Changed("complexity") {
				req.Options.Complexity = &complexity
			}
			if cmd.Flags().Changed("examples") {
				req.Options.IncludeExamples = &examples
			}
			if cmd.Flags().Changed("use-cases") {
				req.Options.IncludeUseCases = &useCases
			}
			if cmd.Flags().Changed("pitfalls") {
				req.Options.IncludePitfalls = &pitfalls
			}

			resp, err := c.Explain(cmd.Context(), req)
			if err != nil {
				return err
			}

			ctrl := tree.New(resp.Topic, resp.Root, c, ctx.logger(cmd))
			for _, path := range expand {
				if err := expandPath(cmd.Context(), ctrl, path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "expand %q: %v\n", path, err)
				}
			}

			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}
			return ctrl.Render(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&tone, "tone", string(explain.ToneBalanced), "Explanation length: concise, balanced or detailed")
	cmd.Flags().Float64Var(&complexity, "complexity", 3, "Target complexity on a 1-5 scale")
	cmd.Flags().BoolVar(&examples, "examples", false, "Ask for a concrete example")
	cmd.Flags().BoolVar(&useCases, "use-cases", false, "Ask where this is used in practice")
	cmd.Flags().BoolVar(&pitfalls, "pitfalls", false, "Ask for common pitfalls")
	cmd.Flags().StringArrayVarP(&expand, "expand", "e", nil, "Word path to expand (repeatable)")
	return cmd
}

// expandPath opens each segment of a slash-separated word path. A segment that
// matches a declared term of the current node opens that term; anything else is
// an ad-hoc word. Segments already open are left open.
func expandPath(ctx context.Context, ctrl *tree.Controller, path string) error {
	key := explain.RootID
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		node, ok := ctrl.Node(key)
		if !ok {
			return fmt.Errorf("%w: %s", tree.ErrUnknownNode, key)
		}

		var termID string
		for _, t := range node.ExpandableTerms {
			if strings.EqualFold(t.Term, seg) {
				termID = t.ID
				break
			}
		}
		state := func() tree.State {
			if termID != "" {
				return ctrl.State(key, termID)
			}
			return ctrl.WordState(key, seg)
		}

		if !state().Expanded {
			var err error
			if termID != "" {
				_, err = ctrl.ClickTerm(ctx, key, termID)
			} else {
				_, err = ctrl.ClickWord(ctx, key, seg)
			}
			if err != nil {
				return fmt.Errorf("segment %q: %w", seg, err)
			}
		}

		st := state()
		if st.Child == nil {
			return errors.New("expansion produced no node")
		}
		key = st.Child.Key
	}
	return nil
}
