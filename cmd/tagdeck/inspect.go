package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/tags"
)

type inspectResult struct {
	Link      string   `json:"link"`
	SessionID string   `json:"session_id"`
	Tags      tags.Set `json:"tags"`
	Guess     struct {
		Artist     string `json:"artist"`
		Title      string `json:"title"`
		Confidence string `json:"confidence"`
	} `json:"guess"`
	Filename string `json:"filename"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <link>",
		Short: "Show the tags the service extracts for a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.headless(cmd.Context())
			if err != nil {
				return err
			}
			wf := env.Workflow

			if err := wf.Submit(cmd.Context(), args[0]); err != nil {
				return err
			}
			snap := wf.Snapshot()
			guess := tags.SplitTitle(snap.Tags.Title, snap.Tags.Artist)

			var res inspectResult
			res.Link = snap.Link
			res.SessionID = snap.Session.ID
			res.Tags = snap.Tags
			res.Guess.Artist = guess.Artist
			res.Guess.Title = guess.Title
			res.Guess.Confidence = string(guess.Confidence)
			res.Filename = artifact.SuggestFilename(snap.Tags.Title)

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			rows := [][]string{
				{"Session", res.SessionID},
				{"Title", res.Tags.Title},
				{"Artist", res.Tags.Artist},
				{"Album", res.Tags.Album},
				{"Thumbnail", res.Tags.Thumbnail},
				{"Suggested file", res.Filename},
			}
			if guess.Confidence != tags.ConfidenceLow {
				rows = append(rows, []string{
					"Split guess",
					fmt.Sprintf("%s / %s (%s)", guess.Artist, guess.Title, guess.Confidence),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}
