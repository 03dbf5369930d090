package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/five82/tagdeck/internal/config"
	"github.com/five82/tagdeck/internal/tags"
	"github.com/five82/tagdeck/internal/workflow"
)

type fetchFlags struct {
	title     string
	artist    string
	album     string
	thumbnail string
	image     string
	out       string
	guess     bool
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch <link>",
		Short: "Extract, tag and save an MP3 without the interactive editor",
		Long: "fetch runs the whole session headless: extract the link, apply any tag\n" +
			"overrides, upload a cover image if --image is given, finalize and save.\n" +
			"Existing files are never overwritten; a numbered name is used instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.headless(cmd.Context())
			if err != nil {
				return err
			}
			wf := env.Workflow
			stderr := cmd.ErrOrStderr()

			stop := reportProgress(wf, stderr)
			err = wf.Submit(cmd.Context(), args[0])
			stop()
			if err != nil {
				return err
			}

			if err := applyOverrides(cmd, wf, flags); err != nil {
				return err
			}

			snap := wf.Snapshot()
			fmt.Fprintf(stderr, "finalizing %q by %q\n", snap.Tags.Title, snap.Tags.Artist)
			if err := wf.Download(cmd.Context()); err != nil {
				return err
			}

			handle, err := wf.Artifact()
			if err != nil {
				return err
			}
			dir := flags.out
			if strings.TrimSpace(dir) == "" {
				dir = env.Config.OutputDir
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return err
			}
			path, err := handle.SaveTo(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, handle.SizeText())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.title, "title", "", "Override the extracted title")
	f.StringVar(&flags.artist, "artist", "", "Override the extracted artist")
	f.StringVar(&flags.album, "album", "", "Override the extracted album")
	f.StringVar(&flags.thumbnail, "thumbnail", "", "Use this cover image URL")
	f.StringVar(&flags.image, "image", "", "Upload this local image as the cover")
	f.StringVarP(&flags.out, "out", "o", "", "Directory to save into (default: output_dir from config)")
	f.BoolVar(&flags.guess, "guess", false, "Split an \"Artist - Title\" video title before applying overrides")
	cmd.MarkFlagsMutuallyExclusive("thumbnail", "image")

	return cmd
}

// applyOverrides edits the session tags from the command flags. Only flags
// given on the command line are applied, so an explicit empty value clears a
// field.
func applyOverrides(cmd *cobra.Command, wf *workflow.Workflow, flags fetchFlags) error {
	var file *tags.File
	if cmd.Flags().Changed("image") {
		loaded, err := tags.LoadFile(flags.image)
		if err != nil {
			return err
		}
		file = &loaded
	}

	changed := cmd.Flags().Changed
	var editErr error
	err := wf.Edit(func(m *tags.Model) {
		if flags.guess {
			if g := tags.SplitTitle(m.Fields().Title, m.Fields().Artist); g.Confidence != tags.ConfidenceLow {
				g.Apply(m)
			}
		}
		for _, o := range []struct {
			flag  string
			field tags.Field
			value string
		}{
			{"title", tags.FieldTitle, flags.title},
			{"artist", tags.FieldArtist, flags.artist},
			{"album", tags.FieldAlbum, flags.album},
		} {
			if changed(o.flag) {
				if err := m.SetField(o.field, o.value); err != nil && editErr == nil {
					editErr = err
				}
			}
		}
		if changed("thumbnail") {
			m.UseRemote(flags.thumbnail)
		}
		if file != nil {
			m.AttachUpload(*file)
		}
	})
	if err != nil {
		return err
	}
	return editErr
}

// reportProgress prints the extraction estimate to w while a terminal is
// attached. The returned func stops reporting.
func reportProgress(wf *workflow.Workflow, w io.Writer) func() {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return func() {}
	}
	var mu sync.Mutex
	last := -1
	unsubscribe := wf.Subscribe(func() {
		snap := wf.Snapshot()
		if snap.Stage != workflow.StageExtracting {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if snap.Progress == last {
			return
		}
		last = snap.Progress
		fmt.Fprintf(w, "\rextracting %3d%%", snap.Progress)
	})
	return func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if last >= 0 {
			fmt.Fprintln(w)
		}
	}
}
