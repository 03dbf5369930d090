package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tagdeck/internal/tags"
	"github.com/five82/tagdeck/internal/workflow"
)

// Messages

type changedMsg struct{}

type submitDoneMsg struct{ err error }

type downloadDoneMsg struct{ err error }

type imageLoadedMsg struct {
	path string
	file tags.File
	err  error
}

type previewMsg struct {
	gen uint64
	uri string
	err error
}

type savedMsg struct {
	path string
	err  error
}

// Commands

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func submitCmd(ctx context.Context, wf *workflow.Workflow, link string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: wf.Submit(ctx, link)}
	}
}

func downloadCmd(ctx context.Context, wf *workflow.Workflow) tea.Cmd {
	return func() tea.Msg {
		return downloadDoneMsg{err: wf.Download(ctx)}
	}
}

func loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		file, err := tags.LoadFile(path)
		return imageLoadedMsg{path: path, file: file, err: err}
	}
}

func previewCmd(gen uint64, file tags.File) tea.Cmd {
	return func() tea.Msg {
		uri, err := tags.BuildPreview(file)
		return previewMsg{gen: gen, uri: uri, err: err}
	}
}

func saveCmd(wf *workflow.Workflow, dir string) tea.Cmd {
	return func() tea.Msg {
		handle, err := wf.Artifact()
		if err != nil {
			return savedMsg{err: err}
		}
		path, err := handle.SaveTo(dir)
		return savedMsg{path: path, err: err}
	}
}
