package ui

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tagdeck/internal/config"
	"github.com/five82/tagdeck/internal/prefs"
	"github.com/five82/tagdeck/internal/state"
	"github.com/five82/tagdeck/internal/tags"
	"github.com/five82/tagdeck/internal/workflow"
)

// field indexes the editor inputs.
type field int

const (
	fieldTitle field = iota
	fieldArtist
	fieldAlbum
	fieldCoverURL
	fieldCoverFile
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Artist", "Album", "Cover URL", "Cover file"}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Workflow *workflow.Workflow
	// Health, when set, is shown in the header.
	Health    *state.Store
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	// Link, when set, is pre-filled and submitted on start.
	Link   string
	Logger *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	wf        *workflow.Workflow
	health    *state.Store
	config    config.Config
	prefs     prefs.Prefs
	prefsPath string
	logger    *slog.Logger
	keys      keyMap

	// Change notifications from the workflow; buffered, coalescing.
	changes     chan struct{}
	unsubscribe func()

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal
	notice   notice

	// Workflow state
	snap      workflow.Snapshot
	lastStage workflow.Stage
	autoLink  string

	// Widgets
	linkInput textinput.Model
	inputs    [fieldCount]textinput.Model
	focus     field
	bar       progress.Model
	spinner   spinner.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	link := textinput.New()
	link.Placeholder = "https://www.youtube.com/watch?v=..."
	link.Prompt = ""
	link.CharLimit = 2048
	link.SetValue(strings.TrimSpace(opts.Link))
	link.Focus()

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 512
		inputs[i] = in
	}
	inputs[fieldCoverURL].CharLimit = 2048
	inputs[fieldCoverFile].Placeholder = "path to jpeg/png/gif/webp"

	changes := make(chan struct{}, 1)
	unsubscribe := func() {}
	if opts.Workflow != nil {
		unsubscribe = opts.Workflow.Subscribe(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	}

	m := Model{
		ctx:         ctx,
		wf:          opts.Workflow,
		health:      opts.Health,
		config:      opts.Config,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		logger:      logger.With("component", "ui"),
		keys:        DefaultKeyMap(),
		changes:     changes,
		unsubscribe: unsubscribe,
		theme:       GetTheme(opts.Prefs.Theme),
		autoLink:    strings.TrimSpace(opts.Link),
		linkInput:   link,
		inputs:      inputs,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if m.wf != nil {
		m.snap = m.wf.Snapshot()
		m.lastStage = m.snap.Stage
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForChange(m.changes),
		m.spinner.Tick,
	}
	if m.autoLink != "" && m.wf != nil {
		cmds = append(cmds, submitCmd(m.ctx, m.wf, m.autoLink))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.refresh()
		if msg.err != nil {
			m.notice = errorNotice(msg.err)
		} else {
			m.notice = notice{}
		}
		return m, nil

	case downloadDoneMsg:
		m.refresh()
		if msg.err != nil {
			m.notice = errorNotice(msg.err)
		} else {
			ready := "Download complete"
			if m.snap.Artifact != nil {
				ready = "Ready: " + m.snap.Artifact.Filename
			}
			m.notice = successNotice(ready)
		}
		return m, nil

	case imageLoadedMsg:
		return m.handleImageLoaded(msg)

	case previewMsg:
		if msg.err != nil {
			m.notice = errorNotice(msg.err)
			return m, nil
		}
		_ = m.wf.Edit(func(t *tags.Model) { t.ApplyPreview(msg.gen, msg.uri) })
		m.refresh()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = errorNotice(msg.err)
		} else {
			m.notice = successNotice("Saved " + msg.path)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}

	switch m.snap.Stage {
	case workflow.StageIdle:
		return m.handleIdleKey(msg)
	case workflow.StageExtracting, workflow.StageDownloading:
		if key.Matches(msg, m.keys.Cancel) && m.wf.Cancel() {
			m.notice = warningNotice("Cancelling...")
		}
		return m, nil
	case workflow.StageEditing:
		return m.handleEditorKey(msg)
	case workflow.StageComplete:
		return m.handleCompleteKey(msg)
	}
	return m, nil
}

func (m Model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		link := strings.TrimSpace(m.linkInput.Value())
		if link == "" {
			m.notice = warningNotice(workflow.ErrEmptyLink.Error())
			return m, nil
		}
		m.notice = notice{}
		return m, submitCmd(m.ctx, m.wf, link)
	}
	var cmd tea.Cmd
	m.linkInput, cmd = m.linkInput.Update(msg)
	return m, cmd
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.Download):
		m.notice = notice{}
		return m, downloadCmd(m.ctx, m.wf)
	case key.Matches(msg, m.keys.ToggleSource):
		m.toggleSource()
		return m, nil
	case key.Matches(msg, m.keys.GuessTitle):
		m.applyTitleGuess()
		return m, nil
	case key.Matches(msg, m.keys.Submit) && m.focus == fieldCoverFile:
		path := m.prefs.ResolveImagePath(m.inputs[fieldCoverFile].Value())
		if path == "" {
			m.notice = warningNotice("Enter an image path")
			return m, nil
		}
		return m, loadImageCmd(path)
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		m.applyInput(m.focus, after)
	}
	return m, cmd
}

func (m Model) handleCompleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m, saveCmd(m.wf, m.config.OutputDir)
	case key.Matches(msg, m.keys.SaveAs):
		m.modal = newSaveModal(m.wf, m.config.OutputDir)
		return m, nil
	case key.Matches(msg, m.keys.Restart):
		if err := m.wf.Restart(); err != nil {
			m.notice = errorNotice(err)
			return m, nil
		}
		m.notice = notice{}
		m.linkInput.SetValue("")
		m.linkInput.Focus()
		m.refresh()
	}
	return m, nil
}

func (m Model) handleImageLoaded(msg imageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = errorNotice(msg.err)
		return m, nil
	}
	var gen uint64
	if err := m.wf.Edit(func(t *tags.Model) { gen = t.AttachUpload(msg.file) }); err != nil {
		m.notice = errorNotice(err)
		return m, nil
	}
	m.refresh()
	m.notice = infoNotice("Cover image " + msg.file.Name + " attached")

	m.prefs.ImageDir = filepath.Dir(msg.path)
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", slog.String("error", err.Error()))
	}
	return m, previewCmd(gen, msg.file)
}

// applyInput pushes an edited input value into the tag model.
func (m *Model) applyInput(f field, value string) {
	var err error
	switch f {
	case fieldTitle:
		err = m.wf.Edit(func(t *tags.Model) { _ = t.SetField(tags.FieldTitle, value) })
	case fieldArtist:
		err = m.wf.Edit(func(t *tags.Model) { _ = t.SetField(tags.FieldArtist, value) })
	case fieldAlbum:
		err = m.wf.Edit(func(t *tags.Model) { _ = t.SetField(tags.FieldAlbum, value) })
	case fieldCoverURL:
		err = m.wf.Edit(func(t *tags.Model) { t.UseRemote(value) })
	}
	m.refresh()
	if err != nil && !errors.Is(err, workflow.ErrInvalidTransition) {
		m.notice = errorNotice(err)
	}
}

// toggleSource flips the active cover variant as read inside the edit.
func (m *Model) toggleSource() {
	next := tags.SourceUploaded
	err := m.wf.Edit(func(t *tags.Model) {
		if t.Active() == tags.SourceUploaded {
			next = tags.SourceRemote
		}
		t.SelectSource(next)
	})
	if err != nil {
		return
	}
	m.refresh()
	if next == tags.SourceUploaded {
		m.setFocus(fieldCoverFile)
	} else {
		m.setFocus(fieldCoverURL)
	}
}

func (m *Model) applyTitleGuess() {
	guess := tags.SplitTitle(m.inputs[fieldTitle].Value(), m.inputs[fieldArtist].Value())
	if guess.Confidence == tags.ConfidenceLow {
		m.notice = warningNotice("No artist - title pattern found")
		return
	}
	_ = m.wf.Edit(guess.Apply)
	m.refresh()
	m.inputs[fieldTitle].SetValue(guess.Title)
	m.inputs[fieldArtist].SetValue(guess.Artist)
	m.notice = infoNotice("Split title (" + string(guess.Confidence) + " confidence)")
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", slog.String("error", err.Error()))
	}
}

func (m *Model) setFocus(f field) {
	m.focus = f
	for i := range m.inputs {
		if field(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// refresh pulls a new snapshot and reseeds the inputs on entering Editing.
func (m *Model) refresh() {
	if m.wf == nil {
		return
	}
	m.snap = m.wf.Snapshot()
	if m.snap.Stage == m.lastStage {
		return
	}
	prev := m.lastStage
	m.lastStage = m.snap.Stage

	switch m.snap.Stage {
	case workflow.StageEditing:
		if prev == workflow.StageDownloading {
			return
		}
		m.inputs[fieldTitle].SetValue(m.snap.Tags.Title)
		m.inputs[fieldArtist].SetValue(m.snap.Tags.Artist)
		m.inputs[fieldAlbum].SetValue(m.snap.Tags.Album)
		m.inputs[fieldCoverURL].SetValue(m.snap.Tags.Thumbnail)
		m.inputs[fieldCoverFile].SetValue("")
		m.linkInput.Blur()
		m.setFocus(fieldTitle)
	case workflow.StageIdle:
		m.linkInput.Focus()
	}
}

func (m *Model) resize() {
	width := m.width - 16
	if width < 20 {
		width = 20
	}
	m.linkInput.Width = width
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
	m.bar.Width = min(width, 60)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	defer m.unsubscribe()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
