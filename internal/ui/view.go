package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/tagdeck/internal/backend"
	"github.com/five82/tagdeck/internal/state"
	"github.com/five82/tagdeck/internal/tags"
	"github.com/five82/tagdeck/internal/workflow"
)

type noticeKind int

const (
	noticeNone noticeKind = iota
	noticeInfo
	noticeSuccess
	noticeWarning
	noticeError
)

// notice is the single status line under the main panel.
type notice struct {
	kind noticeKind
	text string
}

func infoNotice(text string) notice    { return notice{kind: noticeInfo, text: text} }
func successNotice(text string) notice { return notice{kind: noticeSuccess, text: text} }
func warningNotice(text string) notice { return notice{kind: noticeWarning, text: text} }

// errorNotice maps a failure to a user-facing line.
func errorNotice(err error) notice {
	var (
		extractErr  *backend.ExtractionError
		uploadErr   *backend.UploadError
		finalizeErr *backend.FinalizeError
	)
	switch {
	case err == nil:
		return notice{}
	case errors.Is(err, workflow.ErrEmptyLink):
		return warningNotice(err.Error())
	case errors.As(err, &extractErr):
		return notice{kind: noticeError, text: "Extraction failed" + statusSuffix(extractErr.Status) + ": " + rootCause(err)}
	case errors.As(err, &uploadErr):
		return notice{kind: noticeError, text: "Cover upload failed" + statusSuffix(uploadErr.Status) + ": " + rootCause(err)}
	case errors.As(err, &finalizeErr):
		return notice{kind: noticeError, text: "Download failed" + statusSuffix(finalizeErr.Status) + ": " + rootCause(err)}
	default:
		return notice{kind: noticeError, text: err.Error()}
	}
}

func statusSuffix(status int) string {
	switch {
	case status == 0:
		return ""
	case backend.IsServerSide(status):
		return fmt.Sprintf(" (server error %d)", status)
	default:
		return fmt.Sprintf(" (%d)", status)
	}
}

// rootCause returns the message of the innermost wrapped error.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderNotice())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the logo, stage badge and service address.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	stage := string(m.snap.Stage)
	if m.snap.Err != nil && !m.snap.Stage.Busy() {
		stage = "failed"
	}
	parts := []string{
		bg.Render("tagdeck", styles.Logo),
		styles.StageStyle(stage).Render(strings.ToUpper(m.snap.Stage.Label())),
	}
	if m.snap.HasSession() {
		parts = append(parts, bg.Render("session "+m.snap.Session.ID, styles.FaintText))
	}
	if m.config.APIURL != "" {
		parts = append(parts, bg.Render(m.config.APIURL, styles.MutedText))
	}
	if m.health != nil {
		h := m.health.Snapshot()
		parts = append(parts, bg.Render(h.Label(), healthStyle(styles, h)))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func healthStyle(styles Styles, h state.Health) lipgloss.Style {
	switch {
	case !h.Checked:
		return styles.FaintText
	case h.IsOffline():
		return styles.DangerText
	case h.Reachable:
		return styles.SuccessText
	default:
		return styles.WarningText
	}
}

func (m Model) renderBody() string {
	switch m.snap.Stage {
	case workflow.StageIdle:
		return m.renderLinkPanel()
	case workflow.StageExtracting:
		return m.renderExtracting()
	case workflow.StageEditing:
		return m.renderEditor()
	case workflow.StageDownloading:
		return m.renderDownloading()
	case workflow.StageComplete:
		return m.renderComplete()
	default:
		return ""
	}
}

func (m Model) renderLinkPanel() string {
	styles := m.theme.Styles()
	body := styles.FocusedLabel.Render("Link") + m.linkInput.View() + "\n\n" +
		styles.FaintText.Render("Paste a video link and press enter.")
	return m.panel("Extract", body, true)
}

func (m Model) renderExtracting() string {
	styles := m.theme.Styles()
	body := styles.Text.Render(truncateMiddle(m.snap.Link, m.contentWidth())) + "\n\n" +
		m.bar.ViewAs(float64(m.snap.Progress)/100) + " " +
		styles.MutedText.Render(fmt.Sprintf("%3d%%", m.snap.Progress))
	return m.panel("Extracting", body, true)
}

func (m Model) renderEditor() string {
	styles := m.theme.Styles()
	var b strings.Builder
	for i := range m.inputs {
		f := field(i)
		label := styles.Label
		if f == m.focus {
			label = styles.FocusedLabel
		}
		marker := "  "
		if (f == fieldCoverURL && m.snap.Source == tags.SourceRemote) ||
			(f == fieldCoverFile && m.snap.Source == tags.SourceUploaded) {
			marker = styles.AccentText.Render("● ")
		}
		b.WriteString(marker)
		b.WriteString(label.Render(fieldLabels[f]))
		b.WriteString(m.inputs[f].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Cover: "))
	b.WriteString(truncateMiddle(thumbnailLine(m.snap), m.contentWidth()-7))
	return m.panel("Tags", b.String(), true)
}

func (m Model) renderDownloading() string {
	styles := m.theme.Styles()
	step := "Finalizing"
	if m.snap.Source == tags.SourceUploaded && m.snap.UploadName != "" {
		step = "Uploading cover and finalizing"
	}
	body := m.spinner.View() + " " + styles.Text.Render(step+" "+titleOrPlaceholder(m.snap.Tags.Title))
	return m.panel("Downloading", body, true)
}

func (m Model) renderComplete() string {
	styles := m.theme.Styles()
	info := m.snap.Artifact
	if info == nil {
		return m.panel("Complete", styles.WarningText.Render("No artifact"), false)
	}
	rows := [][2]string{
		{"File", info.Filename},
		{"Size", info.SizeText},
	}
	if info.Link != "" {
		rows = append(rows, [2]string{"Link", info.Link})
	}
	rows = append(rows, [2]string{"Save to", m.config.OutputDir})

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(styles.Label.Render(row[0]))
		b.WriteString(styles.Text.Render(row[1]))
		b.WriteString("\n")
	}
	return m.panel("Complete", strings.TrimSuffix(b.String(), "\n"), false)
}

func (m Model) renderNotice() string {
	styles := m.theme.Styles()
	switch m.notice.kind {
	case noticeInfo:
		return styles.InfoText.Render(m.notice.text)
	case noticeSuccess:
		return styles.SuccessText.Render(m.notice.text)
	case noticeWarning:
		return styles.WarningText.Render(m.notice.text)
	case noticeError:
		return styles.DangerText.Render(m.notice.text)
	default:
		return ""
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var hints []string
	switch m.snap.Stage {
	case workflow.StageIdle:
		hints = []string{"enter extract"}
	case workflow.StageExtracting, workflow.StageDownloading:
		hints = []string{"esc cancel"}
	case workflow.StageEditing:
		hints = []string{"tab next", "ctrl+s download", "ctrl+o cover source", "ctrl+g split title"}
	case workflow.StageComplete:
		hints = []string{"s save", "a save to", "n new"}
	}
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints, b.Help().Key+" "+strings.ToLower(b.Help().Desc))
	}
	return styles.FaintText.Render(strings.Join(hints, " · "))
}

func (m Model) panel(title, body string, focused bool) string {
	styles := m.theme.Styles()
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	width := m.width - 2
	if width < 24 {
		width = 24
	}
	head := styles.AccentText.Bold(true).Render(title)
	return styles.Panel.
		BorderForeground(lipgloss.Color(border)).
		Width(width).
		Render(head + "\n" + body)
}

// thumbnailLine describes the cover that will be embedded.
func thumbnailLine(snap workflow.Snapshot) string {
	if snap.Source == tags.SourceUploaded {
		switch {
		case snap.UploadName == "":
			return "uploaded (no file selected, no cover will be sent)"
		case !snap.PreviewReady:
			return "uploaded " + snap.UploadName + " (building preview...)"
		default:
			mime := tags.DataURIType(snap.Thumbnail)
			return fmt.Sprintf("uploaded %s (%s, %s preview)", snap.UploadName, mime, humanize.Bytes(uint64(len(snap.Thumbnail))))
		}
	}
	if snap.Thumbnail == "" {
		return "none"
	}
	return snap.Thumbnail
}

func titleOrPlaceholder(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return fmt.Sprintf("%q", truncate(title, 60))
}

// contentWidth is the usable width inside a panel.
func (m Model) contentWidth() int {
	return max(m.width-6, 20)
}
