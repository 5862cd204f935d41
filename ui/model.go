// Package ui содержит терминальный интерфейс редактора на bubbletea.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Roman77St/trimsound"
	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/syncer"
)

// Строка, с которой начинается шкала.
const timelineTop = 2

const volumeStep = 5

type mode int

const (
	modeNormal mode = iota
	modeOpen
	modeExport
	modeExporting
	modeModal
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	modalStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Options задаёт настройки интерфейса.
type Options struct {
	Tick   time.Duration
	Device string
	Logger *slog.Logger
}

// Model — модель bubbletea поверх Session.
type Model struct {
	session *trimsound.Session
	opts    Options
	log     *slog.Logger
	ctx     context.Context

	width, height int

	mode     mode
	input    textinput.Model
	spinner  spinner.Model
	modal    string
	modalErr bool
	status   syncer.Status
}

// New создаёт модель. Если в сессии уже открыт файл, Init запустит чтение его волны.
func New(ctx context.Context, s *trimsound.Session, opts Options) Model {
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 60

	return Model{
		session: s,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init запускает таймер и, если файл открыт, чтение волны.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.session.Loaded() {
		cmds = append(cmds, m.waveformCmd(m.session.Path()))
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waveformCmd(path string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		samples, err := s.ExtractWaveform(ctx, path)
		return waveformMsg{path: path, samples: samples, err: err}
	}
}

func (m Model) exportCmd(r export.Request) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		plan, err := s.RunExport(ctx, r)
		if err != nil || !s.CanPublish() {
			return exportDoneMsg{plan: plan, err: err}
		}
		url, err := s.Publish(ctx, r.Output)
		return exportDoneMsg{plan: plan, url: url, err: err}
	}
}

// Update обрабатывает сообщения. Все изменения сессии происходят только здесь.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		rows := m.timelineRows()
		m.session.Resize(float64(m.width), float64(rows))
		m.session.Slider().SetWaveformScale(float64(rows - 1))
		return m, nil

	case tickMsg:
		m.status = m.session.Tick()
		return m, m.tickCmd()

	case playbackStoppedMsg:
		m.session.HandlePlaybackStopped()
		m.status = m.session.Tick()
		return m, nil

	case waveformMsg:
		if msg.err != nil {
			m.log.Warn("waveform unavailable", slog.String("path", msg.path), slog.Any("error", msg.err))
			if msg.path == m.session.Path() {
				m.showModal(fmt.Sprintf("Waveform unavailable: %v", msg.err), true)
			}
			return m, nil
		}
		m.session.SetWaveform(msg.path, msg.samples)
		return m, nil

	case exportDoneMsg:
		switch {
		case msg.err != nil:
			m.showModal(fmt.Sprintf("Export failed: %v", msg.err), true)
		case msg.url != "":
			m.showModal(fmt.Sprintf("Saved %s\nUploaded to %s", msg.plan.Output, msg.url), false)
		default:
			m.showModal(fmt.Sprintf("Saved %s", msg.plan.Output), false)
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode != modeExporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.mode == modeNormal {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	slider := m.session.Slider()
	inside := msg.Y >= timelineTop && msg.Y < timelineTop+m.timelineRows()
	x := float64(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && inside && m.session.Loaded() {
			slider.PointerDown(x)
		}
	case tea.MouseActionMotion:
		slider.PointerMove(x, msg.Button == tea.MouseButtonLeft)
	case tea.MouseActionRelease:
		slider.PointerUp()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.mode {
	case modeModal:
		switch msg.String() {
		case "enter", "esc", " ":
			m.mode, m.modal = modeNormal, ""
		}
		return m, nil

	case modeExporting:
		return m, nil

	case modeOpen, modeExport:
		switch msg.String() {
		case "esc":
			m.mode = modeNormal
			m.input.Blur()
			return m, nil
		case "enter":
			return m.confirmPrompt()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case " ":
		m.report(m.session.TogglePause())
	case "s":
		m.report(m.session.Stop())
	case "+", "=":
		m.session.SetVolume(m.session.Volume() + volumeStep)
	case "-":
		m.session.SetVolume(m.session.Volume() - volumeStep)
	case "o":
		return m.prompt(modeOpen, m.session.Path())
	case "e":
		if !m.session.Loaded() {
			m.report(fmt.Errorf("%w: no file loaded", export.ErrInvalidSelection))
			return m, nil
		}
		return m.prompt(modeExport, m.session.DefaultExportPath())
	}
	return m, nil
}

func (m Model) prompt(md mode, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) confirmPrompt() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.input.Value())
	md := m.mode
	m.mode = modeNormal
	m.input.Blur()
	if path == "" {
		return m, nil
	}

	if md == modeOpen {
		if err := m.session.Open(m.ctx, path, m.opts.Device); err != nil {
			m.report(err)
			return m, nil
		}
		m.status = m.session.Tick()
		return m, m.waveformCmd(path)
	}

	r := m.session.ExportRequest(path)
	if _, err := r.Plan(); err != nil {
		m.report(err)
		return m, nil
	}
	m.mode = modeExporting
	return m, tea.Batch(m.exportCmd(r), m.spinner.Tick)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.session.Close(); err != nil {
		m.log.Warn("close on quit", slog.Any("error", err))
	}
	return m, tea.Quit
}

// report показывает ошибку в модальном окне. nil игнорируется.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.log.Warn("user action failed", slog.Any("error", err))
	m.showModal(err.Error(), true)
}

func (m *Model) showModal(text string, isErr bool) {
	m.mode, m.modal, m.modalErr = modeModal, text, isErr
}

// timelineRows возвращает высоту шкалы: всё, что осталось под заголовком и нижними строками.
func (m Model) timelineRows() int {
	return max(3, m.height-timelineTop-4)
}

// View рисует экран.
func (m Model) View() string {
	var b strings.Builder

	title := "trimsound"
	if m.session.Loaded() {
		title += "  " + filepath.Base(m.session.Path())
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.status.State.String()))
	b.WriteString("\n\n")

	canvas := newTermCanvas(m.width, m.timelineRows())
	m.session.Slider().Paint(canvas)
	b.WriteString(canvas.Render())
	b.WriteString("\n\n")

	b.WriteString(statusStyle.Render(fmt.Sprintf("%s   vol %d%%",
		trimsound.StatusLine(m.status), m.session.Volume())))
	b.WriteString("\n")

	switch m.mode {
	case modeOpen:
		b.WriteString("Open: " + m.input.View())
	case modeExport:
		b.WriteString("Export to: " + m.input.View())
	case modeExporting:
		b.WriteString(m.spinner.View() + " exporting...")
	case modeModal:
		style := modalStyle
		if m.modalErr {
			style = style.BorderForeground(lipgloss.Color("203")).Inherit(errorStyle)
		}
		b.WriteString(style.Render(m.modal + "\n\n" + dimStyle.Render("enter to close")))
	default:
		b.WriteString(dimStyle.Render(helpLine(m.status.State)))
	}
	return b.String()
}

func helpLine(st play.State) string {
	action := "play"
	if st == play.Playing {
		action = "pause"
	}
	return fmt.Sprintf("space %s • s stop • +/- volume • o open • e export • q quit", action)
}
