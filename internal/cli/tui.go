package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/render"
)

// Form styles.
var (
	formFocusedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	formNormalStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	formDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	formErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

// form field indices, top to bottom.
const (
	fieldExpr = iota
	fieldXMin
	fieldXMax
	fieldQuality
	fieldPreview
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"f(x)",
	"x min",
	"x max",
	"quality",
	"preview",
}

var qualityTiers = []render.Quality{
	render.QualityFast,
	render.QualityMedium,
	render.QualityHigh,
	render.QualityUltra,
}

// formState tracks which phase the form is in.
type formState int

const (
	stateEditing formState = iota
	stateRendering
	stateDone
)

// submitFunc runs one render job; injected so tests can fake the renderer.
type submitFunc func(context.Context, *render.Job) (*render.Result, error)

// renderDoneMsg reports the finished render back to the update loop.
type renderDoneMsg struct {
	result *render.Result
	err    error
}

// spinTickMsg advances the spinner while a render is in flight.
type spinTickMsg struct{}

// VolumeFormModel is the bubbletea model for the interactive volume form.
// Text fields are edited in place; the quality field cycles with left/right
// and the preview field toggles with space or enter.
type VolumeFormModel struct {
	ctx    context.Context
	submit submitFunc
	output string

	values  [fieldCount]string
	focus   int
	quality int
	preview bool

	state  formState
	frame  int
	result *render.Result
	err    error
}

// NewVolumeFormModel creates the form with the given defaults pre-filled.
func NewVolumeFormModel(ctx context.Context, submit submitFunc, output string) VolumeFormModel {
	m := VolumeFormModel{ctx: ctx, submit: submit, output: output}
	m.values[fieldExpr] = "sqrt(x)"
	m.values[fieldXMin] = "0"
	m.values[fieldXMax] = "4"
	return m
}

func (m VolumeFormModel) Init() tea.Cmd {
	return nil
}

func (m VolumeFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case renderDoneMsg:
		m.state = stateDone
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinTickMsg:
		if m.state != stateRendering {
			return m, nil
		}
		m.frame++
		return m, spinTick()
	}
	return m, nil
}

func (m VolumeFormModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateRendering {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "shift+tab":
		if m.focus > 0 {
			m.focus--
		}
	case "down", "tab":
		if m.focus < fieldCount-1 {
			m.focus++
		}
	case "left":
		if m.focus == fieldQuality && m.quality > 0 {
			m.quality--
		}
	case "right":
		if m.focus == fieldQuality && m.quality < len(qualityTiers)-1 {
			m.quality++
		}
	case " ":
		if m.focus == fieldPreview {
			m.preview = !m.preview
		} else if m.editableField() {
			m.values[m.focus] += " "
		}
	case "enter":
		if m.focus < fieldCount-1 {
			m.focus++
			return m, nil
		}
		return m.startRender()
	case "backspace":
		if m.editableField() && len(m.values[m.focus]) > 0 {
			v := []rune(m.values[m.focus])
			m.values[m.focus] = string(v[:len(v)-1])
		}
	default:
		if m.editableField() && msg.Type == tea.KeyRunes {
			m.values[m.focus] += string(msg.Runes)
		}
	}
	return m, nil
}

// editableField reports whether the focused field takes free text.
func (m VolumeFormModel) editableField() bool {
	return m.focus == fieldExpr || m.focus == fieldXMin || m.focus == fieldXMax
}

// startRender validates the form and kicks off the render as a tea.Cmd so
// the UI stays responsive while the child process runs.
func (m VolumeFormModel) startRender() (tea.Model, tea.Cmd) {
	job, err := m.buildJob()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.state = stateRendering

	submit, ctx := m.submit, m.ctx
	run := func() tea.Msg {
		res, err := submit(ctx, job)
		return renderDoneMsg{result: res, err: err}
	}
	return m, tea.Batch(run, spinTick())
}

func (m VolumeFormModel) buildJob() (*render.Job, error) {
	r, err := parseRange(m.values[fieldXMin] + "," + m.values[fieldXMax])
	if err != nil {
		return nil, err
	}
	return &render.Job{
		Scene:      render.SceneVolume,
		Expr2D:     m.values[fieldExpr],
		X:          r,
		Quality:    qualityTiers[m.quality],
		Preview:    m.preview,
		OutputPath: m.output,
	}, nil
}

func spinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinTickMsg{}
	})
}

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m VolumeFormModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Solid of Revolution"))
	b.WriteString("\n")
	b.WriteString(formDimStyle.Render("↑/↓ move  ←/→ cycle quality  ⏎ on last field renders  esc quits"))
	b.WriteString("\n\n")

	if m.state == stateRendering {
		frame := spinFrames[m.frame%len(spinFrames)]
		b.WriteString(styleIconSpinner.Render(frame))
		b.WriteString(" ")
		b.WriteString(formDimStyle.Render("Rendering " + m.values[fieldExpr] + "..."))
		b.WriteString("\n")
		return b.String()
	}

	for i := 0; i < fieldCount; i++ {
		cursor := "  "
		if i == m.focus {
			cursor = "▸ "
		}

		var value string
		switch i {
		case fieldQuality:
			value = string(qualityTiers[m.quality])
		case fieldPreview:
			if m.preview {
				value = "on"
			} else {
				value = "off"
			}
		default:
			value = m.values[i]
			if i == m.focus {
				value += "▏"
			}
		}

		line := fmt.Sprintf("%s%-8s %s", cursor, fieldLabels[i], value)
		if i == m.focus {
			b.WriteString(formFocusedStyle.Render(line))
		} else {
			b.WriteString(formNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(iconError + " " + errors.UserMessage(m.err)))
		b.WriteString("\n")
	}

	return b.String()
}

// runVolumeForm drives the interactive volume form and reports the outcome
// the same way the direct command does.
func (c *CLI) runVolumeForm(ctx context.Context, opts *renderOpts) error {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	sub := c.newSubmitter(ctx, cfg, opts.noCache)
	output := opts.outputPath(cfg, render.SceneVolume)

	model := NewVolumeFormModel(ctx, sub.Submit, output)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	m, ok := final.(VolumeFormModel)
	if !ok || m.state != stateDone {
		return nil // user backed out
	}
	if m.err != nil {
		printError("%s", errors.UserMessage(m.err))
		return m.err
	}
	printSuccess("%s", StyleValue.Render(m.result.ArtifactPath))
	printDetail("label: %s", m.result.Label)
	return nil
}
