package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/render"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m VolumeFormModel, keys ...string) (VolumeFormModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	var model tea.Model = m
	for _, k := range keys {
		model, cmd = model.Update(keyMsg(k))
	}
	out, ok := model.(VolumeFormModel)
	if !ok {
		t.Fatalf("model type changed: %T", model)
	}
	return out, cmd
}

func newTestForm(submit submitFunc) VolumeFormModel {
	return NewVolumeFormModel(context.Background(), submit, "out.mp4")
}

func TestFormDefaults(t *testing.T) {
	m := newTestForm(nil)
	if m.values[fieldExpr] != "sqrt(x)" {
		t.Errorf("default expression = %q", m.values[fieldExpr])
	}
	view := m.View()
	for _, want := range []string{"Solid of Revolution", "f(x)", "x min", "x max", "quality", "preview"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFormTextEditing(t *testing.T) {
	m := newTestForm(nil)

	// Clear the default expression, then type a new one.
	for range "sqrt(x)" {
		m, _ = update(t, m, "backspace")
	}
	m, _ = update(t, m, "x", "^", "2")

	if m.values[fieldExpr] != "x^2" {
		t.Errorf("expression = %q, want x^2", m.values[fieldExpr])
	}
}

func TestFormNavigationAndQualityCycle(t *testing.T) {
	m := newTestForm(nil)

	m, _ = update(t, m, "down", "down", "down")
	if m.focus != fieldQuality {
		t.Fatalf("focus = %d, want quality field", m.focus)
	}

	m, _ = update(t, m, "right", "right")
	if qualityTiers[m.quality] != render.QualityHigh {
		t.Errorf("quality = %q, want high", qualityTiers[m.quality])
	}
	m, _ = update(t, m, "left")
	if qualityTiers[m.quality] != render.QualityMedium {
		t.Errorf("quality = %q, want medium", qualityTiers[m.quality])
	}

	m, _ = update(t, m, "up", "up", "up")
	if m.focus != fieldExpr {
		t.Errorf("focus = %d, want expression field", m.focus)
	}
}

func TestFormPreviewToggle(t *testing.T) {
	m := newTestForm(nil)
	m.focus = fieldPreview

	m, _ = update(t, m, " ")
	if !m.preview {
		t.Error("preview not toggled on")
	}
	m, _ = update(t, m, " ")
	if m.preview {
		t.Error("preview not toggled off")
	}
}

func TestFormSubmitBuildsVolumeJob(t *testing.T) {
	var got *render.Job
	submit := func(_ context.Context, job *render.Job) (*render.Result, error) {
		got = job
		return &render.Result{ArtifactPath: "out.mp4", Label: "y = sqrt(x)"}, nil
	}

	m := newTestForm(submit)
	m.focus = fieldPreview
	m, cmd := update(t, m, "enter")
	if m.state != stateRendering {
		t.Fatalf("state = %d, want rendering", m.state)
	}
	if cmd == nil {
		t.Fatal("no command issued on submit")
	}

	// Drive the batched command until the render result surfaces.
	msg := drainCmd(t, cmd)
	model, _ := m.Update(msg)
	m = model.(VolumeFormModel)

	if m.state != stateDone {
		t.Fatalf("state = %d, want done", m.state)
	}
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if got == nil {
		t.Fatal("submit never called")
	}
	if got.Scene != render.SceneVolume {
		t.Errorf("scene = %q", got.Scene)
	}
	if got.Expr2D != "sqrt(x)" {
		t.Errorf("Expr2D = %q", got.Expr2D)
	}
	if got.X != (render.AxisRange{Min: 0, Max: 4}) {
		t.Errorf("X = %+v", got.X)
	}
}

// drainCmd executes cmd, unpacking batches, and returns the first
// renderDoneMsg it finds.
func drainCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case renderDoneMsg:
			return msg
		case tea.BatchMsg:
			queue = append(queue, msg...)
		}
	}
	t.Fatal("no renderDoneMsg produced")
	return nil
}

func TestFormSubmitInvalidRangeStaysEditing(t *testing.T) {
	m := newTestForm(func(context.Context, *render.Job) (*render.Result, error) {
		t.Fatal("submit must not run for an invalid form")
		return nil, nil
	})
	m.values[fieldXMin] = "abc"
	m.focus = fieldPreview

	m, _ = update(t, m, "enter")
	if m.state != stateEditing {
		t.Fatalf("state = %d, want editing", m.state)
	}
	if !errors.Is(m.err, errors.ErrCodeInvalidRange) {
		t.Errorf("error code = %q, want INVALID_RANGE", errors.GetCode(m.err))
	}
	if !strings.Contains(m.View(), "is not a number") {
		t.Error("view missing inline error")
	}
}

func TestFormEnterAdvancesBeforeLastField(t *testing.T) {
	m := newTestForm(nil)
	m, _ = update(t, m, "enter")
	if m.focus != fieldXMin {
		t.Errorf("focus = %d, want x min after enter on first field", m.focus)
	}
	if m.state != stateEditing {
		t.Errorf("state = %d, premature submit", m.state)
	}
}

func TestFormRenderFailureShown(t *testing.T) {
	submit := func(context.Context, *render.Job) (*render.Result, error) {
		return nil, errors.New(errors.ErrCodeRenderFailed, "renderer exited with status 1")
	}

	m := newTestForm(submit)
	m.focus = fieldPreview
	m, cmd := update(t, m, "enter")

	msg := drainCmd(t, cmd)
	model, _ := m.Update(msg)
	m = model.(VolumeFormModel)

	if m.state != stateDone {
		t.Fatalf("state = %d, want done", m.state)
	}
	if !errors.Is(m.err, errors.ErrCodeRenderFailed) {
		t.Errorf("error code = %q, want RENDER_FAILED", errors.GetCode(m.err))
	}
}
