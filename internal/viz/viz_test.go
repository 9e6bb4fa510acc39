package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(3, 2)
	c.Set(1, 5)
	if !c.On(1, 5) {
		t.Error("pixel (1,5) not lit")
	}
	if c.On(0, 5) {
		t.Error("neighbor lit")
	}
	c.Set(-1, 0)
	c.Set(100, 100)
	c.Clear()
	if c.On(1, 5) {
		t.Error("Clear left pixels lit")
	}
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
}

func TestCanvasDrawSeries(t *testing.T) {
	c := NewCanvas(10, 4)
	c.DrawSeries([]float64{-1, 1}, -1, 1)
	pw, ph := c.Pixels()
	if !c.On(0, ph-1) {
		t.Error("series should start at the bottom-left")
	}
	if !c.On(pw-1, 0) {
		t.Error("series should end at the top-right")
	}
}

func TestHeatmap(t *testing.T) {
	f := dynamo.NewField(4, 4)
	f.Set(3, 3, 2) // largest x, largest y: top-right
	f.Set(0, 0, 1) // bottom-left

	rows := strings.Split(strings.TrimSuffix(Heatmap(f, 4, 4, 0), "\n"), "\n")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][3] != Ramp[len(Ramp)-1] {
		t.Errorf("top-right = %q, want %q", rows[0][3], Ramp[len(Ramp)-1])
	}
	if rows[3][0] == ' ' || rows[3][0] == Ramp[len(Ramp)-1] {
		t.Errorf("bottom-left = %q, want a mid-ramp character", rows[3][0])
	}
	if rows[1][1] != ' ' {
		t.Errorf("empty cell = %q", rows[1][1])
	}
}

func TestHeatmapDownsamples(t *testing.T) {
	f := dynamo.NewField(40, 30)
	for k := range f.Data {
		f.Data[k] = 1
	}
	cells := Downsample(f, 8, 5)
	if len(cells) != 5 || len(cells[0]) != 8 {
		t.Fatalf("shape = %dx%d, want 5x8", len(cells), len(cells[0]))
	}
	for _, row := range cells {
		for _, v := range row {
			if v != 1 {
				t.Fatalf("block average = %v, want 1", v)
			}
		}
	}
}

func TestHeatmapNonFinite(t *testing.T) {
	f := dynamo.NewField(2, 2)
	f.Data[0] = 1
	f.Data[1] = math.NaN()
	if !strings.Contains(Heatmap(f, 2, 2, 1), "!") {
		t.Error("non-finite cell not flagged")
	}
}

func TestSurfaceProjectsInsideCanvas(t *testing.T) {
	f := dynamo.NewField(9, 9)
	f.Set(4, 4, 1)
	w := SurfaceWireframe(f, 2, 0)
	if len(w.Edges) == 0 {
		t.Fatal("no edges")
	}
	c := NewCanvas(30, 12)
	Render3D(c, w, NewCamera())
	lit := false
	pw, ph := c.Pixels()
	for x := 0; x < pw && !lit; x++ {
		for y := 0; y < ph; y++ {
			if c.On(x, y) {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("surface rendered nothing")
	}
}

func frames(n int) []sim.Snapshot {
	out := make([]sim.Snapshot, n)
	for i := range out {
		f := dynamo.NewField(8, 8)
		f.Set(4, 4, float64(i+1))
		out[i] = sim.Snapshot{Step: i * 10, Time: float64(i), Field: f}
	}
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayerPlayback(t *testing.T) {
	var m tea.Model = NewPlayer("ring", frames(3), false)

	m, _ = m.Update(TickMsg{})
	m, _ = m.Update(TickMsg{})
	m, _ = m.Update(TickMsg{})
	snap, ok := m.(Player).Current()
	if !ok || snap.Step != 20 {
		t.Fatalf("after ticks, step = %d, want the last frame (20)", snap.Step)
	}

	m, _ = m.Update(key("["))
	snap, _ = m.(Player).Current()
	if snap.Step != 10 {
		t.Errorf("after scrub back, step = %d, want 10", snap.Step)
	}
	m, _ = m.Update(TickMsg{})
	if snap, _ = m.(Player).Current(); snap.Step != 10 {
		t.Error("scrubbing should pause playback")
	}

	m, _ = m.Update(key("r"))
	if snap, _ = m.(Player).Current(); snap.Step != 0 {
		t.Errorf("rewind: step = %d", snap.Step)
	}

	for _, k := range []string{"m", "m", "m"} {
		m, _ = m.Update(key(k))
		if view := m.View(); !strings.Contains(view, "RING") {
			t.Errorf("view after %q lacks the title", k)
		}
	}
}

func TestPlayerStreaming(t *testing.T) {
	var m tea.Model = NewPlayer("live", nil, true)
	if !strings.Contains(m.View(), "waiting") {
		t.Error("empty player should say it is waiting")
	}

	var sent []tea.Msg
	sink := StreamSink{Send: func(msg tea.Msg) { sent = append(sent, msg) }}
	for _, s := range frames(2) {
		if err := sink.Write(s); err != nil {
			t.Fatal(err)
		}
	}
	for _, msg := range sent {
		m, _ = m.Update(msg)
	}
	m, _ = m.Update(TickMsg{})
	if snap, _ := m.(Player).Current(); snap.Step != 10 {
		t.Errorf("step = %d, want 10", snap.Step)
	}

	m, _ = m.Update(DoneMsg{Err: errors.New("diverged")})
	if !strings.Contains(m.View(), "diverged") {
		t.Error("run error not shown")
	}
}

func TestStreamSinkCopies(t *testing.T) {
	var got FrameMsg
	sink := StreamSink{Send: func(msg tea.Msg) { got = msg.(FrameMsg) }}
	f := dynamo.NewField(2, 2)
	_ = sink.Write(sim.Snapshot{Field: f})
	f.Data[0] = 9
	if got.Field.Data[0] != 0 {
		t.Error("sink must copy the field before it is reused")
	}
}

func TestPicker(t *testing.T) {
	var m tea.Model = NewPicker("presets", []PickerItem{{Name: "a"}, {Name: "b"}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should quit")
	}
	if name, ok := m.(Picker).Chosen(); !ok || name != "b" {
		t.Errorf("chosen = %q, %v", name, ok)
	}
}

func TestSweepTable(t *testing.T) {
	res := &analysis.SweepResult{
		Axes: []string{"beta"},
		Entries: []analysis.Entry{
			{Point: optim.Point{Names: []string{"beta"}, Values: []float64{0.03}}, Outcome: analysis.StablePattern, DivergedAt: -1, TerminalMean: 0.1},
			{Point: optim.Point{Names: []string{"beta"}, Values: []float64{1}}, Outcome: analysis.Diverged, DivergedAt: 17},
		},
	}
	out := SweepTable(res)
	for _, want := range []string{"beta", "stable-pattern", "diverged", "17"} {
		if !strings.Contains(out, want) {
			t.Errorf("table lacks %q:\n%s", want, out)
		}
	}
}
