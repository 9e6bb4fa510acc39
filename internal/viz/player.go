package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/helixwave/internal/sim"
)

const (
	viewWidth  = 64
	viewHeight = 24
	frameRate  = time.Second / 20
	gifCell    = 4
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// FrameMsg delivers a snapshot from a running simulation.
type FrameMsg sim.Snapshot

// DoneMsg marks the end of a streamed run; Err is the run error, if any.
type DoneMsg struct{ Err error }

type viewMode int

const (
	modeHeatmap viewMode = iota
	modeSurface
	modeSlice
)

// Player replays a trajectory, either fully recorded or still arriving via
// FrameMsg, as a heatmap, a 3D surface or a mid-grid slice.
type Player struct {
	title     string
	frames    []sim.Snapshot
	amplitude []float64
	head      int
	running   bool
	done      bool
	err       error
	mode      viewMode
	camera    *Camera
	canvas    *Canvas
	scale     float64
	recording bool
	gifFrames []*image.Paletted
	gifPath   string
	showHelp  bool
}

// NewPlayer starts paused on the first frame. The heatmap scale is fixed to
// the largest |ψ| seen so brightness is comparable across frames.
func NewPlayer(title string, frames []sim.Snapshot, streaming bool) Player {
	p := Player{
		title:   title,
		running: true,
		done:    !streaming,
		camera:  NewCamera(),
		canvas:  NewCanvas(viewWidth, viewHeight),
		gifPath: "helixwave.gif",
	}
	for _, f := range frames {
		p.push(f)
	}
	return p
}

func (p *Player) push(s sim.Snapshot) {
	p.frames = append(p.frames, s)
	p.amplitude = append(p.amplitude, s.Field.MeanAbs())
	if peak, _ := s.Field.MaxAbs(); peak > p.scale {
		p.scale = peak
	}
}

func (p Player) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		case " ":
			p.running = !p.running
		case "[":
			p.scrub(-1)
		case "]":
			p.scrub(1)
		case "r":
			p.head = 0
		case "end":
			p.head = max(0, len(p.frames)-1)
		case "m":
			p.mode = (p.mode + 1) % 3
		case "x":
			p.camera.RotateX(0.1)
		case "X":
			p.camera.RotateX(-0.1)
		case "y":
			p.camera.RotateY(0.1)
		case "Y":
			p.camera.RotateY(-0.1)
		case "+", "=":
			p.camera.ZoomIn()
		case "-", "_":
			p.camera.ZoomOut()
		case "g":
			if p.recording {
				p.saveGIF()
				p.recording, p.gifFrames = false, nil
			} else {
				p.recording = true
			}
		case "?":
			p.showHelp = !p.showHelp
		}
	case FrameMsg:
		p.push(sim.Snapshot(msg))
	case DoneMsg:
		p.done, p.err = true, msg.Err
	case TickMsg:
		if p.running && p.head < len(p.frames)-1 {
			p.head++
			if p.recording {
				p.captureFrame()
			}
		}
		return p, tick()
	}
	return p, nil
}

func (p *Player) scrub(dir int) {
	p.running = false
	p.head = max(0, min(len(p.frames)-1, p.head+dir))
}

// Current returns the frame under the play head.
func (p Player) Current() (sim.Snapshot, bool) {
	if p.head < 0 || p.head >= len(p.frames) {
		return sim.Snapshot{}, false
	}
	return p.frames[p.head], true
}

func (p Player) View() string {
	snap, ok := p.Current()
	if !ok {
		return "\n  waiting for the first frame...\n"
	}

	var picture string
	switch p.mode {
	case modeSurface:
		p.canvas.Clear()
		Render3D(p.canvas, SurfaceWireframe(snap.Field, max(1, snap.Field.NX/24), p.scale), p.camera)
		picture = p.canvas.String()
	case modeSlice:
		p.canvas.Clear()
		p.canvas.DrawSeries(Slice(snap.Field), -p.scale, p.scale)
		picture = p.canvas.String()
	default:
		picture = Heatmap(snap.Field, viewWidth, viewHeight, p.scale)
	}

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(p.title)) + "\n")
	s.WriteString(p.status() + "\n\n")
	if p.head > 0 {
		chart := asciigraph.Plot(p.amplitude[:p.head+1], asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("mean|psi|"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	peak, _ := snap.Field.MaxAbs()
	s.WriteString(MetricLabel.Render("Step") + MetricValue.Render(fmt.Sprintf("%d", snap.Step)) + "\n")
	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.3f", snap.Time)) + "\n")
	s.WriteString(MetricLabel.Render("Frame") + MetricValue.Render(fmt.Sprintf("%d/%d", p.head+1, len(p.frames))) + "\n")
	s.WriteString(MetricLabel.Render("mean|psi|") + MetricValue.Render(fmt.Sprintf("%.4g", p.amplitude[p.head])) + "\n")
	s.WriteString(MetricLabel.Render("max|psi|") + MetricValue.Render(fmt.Sprintf("%.4g", peak)) + "\n")
	s.WriteString(helpStyle.Render("SP:Pause [ ]:Scrub R:Rewind\nM:View G:Record ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(picture), statsStyle.Render(s.String()))
	if p.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (p Player) status() string {
	switch {
	case p.err != nil:
		return StatusFailed.Render("STOPPED: " + p.err.Error())
	case p.recording:
		return StatusFailed.Render("● REC")
	case !p.running:
		return StatusPaused.Render("PAUSED")
	case !p.done:
		return StatusRunning.Render("SIMULATING")
	}
	return StatusRunning.Render("PLAYING")
}

const helpText = `
  Space    pause / resume
  [ ]      step back / forward one frame
  R, End   jump to first / last frame
  M        cycle heatmap, surface and slice views
  x y      rotate the surface (shift reverses)
  + -      zoom the surface
  G        toggle GIF recording
  Q        quit
`

// captureFrame paints the current heatmap into a grayscale GIF frame.
func (p *Player) captureFrame() {
	snap, ok := p.Current()
	if !ok {
		return
	}
	cells := Downsample(snap.Field, viewWidth, viewHeight)
	if len(cells) == 0 {
		return
	}
	palette := make(color.Palette, 16)
	for k := range palette {
		v := uint8(k * 17)
		palette[k] = color.Gray{Y: v}
	}
	img := image.NewPaletted(image.Rect(0, 0, len(cells[0])*gifCell, len(cells)*gifCell), palette)
	for r, row := range cells {
		for c, v := range row {
			idx := uint8(0)
			if p.scale > 0 {
				idx = uint8(min(15, max(0, int(v/p.scale*15+0.5))))
			}
			for y := 0; y < gifCell; y++ {
				for x := 0; x < gifCell; x++ {
					img.SetColorIndex(c*gifCell+x, r*gifCell+y, idx)
				}
			}
		}
	}
	p.gifFrames = append(p.gifFrames, img)
}

func (p *Player) saveGIF() {
	if len(p.gifFrames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range p.gifFrames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 5)
	}
	f, err := os.Create(p.gifPath)
	if err != nil {
		p.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		p.err = err
	}
}

// StreamSink forwards recorded snapshots of a running simulation to a
// bubbletea program as FrameMsg values.
type StreamSink struct {
	Send func(tea.Msg)
}

func (s StreamSink) Write(snap sim.Snapshot) error {
	snap.Field = snap.Field.Clone()
	s.Send(FrameMsg(snap))
	return nil
}

func (s StreamSink) Flush() error { return nil }

// NewProgram wraps a player in a full-screen program. Streamed runs send
// FrameMsg and DoneMsg to it through Send.
func NewProgram(p Player, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(p, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
