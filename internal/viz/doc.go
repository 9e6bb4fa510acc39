// Package viz renders fields and sweep results in the terminal.
//
//   - [Heatmap]: character-ramp picture of |ψ|
//   - [Canvas]: Braille pixel buffer for slices and the 3D surface
//   - [Player]: Bubble Tea trajectory player with heatmap, surface and slice views
//   - [Picker]: preset menu used by the live command
//   - [SweepTable]: lipgloss-styled sweep outcome table
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	[ ]   - Step one frame back/forward
//	M     - Cycle views
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// Everything here consumes results; nothing feeds back into a run.
package viz
