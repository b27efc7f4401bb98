// Package ui implements the terminal interface for batch verification runs.
//
// The TUI is built with [bubbletea] and displays live progress while a batch
// runs: the current track, per-phase status, and a final summary with the
// tracks that failed. Progress arrives on the same channel the orchestrators
// write to, bridged into the bubbletea message loop one update at a time.
//
// [bubbletea]: https://github.com/charmbracelet/bubbletea
package ui
