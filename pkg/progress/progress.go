// Package progress renders the status shown while a check runs. States are
// plain values so callers can return them from a check instead of mutating
// a shared spinner.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

type Color string

const (
	ColorNone   Color = ""
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
)

var finalColors = map[Color]color.Attribute{
	ColorYellow: color.FgYellow,
	ColorGreen:  color.FgGreen,
	ColorRed:    color.FgRed,
}

const (
	spinnerCharSet = 14
	spinnerDelay   = 100 * time.Millisecond
)

// State is what the status line currently says.
type State struct {
	Text  string `json:"text"`
	Color Color  `json:"color,omitempty"`
}

func Checking() State {
	return State{Text: "Checking for available phones..."}
}

func Searching() State {
	return State{Text: "Searching for iphones...", Color: ColorYellow}
}

func Found() State {
	return State{Text: "✔︎ Found iphone!", Color: ColorGreen}
}

func NoneAvailable(at time.Time) State {
	return State{Text: fmt.Sprintf("✘ None available as of %s :(", at.Format(time.RFC1123)), Color: ColorRed}
}

func Failed(err error) State {
	return State{Text: fmt.Sprintf("✘ Check failed: %v", err), Color: ColorRed}
}

// Spinner shows states on a terminal spinner. Without a terminal every
// state is printed once on its own line with no escape sequences.
//
// Persist stops the spinner and leaves the last state on screen. Anything
// else writing to the same output should call Persist first.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	spin    *spinner.Spinner
	current State
	dirty   bool
}

func NewSpinner(w io.Writer, terminal bool) *Spinner {
	p := &Spinner{w: w}
	if !terminal {
		return p
	}

	opts := []spinner.Option{spinner.WithHiddenCursor(true)}
	if f, ok := w.(*os.File); ok {
		opts = append(opts, spinner.WithWriterFile(f))
	} else {
		opts = append(opts, spinner.WithWriter(w))
	}
	p.spin = spinner.New(spinner.CharSets[spinnerCharSet], spinnerDelay, opts...)
	return p
}

func (p *Spinner) Render(s State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
	p.dirty = true

	if p.spin == nil {
		fmt.Fprintln(p.w, s.Text)
		return
	}

	p.spin.Lock()
	p.spin.Suffix = " " + s.Text
	p.spin.Unlock()
	_ = p.spin.Color(spinnerColor(s.Color))
	if !p.spin.Active() {
		p.spin.Start()
	}
}

// Persist ends the status line, leaving the last rendered state printed.
func (p *Spinner) Persist() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return
	}
	p.dirty = false

	if p.spin == nil {
		return
	}
	final := colorize(p.current) + "\n"
	if !p.spin.Active() {
		// the spinner refuses to start when the output is not a tty
		fmt.Fprint(p.w, final)
		return
	}
	p.spin.Lock()
	p.spin.FinalMSG = final
	p.spin.Unlock()
	p.spin.Stop()
}

// Current returns the last rendered state.
func (p *Spinner) Current() State {
	if p == nil {
		return State{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func spinnerColor(c Color) string {
	if c == ColorNone {
		return "reset"
	}
	return string(c)
}

func colorize(s State) string {
	attr, ok := finalColors[s.Color]
	if !ok {
		return s.Text
	}
	return color.New(attr).Sprint(s.Text)
}
