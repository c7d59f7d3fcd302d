package cmd

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// startProgress shows a spinner with msg on stderr and returns the function that stops it.
// Nothing is drawn when stderr is not a terminal or debug logs would interleave with it.
func startProgress(msg string) func() {
	if cfg.Debug || !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}
