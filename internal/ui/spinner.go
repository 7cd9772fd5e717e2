package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner displays an animated spinner with a message while a request is in
// flight. It writes to stderr so stdout stays clean for pipes.
type Spinner struct {
	out     io.Writer
	animate bool
	message string
	frames  []string
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	current int
	started bool
}

// Default spinner frames (dots style)
var defaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner on stderr. It only animates when stderr is a terminal.
func NewSpinner(message string) *Spinner {
	return newSpinner(os.Stderr, isTerminal(os.Stderr.Fd()), message)
}

// newSpinner creates a spinner on out; animate=false makes Start and Stop silent.
func newSpinner(out io.Writer, animate bool, message string) *Spinner {
	return &Spinner{
		out:     out,
		animate: animate,
		message: message,
		frames:  defaultFrames,
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.animate {
		return
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				// Clear the spinner line
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := s.frames[s.current%len(s.frames)]
				s.current++
				s.mu.Unlock()
				fmt.Fprintf(s.out, "\r%s %s", Bold.Render(frame), s.message)
			}
		}
	}()
}

// Stop stops the spinner and clears its line.
func (s *Spinner) Stop() {
	if !s.started {
		return
	}
	s.started = false
	close(s.done)
	s.wg.Wait()
}
