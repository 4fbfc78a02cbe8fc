package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner displays a progress animation on a terminal while a slow
// operation runs. Stop, Success and Fail are safe to call more than
// once; only the first call takes effect.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string
	done    chan struct{}
	once    sync.Once
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		done:    make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		fmt.Fprintf(s.w, "\r%s %s", s.frames[0], s.message)
		for i := 1; ; i++ {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			}
		}
	}()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.stop("\r\033[K")
}

// Success halts the animation and prints a checkmark with the message.
func (s *Spinner) Success(message string) {
	s.stop(fmt.Sprintf("\r✓ %s\n", message))
}

// Fail halts the animation and prints a cross with the message.
func (s *Spinner) Fail(message string) {
	s.stop(fmt.Sprintf("\r✗ %s\n", message))
}

func (s *Spinner) stop(final string) {
	s.once.Do(func() {
		close(s.done)
		fmt.Fprint(s.w, final)
	})
}
