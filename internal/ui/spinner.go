package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner shows progress while a completion is pending. It draws on stderr so stdout stays pipeable.
type Spinner struct {
	frames   []string
	interval time.Duration
	out      io.Writer
	message  string
	started  time.Time
	stop     chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// SpinnerFrames defines the available animations
var SpinnerFrames = struct {
	Dots []string
	Line []string
}{
	Dots: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	Line: []string{"-", "\\", "|", "/"},
}

// NewSpinner creates a spinner writing to stderr
func NewSpinner() *Spinner {
	return NewSpinnerTo(os.Stderr)
}

// NewSpinnerTo creates a spinner writing to w
func NewSpinnerTo(w io.Writer) *Spinner {
	return &Spinner{
		frames:   SpinnerFrames.Dots,
		interval: 80 * time.Millisecond,
		out:      w,
	}
}

// Start begins the animation. The elapsed time is shown next to the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.message = message
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		i := 0
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.draw(i)
		for {
			select {
			case <-stop:
				fmt.Fprint(s.out, "\r\033[K")
				close(done)
				return
			case <-ticker.C:
				i = (i + 1) % len(s.frames)
				s.draw(i)
			}
		}
	}()
}

func (s *Spinner) draw(i int) {
	s.mu.Lock()
	msg, elapsed := s.message, time.Since(s.started)
	s.mu.Unlock()

	frame := SpinnerStyle.Render(s.frames[i])
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", frame, msg, Subtle.Render(fmt.Sprintf("(%.0fs)", elapsed.Seconds())))
}

// Stop halts the animation and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// UpdateMessage changes the message while running
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// IsRunning returns whether the spinner is active
func (s *Spinner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
