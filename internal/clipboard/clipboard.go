package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard receives rendered message text.
type Clipboard interface {
	WriteAll(text string) error
}

// writeAll is a package-level variable to allow mocking in tests.
var writeAll = clipboard.WriteAll

// System writes to the clipboard of the machine the process runs on.
type System struct{}

func (System) WriteAll(text string) error {
	return writeAll(text)
}

// Available reports whether a clipboard utility was found on this machine.
func Available() bool {
	return !clipboard.Unsupported
}

// Recorder keeps the last written text in memory. It is used by the HTTP
// server, where the browser performs the real clipboard write.
type Recorder struct {
	mu   sync.Mutex
	last string
	n    int
}

func (r *Recorder) WriteAll(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = text
	r.n++
	return nil
}

// Last returns the most recent text and how many writes happened.
func (r *Recorder) Last() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.n
}

var (
	_ Clipboard = System{}
	_ Clipboard = (*Recorder)(nil)
)
