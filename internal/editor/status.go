package editor

import (
	"regexp"
	"strings"
	"time"

	"github.com/five82/footctl/internal/autosave"
)

// Status is the one-line message shown under the editor.
type Status struct {
	Text string
	OK   bool
	At   time.Time
}

// The firmware rejects button payloads built from half-edited rows; the
// message is noise while the user is still typing.
var suppressedStatus = regexp.MustCompile(`(?i)button\s+config\s+invalid`)

func (s *Session) setStatus(text string, ok bool) {
	if !ok && suppressedStatus.MatchString(text) {
		text = ""
	}
	s.mu.Lock()
	s.status = Status{Text: text, OK: ok, At: s.now()}
	s.mu.Unlock()
}

// Status returns the current status message.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HandleEvent turns a coordinator transition into a status message.
func (s *Session) HandleEvent(ev autosave.Event) {
	switch ev.Kind {
	case autosave.EventEditing:
		s.setStatus("editing…", true)
	case autosave.EventSaving:
		s.setStatus("saving…", true)
	case autosave.EventSaved:
		if !s.reg.AnySaving() {
			s.setStatus("saved", true)
		}
	case autosave.EventFailed:
		s.setStatus(failureText("save failed", ev.Err), false)
	}
}

func failureText(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	msg := strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", "; ")
	return prefix + ": " + msg
}
