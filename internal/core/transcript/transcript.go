package transcript

import (
	"strings"
	"sync"
	"time"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Entry is one finalized utterance. Immutable once appended.
type Entry struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

// Log collects finalized utterances for one interview plus the two
// not-yet-finalized accumulators (one per speaker) that the live stream
// fills fragment by fragment until a turn boundary.
type Log struct {
	mu           sync.Mutex
	entries      []Entry
	pendingUser  strings.Builder
	pendingAgent strings.Builder
	now          func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Reset clears everything for a fresh session.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.pendingUser.Reset()
	l.pendingAgent.Reset()
	l.mu.Unlock()
}

// AddUserFragment appends a partial input transcription.
func (l *Log) AddUserFragment(text string) {
	l.mu.Lock()
	l.pendingUser.WriteString(text)
	l.mu.Unlock()
}

// AddAgentFragment appends a partial output transcription.
func (l *Log) AddAgentFragment(text string) {
	l.mu.Lock()
	l.pendingAgent.WriteString(text)
	l.mu.Unlock()
}

// FlushTurn finalizes both accumulators at a turn boundary: a trimmed
// non-empty user entry first, then the agent entry, both stamped with
// the same wall-clock time. Accumulators are empty afterwards. The
// newly appended entries are returned for the caller to broadcast.
func (l *Log) FlushTurn() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	var added []Entry
	if text := strings.TrimSpace(l.pendingUser.String()); text != "" {
		added = append(added, Entry{Speaker: SpeakerUser, Text: text, Timestamp: now})
	}
	l.pendingUser.Reset()
	if text := strings.TrimSpace(l.pendingAgent.String()); text != "" {
		added = append(added, Entry{Speaker: SpeakerAgent, Text: text, Timestamp: now})
	}
	l.pendingAgent.Reset()
	l.entries = append(l.entries, added...)
	return added
}

// Entries returns a copy of the finalized log.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of finalized entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Label maps a speaker to its display name in exports and prompts.
func Label(s Speaker) string {
	if s == SpeakerAgent {
		return "Interviewer"
	}
	return "Candidate"
}

// Export renders the log as plain text, one line per entry with a
// blank line between entries.
func Export(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, "["+e.Timestamp.Format("15:04:05")+"] "+Label(e.Speaker)+": "+e.Text)
	}
	return strings.Join(lines, "\n\n")
}

// ExportFilename names a transcript download after the export instant,
// with the characters that are unsafe in filenames replaced.
func ExportFilename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "interview-transcript-" + stamp + ".txt"
}
