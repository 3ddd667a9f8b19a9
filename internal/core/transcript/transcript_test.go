package transcript

import (
	"strings"
	"testing"
	"time"
)

func fixedLog(at time.Time) *Log {
	l := NewLog()
	l.now = func() time.Time { return at }
	return l
}

func TestFlushTurnUserBeforeAgent(t *testing.T) {
	l := fixedLog(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC))
	l.AddUserFragment("I led the ")
	l.AddUserFragment("migration project.")
	l.AddAgentFragment("What was the hardest part?")
	added := l.FlushTurn()
	if len(added) != 2 {
		t.Fatalf("flush added %d entries, want 2", len(added))
	}
	if added[0].Speaker != SpeakerUser || added[1].Speaker != SpeakerAgent {
		t.Fatalf("unexpected order: %s then %s", added[0].Speaker, added[1].Speaker)
	}
	if added[0].Text != "I led the migration project." {
		t.Fatalf("fragments not concatenated: %q", added[0].Text)
	}
	// Accumulators must be empty immediately after the flush.
	if again := l.FlushTurn(); len(again) != 0 {
		t.Fatalf("second flush produced %d entries, want 0", len(again))
	}
	if l.Len() != 2 {
		t.Fatalf("log has %d entries, want 2", l.Len())
	}
}

func TestFlushTurnSkipsWhitespaceOnly(t *testing.T) {
	l := fixedLog(time.Now())
	l.AddUserFragment("   \n ")
	l.AddAgentFragment("Tell me about yourself.")
	added := l.FlushTurn()
	if len(added) != 1 {
		t.Fatalf("flush added %d entries, want 1", len(added))
	}
	if added[0].Speaker != SpeakerAgent {
		t.Fatalf("expected agent entry, got %s", added[0].Speaker)
	}
}

func TestResetClearsEverything(t *testing.T) {
	l := fixedLog(time.Now())
	l.AddUserFragment("hello")
	l.FlushTurn()
	l.AddAgentFragment("pending text")
	l.Reset()
	if l.Len() != 0 {
		t.Fatalf("entries survived reset")
	}
	if added := l.FlushTurn(); len(added) != 0 {
		t.Fatalf("pending text survived reset")
	}
}

func TestExportFormat(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC)
	entries := []Entry{
		{Speaker: SpeakerAgent, Text: "Tell me about yourself.", Timestamp: at},
		{Speaker: SpeakerUser, Text: "I'm a backend engineer.", Timestamp: at.Add(12 * time.Second)},
	}
	out := Export(entries)
	want := "[09:05:07] Interviewer: Tell me about yourself.\n\n[09:05:19] Candidate: I'm a backend engineer."
	if out != want {
		t.Fatalf("export mismatch:\n%q\nwant\n%q", out, want)
	}
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 5, 7, 123000000, time.UTC)
	name := ExportFilename(at)
	if name != "interview-transcript-2025-03-01T09-05-07-123Z.txt" {
		t.Fatalf("unexpected filename %q", name)
	}
	if strings.ContainsAny(name, ":.") && !strings.HasSuffix(name, ".txt") {
		t.Fatalf("filename carries unsafe characters: %q", name)
	}
}
