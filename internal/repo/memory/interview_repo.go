package memory

import (
	"sync"
	"time"

	"github.com/voxprep/voxprep-backend/internal/core/interview"
	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/pkg/types"
)

// Interview is the stored record of one interview, live or finished.
type Interview struct {
	ID        string
	CreatedAt time.Time
	Type      interview.Type
	Budget    time.Duration
	Locale    string

	mu       sync.Mutex
	status   interview.Status
	elapsed  int
	blocks   int64
	entries  []transcript.Entry
	feedback *types.FeedbackReport
}

type InterviewRepo struct {
	m sync.Map
}

func NewInterviewRepo() *InterviewRepo {
	return &InterviewRepo{}
}

func (r *InterviewRepo) Save(iv *Interview) {
	if iv.status == "" {
		iv.status = interview.StatusIdle
	}
	r.m.Store(iv.ID, iv)
}

func (r *InterviewRepo) Get(id string) (*Interview, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Interview), true
}

func (iv *Interview) SetStatus(s interview.Status, elapsed int) {
	iv.mu.Lock()
	iv.status = s
	iv.elapsed = elapsed
	iv.mu.Unlock()
}

func (iv *Interview) AppendEntries(entries []transcript.Entry) {
	iv.mu.Lock()
	iv.entries = append(iv.entries, entries...)
	iv.mu.Unlock()
}

// ResetTranscript clears stored entries when a fresh session starts on
// the same interview record.
func (iv *Interview) ResetTranscript() {
	iv.mu.Lock()
	iv.entries = nil
	iv.feedback = nil
	iv.mu.Unlock()
}

func (iv *Interview) SetFeedback(r *types.FeedbackReport) {
	iv.mu.Lock()
	iv.feedback = r
	iv.mu.Unlock()
}

func (iv *Interview) IncBlocks() {
	iv.mu.Lock()
	iv.blocks++
	iv.mu.Unlock()
}

func (iv *Interview) Entries() []transcript.Entry {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	out := make([]transcript.Entry, len(iv.entries))
	copy(out, iv.entries)
	return out
}

// Summary renders the record for the REST surface.
func (iv *Interview) Summary() types.SummaryResp {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	entries := make([]types.TranscriptEntry, 0, len(iv.entries))
	for _, e := range iv.entries {
		entries = append(entries, types.TranscriptEntry{
			Speaker:   string(e.Speaker),
			Text:      e.Text,
			Timestamp: e.Timestamp.Format("15:04:05"),
		})
	}
	return types.SummaryResp{
		InterviewID:    iv.ID,
		Type:           string(iv.Type),
		Status:         string(iv.status),
		ElapsedSeconds: iv.elapsed,
		BlocksReceived: iv.blocks,
		Transcript:     entries,
		Feedback:       iv.feedback,
	}
}
