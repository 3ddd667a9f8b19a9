package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voxprep/voxprep-backend/internal/core/interview"
	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/internal/repo/memory"
	"github.com/voxprep/voxprep-backend/pkg/types"
)

func newTestRouter(repo *memory.InterviewRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewInterviewsHandler(repo, "ws", "api.test:8080")
	r.POST("/v1/interviews", h.Create)
	r.GET("/v1/interviews/:id/summary", h.Summary)
	r.GET("/v1/interviews/:id/transcript", h.Transcript)
	return r
}

func TestCreateInterview(t *testing.T) {
	repo := memory.NewInterviewRepo()
	r := newTestRouter(repo)

	body := `{"type":"technical","duration_minutes":5}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp types.CreateInterviewResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !strings.HasPrefix(resp.InterviewID, "itv_") {
		t.Fatalf("interview id %q missing prefix", resp.InterviewID)
	}
	want := "ws://api.test:8080/v1/stream?interview=" + resp.InterviewID
	if resp.WSURL != want {
		t.Fatalf("ws_url = %q, want %q", resp.WSURL, want)
	}

	iv, ok := repo.Get(resp.InterviewID)
	if !ok {
		t.Fatal("created interview not stored")
	}
	if iv.Type != interview.TypeTechnical {
		t.Fatalf("stored type = %q", iv.Type)
	}
	if iv.Budget != 5*time.Minute {
		t.Fatalf("stored budget = %v", iv.Budget)
	}
}

func TestCreateInterviewRejectsBadInput(t *testing.T) {
	r := newTestRouter(memory.NewInterviewRepo())

	for _, body := range []string{
		`{"type":"casual"}`,
		`{"type":"general","duration_minutes":7}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSummaryUnknownInterview(t *testing.T) {
	r := newTestRouter(memory.NewInterviewRepo())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/itv_missing/summary", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSummaryReflectsStoredRecord(t *testing.T) {
	repo := memory.NewInterviewRepo()
	r := newTestRouter(repo)

	iv := &memory.Interview{ID: "itv_1", Type: interview.TypeBehavioral}
	repo.Save(iv)
	iv.SetStatus(interview.StatusConnected, 42)
	iv.AppendEntries([]transcript.Entry{
		{Speaker: transcript.SpeakerAgent, Text: "Tell me about yourself.", Timestamp: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/itv_1/summary", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp types.SummaryResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Status != "connected" || resp.ElapsedSeconds != 42 {
		t.Fatalf("summary = %+v", resp)
	}
	if len(resp.Transcript) != 1 || resp.Transcript[0].Timestamp != "09:30:00" {
		t.Fatalf("transcript = %+v", resp.Transcript)
	}
}

func TestTranscriptDownload(t *testing.T) {
	repo := memory.NewInterviewRepo()
	r := newTestRouter(repo)

	iv := &memory.Interview{ID: "itv_2", Type: interview.TypeGeneral}
	repo.Save(iv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/itv_2/transcript", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty transcript: status = %d, want 404", w.Code)
	}

	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	iv.AppendEntries([]transcript.Entry{
		{Speaker: transcript.SpeakerUser, Text: "Hello.", Timestamp: ts},
		{Speaker: transcript.SpeakerAgent, Text: "Welcome.", Timestamp: ts},
	})

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/interviews/itv_2/transcript", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="interview-transcript-`) || !strings.HasSuffix(cd, `.txt"`) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	want := "[09:30:00] Candidate: Hello.\n\n[09:30:00] Interviewer: Welcome."
	if w.Body.String() != want {
		t.Fatalf("body = %q, want %q", w.Body.String(), want)
	}
}
