package types

type CreateInterviewReq struct {
	Type            string `json:"type"`
	DurationMinutes int    `json:"duration_minutes"`
	Locale          string `json:"locale"`
}

type CreateInterviewResp struct {
	InterviewID string `json:"interview_id"`
	WSURL       string `json:"ws_url"`
}

type TranscriptEntry struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type FeedbackReport struct {
	Rating       float64  `json:"rating"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Tips         []string `json:"tips"`
}

type SummaryResp struct {
	InterviewID    string            `json:"interview_id"`
	Type           string            `json:"type"`
	Status         string            `json:"status"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	BlocksReceived int64             `json:"blocks_received"`
	Transcript     []TranscriptEntry `json:"transcript"`
	Feedback       *FeedbackReport   `json:"feedback,omitempty"`
}
