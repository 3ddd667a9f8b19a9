package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/voxprep/voxprep-backend/internal/config"
	"github.com/voxprep/voxprep-backend/internal/core/audio"
	"github.com/voxprep/voxprep-backend/internal/core/feedback"
	"github.com/voxprep/voxprep-backend/internal/core/gemini"
	"github.com/voxprep/voxprep-backend/internal/core/interview"
	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/internal/repo/memory"
	"github.com/voxprep/voxprep-backend/pkg/types"
	"github.com/voxprep/voxprep-backend/pkg/ws"
)

// StreamHandler terminates the browser WebSocket for one interview and
// bridges it to the live speech agent through an orchestrator.
type StreamHandler struct {
	Hub       *ws.Hub
	Repo      *memory.InterviewRepo
	Cfg       config.Config
	Requester *feedback.Requester
	Dial      interview.LiveDialer
	Upgrader  websocket.Upgrader
}

func NewStreamHandler(h *ws.Hub, r *memory.InterviewRepo, cfg config.Config, req *feedback.Requester) *StreamHandler {
	return &StreamHandler{
		Hub:       h,
		Repo:      r,
		Cfg:       cfg,
		Requester: req,
		Dial: func(ctx context.Context, lc gemini.LiveConfig) (interview.LiveStream, error) {
			return gemini.DialLive(ctx, lc)
		},
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// clientMsg is one inbound frame from the browser.
type clientMsg struct {
	Type string `json:"type"`
	// Data carries base64 16-bit little-endian PCM for audio frames.
	Data string `json:"data,omitempty"`
	Rate int    `json:"rate,omitempty"`
}

func (h *StreamHandler) WS(c *gin.Context) {
	id := c.Query("interview")
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	iv, ok := h.Repo.Get(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := ws.NewClient(conn)
	h.Hub.Add(id, client)
	defer func() {
		h.Hub.Remove(id)
		client.Close()
	}()

	conn.SetReadLimit(8 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	sink := &wsSink{client: client, rec: iv}
	orch := interview.New(interview.Config{
		APIKey:    h.Cfg.GeminiAPIKey,
		LiveModel: h.Cfg.LiveModel,
		Voice:     h.Cfg.Voice,
		Type:      iv.Type,
		Budget:    iv.Budget,
	}, h.Dial, h.Requester, sink)
	sink.orch = orch
	// The browser connection is this session's capture handle: once the
	// read loop exits for any reason, the session must be torn down.
	defer orch.Disconnect()

	_ = client.WriteJSON(gin.H{
		"type": "hello",
		"ts":   time.Now().UnixMilli(),
	})

	for {
		var msg clientMsg
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "connect":
			if err := orch.Connect(c.Request.Context()); err != nil {
				log.Printf("[stream] connect failed for %s: %v", id, err)
			}
		case "audio":
			rate := msg.Rate
			if rate <= 0 {
				rate = audio.CaptureRate
			}
			buf, err := audio.Decode(audio.Chunk{Data: msg.Data}, rate)
			if err != nil {
				log.Printf("[stream] dropping capture block for %s: %v", id, err)
				continue
			}
			iv.IncBlocks()
			orch.HandleAudioBlock(buf.Samples, rate)
		case "disconnect":
			orch.Disconnect()
		}
	}
}

// wsSink fans session events out to the browser connection and keeps
// the interview record current.
type wsSink struct {
	client *ws.Client
	rec    *memory.Interview
	orch   *interview.Orchestrator
}

func (s *wsSink) Status(st interview.Status) {
	if st == interview.StatusConnecting {
		s.rec.ResetTranscript()
	}
	elapsed := 0
	if s.orch != nil {
		elapsed = s.orch.Elapsed()
	}
	s.rec.SetStatus(st, elapsed)
	_ = s.client.WriteJSON(gin.H{"type": "status", "status": string(st)})
}

func (s *wsSink) AgentAudio(chunk audio.Chunk, startAt float64) {
	_ = s.client.WriteJSON(gin.H{
		"type":     "audio",
		"data":     chunk.Data,
		"mimeType": chunk.MIMEType,
		"start_at": startAt,
	})
}

func (s *wsSink) AgentSpeaking(active bool) {
	_ = s.client.WriteJSON(gin.H{"type": "speaking", "speaker": "agent", "active": active})
}

func (s *wsSink) UserSpeaking(active bool) {
	_ = s.client.WriteJSON(gin.H{"type": "speaking", "speaker": "user", "active": active})
}

func (s *wsSink) Transcript(added []transcript.Entry) {
	s.rec.AppendEntries(added)
	wire := make([]types.TranscriptEntry, 0, len(added))
	for _, e := range added {
		wire = append(wire, types.TranscriptEntry{
			Speaker:   string(e.Speaker),
			Text:      e.Text,
			Timestamp: e.Timestamp.Format("15:04:05"),
		})
	}
	_ = s.client.WriteJSON(gin.H{"type": "transcript", "entries": wire})
}

func (s *wsSink) Feedback(report *types.FeedbackReport) {
	s.rec.SetFeedback(report)
	_ = s.client.WriteJSON(gin.H{"type": "feedback", "report": report})
}

func (s *wsSink) Error(msg string) {
	_ = s.client.WriteJSON(gin.H{"type": "error", "message": msg})
}
