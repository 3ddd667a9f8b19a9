package interview

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/voxprep/voxprep-backend/internal/core/audio"
	"github.com/voxprep/voxprep-backend/internal/core/feedback"
	"github.com/voxprep/voxprep-backend/internal/core/gemini"
	"github.com/voxprep/voxprep-backend/internal/core/playback"
	"github.com/voxprep/voxprep-backend/internal/core/transcript"
	"github.com/voxprep/voxprep-backend/pkg/types"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusEnding     Status = "ending"
)

const connErrMsg = "Connection error. The session ended unexpectedly."

// LiveStream is the open bidirectional session with the speech agent.
type LiveStream interface {
	Events() <-chan gemini.ServerEvent
	SendAudio(audio.Chunk) error
	Close()
}

// LiveDialer opens a LiveStream. Injected so tests can fake the remote
// agent; production wires gemini.DialLive.
type LiveDialer func(ctx context.Context, cfg gemini.LiveConfig) (LiveStream, error)

// Sink receives session events for the UI edge. Implemented by the
// client WebSocket handler.
type Sink interface {
	Status(Status)
	AgentAudio(chunk audio.Chunk, startAt float64)
	AgentSpeaking(bool)
	UserSpeaking(bool)
	Transcript(added []transcript.Entry)
	Feedback(report *types.FeedbackReport)
	Error(msg string)
}

// Config fixes one interview session's parameters.
type Config struct {
	APIKey    string
	LiveModel string
	Voice     string
	Type      Type
	// Budget is the duration limit; zero means unbounded.
	Budget time.Duration
}

// Orchestrator owns the lifecycle of one interview session:
// Idle -> Connecting -> Connected -> Ending -> Idle. Exactly one live
// session exists per orchestrator. A generation counter invalidates
// callbacks that outlive their session, so a stale capture block or
// timer tick from a previous session can never mutate the current one.
type Orchestrator struct {
	cfg       Config
	dial      LiveDialer
	requester *feedback.Requester
	sink      Sink
	logbook   *transcript.Log

	mu            sync.Mutex
	status        Status
	generation    int
	stream        LiveStream
	queue         *playback.Queue
	elapsed       int
	agentSpeaking bool
	userSpeaking  bool
	report        *types.FeedbackReport
	lastErr       string
	blocks        int64

	tickInterval time.Duration
	newQueue     func(onIdle func()) *playback.Queue
}

func New(cfg Config, dial LiveDialer, requester *feedback.Requester, sink Sink) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		dial:         dial,
		requester:    requester,
		sink:         sink,
		logbook:      transcript.NewLog(),
		status:       StatusIdle,
		tickInterval: time.Second,
		newQueue:     playback.NewQueue,
	}
}

// Connect opens a live session. A no-op while already connecting or
// connected. Missing credentials abort before any resource is acquired.
func (o *Orchestrator) Connect(ctx context.Context) error {
	o.mu.Lock()
	if o.status == StatusConnecting || o.status == StatusConnected {
		o.mu.Unlock()
		return nil
	}
	if o.cfg.APIKey == "" {
		o.mu.Unlock()
		return errors.New("interview: missing API key")
	}
	o.generation++
	gen := o.generation
	o.status = StatusConnecting
	o.elapsed = 0
	o.report = nil
	o.lastErr = ""
	o.blocks = 0
	o.agentSpeaking = false
	o.userSpeaking = false
	o.logbook.Reset()
	o.queue = o.newQueue(func() { o.handleQueueIdle(gen) })
	o.mu.Unlock()
	o.sink.Status(StatusConnecting)

	stream, err := o.dial(ctx, gemini.LiveConfig{
		APIKey:            o.cfg.APIKey,
		Model:             o.cfg.LiveModel,
		Voice:             o.cfg.Voice,
		SystemInstruction: SystemInstruction(o.cfg.Type),
	})
	if err != nil {
		o.mu.Lock()
		mine := gen == o.generation
		o.mu.Unlock()
		if mine {
			o.setError("Failed to connect to the interview service.")
			o.Disconnect()
		}
		return err
	}

	o.mu.Lock()
	if gen != o.generation || o.status != StatusConnecting {
		// A disconnect raced the dial; release the late connection.
		o.mu.Unlock()
		stream.Close()
		return nil
	}
	o.stream = stream
	o.status = StatusConnected
	o.mu.Unlock()
	o.sink.Status(StatusConnected)

	go o.runEvents(gen, stream)
	go o.runTimer(gen)
	return nil
}

// HandleAudioBlock processes one block of captured samples: voice
// activity for UI feedback, then encode-and-transmit while connected.
// Send failures on a session that is no longer connected are swallowed.
func (o *Orchestrator) HandleAudioBlock(samples []float32, rate int) {
	speaking := audio.Speaking(samples)

	o.mu.Lock()
	gen := o.generation
	connected := o.status == StatusConnected
	stream := o.stream
	changed := speaking != o.userSpeaking
	o.userSpeaking = speaking
	o.blocks++
	o.mu.Unlock()

	if changed {
		o.sink.UserSpeaking(speaking)
	}
	if !connected || stream == nil {
		return
	}
	chunk, err := audio.Encode(samples, rate)
	if err != nil {
		return
	}
	if err := stream.SendAudio(chunk); err != nil {
		o.mu.Lock()
		live := gen == o.generation && o.status == StatusConnected
		o.mu.Unlock()
		if live {
			o.setError(connErrMsg)
			o.Disconnect()
		}
	}
}

func (o *Orchestrator) runEvents(gen int, stream LiveStream) {
	for ev := range stream.Events() {
		o.handleEvent(gen, ev)
	}
	o.handleEvent(gen, gemini.ServerEvent{Closed: true})
}

func (o *Orchestrator) handleEvent(gen int, ev gemini.ServerEvent) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	connected := o.status == StatusConnected
	o.mu.Unlock()

	if ev.Err != nil {
		// Errors during teardown of an already-closing session are
		// expected noise, not something to alarm the user with.
		if connected {
			o.setError(connErrMsg)
		}
		o.Disconnect()
		return
	}
	if ev.Closed {
		o.Disconnect()
		return
	}
	if !connected {
		return
	}

	if ev.Audio != nil {
		o.handleInboundAudio(gen, *ev.Audio)
	}
	if ev.InputTranscription != "" {
		o.logbook.AddUserFragment(ev.InputTranscription)
	}
	if ev.OutputTranscription != "" {
		o.logbook.AddAgentFragment(ev.OutputTranscription)
	}
	if ev.Interrupted {
		o.handleInterrupt(gen)
	}
	if ev.TurnComplete {
		if added := o.logbook.FlushTurn(); len(added) > 0 {
			o.sink.Transcript(added)
		}
	}
}

func (o *Orchestrator) handleInboundAudio(gen int, chunk audio.Chunk) {
	buf, err := audio.Decode(chunk, audio.PlaybackRate)
	if err != nil {
		// One malformed chunk is dropped; playback continues.
		log.Printf("[interview] dropping inbound chunk: %v", err)
		return
	}

	o.mu.Lock()
	if gen != o.generation || o.status != StatusConnected || o.queue == nil {
		o.mu.Unlock()
		return
	}
	queue := o.queue
	wasSpeaking := o.agentSpeaking
	o.agentSpeaking = true
	o.mu.Unlock()

	start, ok := queue.Schedule(buf)
	if !ok {
		return
	}
	if !wasSpeaking {
		o.sink.AgentSpeaking(true)
	}
	o.sink.AgentAudio(chunk, start)
}

// handleInterrupt models barge-in: everything scheduled is cut
// immediately so the next agent chunk starts at now.
func (o *Orchestrator) handleInterrupt(gen int) {
	o.mu.Lock()
	if gen != o.generation || o.queue == nil {
		o.mu.Unlock()
		return
	}
	queue := o.queue
	wasSpeaking := o.agentSpeaking
	o.agentSpeaking = false
	o.mu.Unlock()

	queue.Interrupt()
	if wasSpeaking {
		o.sink.AgentSpeaking(false)
	}
}

func (o *Orchestrator) handleQueueIdle(gen int) {
	o.mu.Lock()
	if gen != o.generation || !o.agentSpeaking {
		o.mu.Unlock()
		return
	}
	o.agentSpeaking = false
	o.mu.Unlock()
	o.sink.AgentSpeaking(false)
}

func (o *Orchestrator) runTimer(gen int) {
	t := time.NewTicker(o.tickInterval)
	defer t.Stop()
	for range t.C {
		if !o.tick(gen) {
			return
		}
	}
}

// tick advances elapsed time once per second and enforces the duration
// budget. Returns false when the timer should stop.
func (o *Orchestrator) tick(gen int) bool {
	o.mu.Lock()
	if gen != o.generation || o.status != StatusConnected {
		o.mu.Unlock()
		return false
	}
	o.elapsed++
	limit := o.cfg.Budget > 0 && time.Duration(o.elapsed)*time.Second >= o.cfg.Budget
	o.mu.Unlock()
	if limit {
		o.Disconnect()
		return false
	}
	return true
}

// Disconnect tears the session down and is the single cancellation
// entry point: safe from any state, idempotent, tolerant of partial
// initialization. The remote close is requested without waiting for or
// surfacing its result. A feedback report is requested only when the
// session produced at least two transcript entries.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	if o.status == StatusIdle || o.status == StatusEnding {
		o.mu.Unlock()
		return
	}
	o.status = StatusEnding
	o.generation++
	stream := o.stream
	o.stream = nil
	queue := o.queue
	o.queue = nil
	agentWas := o.agentSpeaking
	userWas := o.userSpeaking
	o.agentSpeaking = false
	o.userSpeaking = false
	o.mu.Unlock()

	o.sink.Status(StatusEnding)
	if queue != nil {
		queue.Stop()
	}
	if agentWas {
		o.sink.AgentSpeaking(false)
	}
	if userWas {
		o.sink.UserSpeaking(false)
	}
	if stream != nil {
		stream.Close()
	}

	entries := o.logbook.Entries()
	if len(entries) >= 2 && o.requester != nil {
		report := o.requester.Request(context.Background(), entries, string(o.cfg.Type))
		if report != nil {
			o.mu.Lock()
			o.report = report
			o.mu.Unlock()
			o.sink.Feedback(report)
		}
	}

	o.mu.Lock()
	o.status = StatusIdle
	o.mu.Unlock()
	o.sink.Status(StatusIdle)
}

func (o *Orchestrator) setError(msg string) {
	o.mu.Lock()
	o.lastErr = msg
	o.mu.Unlock()
	o.sink.Error(msg)
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) Elapsed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.elapsed
}

func (o *Orchestrator) Blocks() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.blocks
}

func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) Report() *types.FeedbackReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}

// Entries returns the finalized transcript so far.
func (o *Orchestrator) Entries() []transcript.Entry {
	return o.logbook.Entries()
}
