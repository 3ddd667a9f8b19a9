package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voxprep/voxprep-backend/internal/core/audio"
)

// JSON structures for the bidirectional streaming API.

type sendTextPart struct {
	Text string `json:"text"`
}

type sendSystemInstruction struct {
	Parts []sendTextPart `json:"parts"`
}

type sendPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type sendVoiceConfig struct {
	PrebuiltVoiceConfig sendPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type sendSpeechConfig struct {
	VoiceConfig sendVoiceConfig `json:"voiceConfig"`
}

type sendGenerationConfig struct {
	ResponseModalities []string         `json:"responseModalities"`
	SpeechConfig       sendSpeechConfig `json:"speechConfig"`
}

type sendSetup struct {
	Model                    string                `json:"model"`
	GenerationConfig         sendGenerationConfig  `json:"generationConfig"`
	SystemInstruction        sendSystemInstruction `json:"systemInstruction"`
	InputAudioTranscription  struct{}              `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}              `json:"outputAudioTranscription"`
}

type sendSetupEnvelope struct {
	Setup sendSetup `json:"setup"`
}

type sendAudioBlob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type sendRealtimeInput struct {
	Audio sendAudioBlob `json:"audio"`
}

type sendRealtimeEnvelope struct {
	RealtimeInput sendRealtimeInput `json:"realtimeInput"`
}

type receivedInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type receivedPart struct {
	InlineData *receivedInlineData `json:"inlineData"`
	Text       string              `json:"text"`
}

type receivedModelTurn struct {
	Parts []receivedPart `json:"parts"`
}

type receivedTranscription struct {
	Text string `json:"text"`
}

type receivedServerContent struct {
	ModelTurn           *receivedModelTurn     `json:"modelTurn"`
	InputTranscription  *receivedTranscription `json:"inputTranscription"`
	OutputTranscription *receivedTranscription `json:"outputTranscription"`
	TurnComplete        bool                   `json:"turnComplete"`
	Interrupted         bool                   `json:"interrupted"`
}

type receivedMessage struct {
	SetupComplete *struct{}              `json:"setupComplete"`
	ServerContent *receivedServerContent `json:"serverContent"`
	GoAway        *struct{}              `json:"goAway"`
}

// LiveConfig describes one streaming interview session.
type LiveConfig struct {
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
}

// ServerEvent is one inbound message from the remote speech agent,
// flattened for the orchestrator. A message may carry several fields
// at once (audio plus transcription fragments, for example).
type ServerEvent struct {
	Audio               *audio.Chunk
	InputTranscription  string
	OutputTranscription string
	TurnComplete        bool
	Interrupted         bool
	Closed              bool
	Err                 error
}

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// LiveClient manages the WebSocket connection to the streaming speech
// agent: a writer goroutine owns outbound frames, a reader goroutine
// flattens inbound messages into ServerEvents.
type LiveClient struct {
	conn      *websocket.Conn
	sendChan  chan audio.Chunk
	events    chan ServerEvent
	doneChan  chan struct{}
	closeOnce sync.Once
}

// DialLive opens the streaming session and sends the setup message
// carrying the model, audio modality, voice, system instruction and
// transcription flags for both directions.
func DialLive(ctx context.Context, cfg LiveConfig) (*LiveClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("live: missing API key")
	}
	u := liveEndpoint + "?key=" + url.QueryEscape(cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	setup := sendSetupEnvelope{
		Setup: sendSetup{
			Model: "models/" + cfg.Model,
			GenerationConfig: sendGenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: sendSpeechConfig{
					VoiceConfig: sendVoiceConfig{
						PrebuiltVoiceConfig: sendPrebuiltVoice{VoiceName: cfg.Voice},
					},
				},
			},
			SystemInstruction: sendSystemInstruction{
				Parts: []sendTextPart{{Text: cfg.SystemInstruction}},
			},
		},
	}
	setupBytes, err := json.Marshal(setup)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, setupBytes); err != nil {
		conn.Close()
		return nil, err
	}

	c := &LiveClient{
		conn:     conn,
		sendChan: make(chan audio.Chunk, 16),
		events:   make(chan ServerEvent, 32),
		doneChan: make(chan struct{}),
	}
	go c.readMessages()
	go c.writeMessages()
	return c, nil
}

func (c *LiveClient) readMessages() {
	defer close(c.events)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.doneChan:
				// Expected teardown; a read error here is not news.
				c.events <- ServerEvent{Closed: true}
			default:
				c.events <- ServerEvent{Err: err, Closed: true}
			}
			return
		}

		var received receivedMessage
		if err := json.Unmarshal(message, &received); err != nil {
			log.Println("live: unmarshal error:", err)
			continue
		}
		if received.GoAway != nil {
			c.events <- ServerEvent{Closed: true}
			return
		}
		sc := received.ServerContent
		if sc == nil {
			continue
		}

		var ev ServerEvent
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData != nil && p.InlineData.Data != "" {
					ev.Audio = &audio.Chunk{Data: p.InlineData.Data, MIMEType: p.InlineData.MimeType}
					break
				}
			}
		}
		if sc.InputTranscription != nil {
			ev.InputTranscription = sc.InputTranscription.Text
		}
		if sc.OutputTranscription != nil {
			ev.OutputTranscription = sc.OutputTranscription.Text
		}
		ev.TurnComplete = sc.TurnComplete
		ev.Interrupted = sc.Interrupted
		c.events <- ev
	}
}

func (c *LiveClient) writeMessages() {
	for {
		select {
		case chunk := <-c.sendChan:
			env := sendRealtimeEnvelope{
				RealtimeInput: sendRealtimeInput{
					Audio: sendAudioBlob{Data: chunk.Data, MimeType: chunk.MIMEType},
				},
			}
			msg, err := json.Marshal(env)
			if err != nil {
				log.Println("live: marshal error:", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("live: write error:", err)
			}
		case <-c.doneChan:
			// Close handshake: tell the server and let it drop the
			// connection. Failures here are part of normal teardown.
			err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("live: write close:", err)
			}
			return
		}
	}
}

// Events streams flattened server messages. The channel closes when
// the connection drops or Close is called.
func (c *LiveClient) Events() <-chan ServerEvent {
	return c.events
}

// SendAudio queues one encoded capture block for transmission.
func (c *LiveClient) SendAudio(chunk audio.Chunk) error {
	select {
	case <-c.doneChan:
		return errors.New("live: session closed")
	case c.sendChan <- chunk:
		return nil
	}
}

// Close shuts down the client and closes the WebSocket connection.
// Safe to call more than once.
func (c *LiveClient) Close() {
	c.closeOnce.Do(func() {
		close(c.doneChan)
		c.conn.Close()
	})
}
