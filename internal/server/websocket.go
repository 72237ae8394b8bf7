package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/voxguard/voxguard/internal/history"
	"github.com/voxguard/voxguard/internal/observe"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/internal/stream"
)

// wsWriter serialises writes to one WebSocket connection. The session
// event pump and the read loop's protocol error replies share it.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) writeJSON(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(ctx, websocket.MessageText, b)
}

// handleStream upgrades to WebSocket and binds the connection to a new
// streaming session. One connection owns exactly one session; closing
// the connection abandons the session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	log := observe.Logger(ctx)
	wr := &wsWriter{conn: conn}

	sess := s.sessions.Create(ctx)
	defer s.sessions.Remove(context.WithoutCancel(ctx), sess.ID)
	log = log.With("session_id", sess.ID)
	log.Info("stream session started")

	// Event pump: everything the session emits goes out on this
	// connection, in emission order. After a write failure the pump keeps
	// draining so the session worker never blocks on a dead connection.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		var dead bool
		for ev := range sess.Events() {
			if dead {
				continue
			}
			if err := wr.writeJSON(ctx, ev); err != nil {
				dead = true
			}
		}
	}()

	if err := wr.writeJSON(ctx, stream.Connected{Type: stream.TypeConnected, SessionID: sess.ID}); err != nil {
		return
	}

	s.readLoop(ctx, wr, conn, sess)

	// If the client vanished without end_stream, finish the session so
	// the worker exits and the summary still gets recorded.
	if sum, err := sess.End(); err == nil {
		s.saveSessionRecord(context.WithoutCancel(ctx), sess.ID, sum)
	} else if !errors.Is(err, stream.ErrSessionEnded) {
		log.Warn("session end failed", "err", err)
	}
	<-pumpDone
	log.Info("stream session closed")
}

// saveSessionRecord persists one finished streaming session's summary.
// Best effort, like the batch path: a failed write is logged, never
// surfaced to the caller.
func (s *Server) saveSessionRecord(ctx context.Context, sessionID string, sum stream.Summary) {
	if s.store == nil {
		return
	}
	rec := history.CallRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Score:     sum.AverageScore,
		Verdict:   sum.FinalVerdict,
		Trend:     string(sum.FinalTrend),
		Analyses:  sum.TotalAnalyses,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		observe.Logger(ctx).Warn("session history save failed", "session_id", sessionID, "err", err)
	}
}

// readLoop consumes client messages until the connection drops. Protocol
// failures are answered with error events; they never terminate the
// session.
func (s *Server) readLoop(ctx context.Context, wr *wsWriter, conn *websocket.Conn, sess *stream.Session) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg stream.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wr.writeJSON(ctx, stream.ErrorEvent{
				Type:      stream.TypeError,
				SessionID: sess.ID,
				Message:   "malformed message envelope",
			})
			continue
		}

		switch msg.Type {
		case stream.TypeAudioChunk:
			pcm, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				_ = wr.writeJSON(ctx, stream.ErrorEvent{
					Type:      stream.TypeError,
					SessionID: sess.ID,
					Message:   "audio_chunk data is not valid base64",
				})
				continue
			}
			if msg.Intent != "" {
				sess.SetIntent(risk.Intent(msg.Intent))
			}
			if err := sess.Enqueue(pcm); err != nil {
				_ = wr.writeJSON(ctx, stream.ErrorEvent{
					Type:      stream.TypeError,
					SessionID: sess.ID,
					Message:   err.Error(),
				})
			}

		case stream.TypeEndStream:
			sum, err := sess.End()
			if err != nil {
				_ = wr.writeJSON(ctx, stream.ErrorEvent{
					Type:      stream.TypeError,
					SessionID: sess.ID,
					Message:   err.Error(),
				})
				continue
			}
			s.saveSessionRecord(ctx, sess.ID, sum)

		default:
			_ = wr.writeJSON(ctx, stream.ErrorEvent{
				Type:      stream.TypeError,
				SessionID: sess.ID,
				Message:   "unknown message type " + msg.Type,
			})
		}
	}
}
