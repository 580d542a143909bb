package server

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"arcade/internal/game"
	"arcade/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

type statePayload struct {
	State        any                 `json:"state"`
	ValidActions []game.Action       `json:"validActions"`
	SessionInfo  session.Info        `json:"sessionInfo"`
	Results      []game.PlayerResult `json:"results,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"` // bounds, config, invalid_move
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.WithField("session", code).WithError(err).Warn("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)
	logger := log.WithFields(log.Fields{"session": code, "player": playerID})

	// Try to reconnect existing player, or add new one
	if !sess.ConnectPlayer(playerID, send) {
		if err := sess.AddPlayer(playerID); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		sess.ConnectPlayer(playerID, send)
	}
	logger.Debug("player connected")

	// Notify all players about the roster change
	s.BroadcastState(sess)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(sess, playerID, send, errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(sess, playerID, send, msg)
	}

	sess.DisconnectPlayer(playerID, send)
	logger.Info("player disconnected")
}

func (s *Server) handleMessage(sess *session.Session, playerID string, send chan []byte, msg WSMessage) {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			reply(sess, playerID, send, errorPayload{Message: "invalid action payload"})
			return
		}
		sess.Lock()
		if sess.Match == nil || sess.Status == session.StatusWaiting {
			sess.Unlock()
			reply(sess, playerID, send, errorPayload{Message: "game not started"})
			return
		}
		if err := sess.Match.ApplyAction(playerID, ap.Action); err != nil {
			sess.Unlock()
			reply(sess, playerID, send, errorPayload{Message: err.Error(), Kind: errorKind(err)})
			return
		}
		finished := sess.FinishIfOver()
		sess.Unlock()

		s.save(sess)
		if finished {
			if err := s.manager.RecordResults(sess); err != nil {
				log.WithField("session", sess.Code).WithError(err).Error("record results")
			}
		}
		s.BroadcastState(sess)

	case "start":
		if sess.Info().HostID != playerID {
			reply(sess, playerID, send, errorPayload{Message: "only the host can start"})
			return
		}
		if err := sess.Start(); err != nil {
			reply(sess, playerID, send, errorPayload{Message: err.Error()})
			return
		}
		s.save(sess)
		s.BroadcastState(sess)

	case "restart":
		if sess.Info().HostID != playerID {
			reply(sess, playerID, send, errorPayload{Message: "only the host can restart"})
			return
		}
		if err := sess.Restart(); err != nil {
			reply(sess, playerID, send, errorPayload{Message: err.Error(), Kind: errorKind(err)})
			return
		}
		s.save(sess)
		s.BroadcastState(sess)

	default:
		reply(sess, playerID, send, errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

func (s *Server) save(sess *session.Session) {
	if err := s.manager.SaveMatchState(sess); err != nil {
		log.WithField("session", sess.Code).WithError(err).Error("save match state")
	}
}

// BroadcastState sends every connected player their view of the session.
// It is also the manager's tick callback.
func (s *Server) BroadcastState(sess *session.Session) {
	sess.RLock()
	defer sess.RUnlock()
	info := sess.InfoLocked()
	match := sess.Match
	for pid, p := range sess.Players {
		sp := statePayload{SessionInfo: info}
		if match != nil && sess.Status != session.StatusWaiting {
			sp.State = match.State(pid)
			sp.ValidActions = match.ValidActions(pid)
			if match.IsOver() {
				sp.Results = match.Results()
			}
		}
		sendWSMsg(p.Send, "state", sp)
	}
}

func encodeWSMsg(msgType string, payload any) []byte {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	return msg
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	select {
	case send <- encodeWSMsg(msgType, payload):
	default:
	}
}

// reply sends an error to the connection that owns send. Replies on a
// connection superseded by a reconnect are dropped.
func reply(sess *session.Session, playerID string, send chan []byte, ep errorPayload) {
	sess.SendTo(playerID, send, encodeWSMsg("error", ep))
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	conn.Write(ctx, websocket.MessageText, encodeWSMsg("error", errorPayload{Message: message}))
}
