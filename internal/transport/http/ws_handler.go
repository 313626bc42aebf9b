package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"trivia-live/internal/app"
	"trivia-live/internal/domain"
)

// WSHandler upgrades connections and wires them into a room coordinator.
type WSHandler struct {
	registry *app.RoomRegistry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *app.RoomRegistry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// clientMessage is the single inbound envelope; which fields are meaningful
// depends on Type.
type clientMessage struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Action    string          `json:"action,omitempty"`
}

// ServeWS upgrades the request and pumps messages between the socket and the
// room. The connection's role is resolved once from the request, defaulting
// to participant when absent or unrecognized.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	role := app.RoleParticipant
	if r.URL.Query().Get("role") == string(app.RolePresenter) {
		role = app.RolePresenter
	}

	connID := r.URL.Query().Get("connId")
	if connID == "" {
		connID = uuid.NewString()
	}

	room, err := h.registry.GetOrCreate(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("room init failed")
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates := room.Attach(connID, role)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for payload := range updates {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Str("conn_id", connID).Msg("ws write error")
				conn.Close()
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// malformed payloads are dropped, no reply
			continue
		}

		switch msg.Type {
		case "join":
			if err := room.HandleJoin(connID, msg.Name); err != nil {
				log.Debug().Err(err).Str("conn_id", connID).Msg("join rejected")
			}
		case "submit_answer":
			var value domain.AnswerValue
			if err := json.Unmarshal(msg.Answer, &value); err != nil {
				continue
			}
			if err := room.HandleSubmitAnswer(connID, value, msg.Timestamp); err != nil {
				log.Debug().Err(err).Str("conn_id", connID).Msg("answer rejected")
			}
		case "presenter_action":
			if err := room.HandlePresenterAction(msg.Action); err != nil {
				log.Debug().Err(err).Str("action", msg.Action).Msg("presenter action rejected")
			}
		default:
			// unknown message types are indistinguishable from no-ops
		}
	}

	// closing the room channel lets the writer drain and exit
	room.Detach(connID)
	<-writerDone
}
