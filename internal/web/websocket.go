// internal/web/websocket.go
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"nagrelay/internal/state"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is one event pushed to websocket subscribers: a snapshot
// publication or a fresh log line.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type WSClient struct {
	id     string
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade websocket")
		return
	}

	client := &WSClient{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	s.wsMu.Lock()
	s.wsClients[client] = true
	s.wsMu.Unlock()
	s.metrics.RecordWebSocketConnection(1)

	logrus.WithField("client", client.id).Debug("Websocket client connected")

	go client.writePump()
	go client.readPump()
}

// Broadcast fans one event out to all connected clients. Slow clients with
// a full send queue are skipped rather than blocking the producer.
func (s *Server) Broadcast(msg WSMessage) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for client := range s.wsClients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// NotifySnapshot is wired to the snapshot provider's publish hook.
func (s *Server) NotifySnapshot(snap *state.Snapshot) {
	s.Broadcast(WSMessage{
		Type: "snapshot",
		Data: gin.H{
			"generation": snap.Generation,
			"hosts":      len(snap.Hosts),
			"downtimes":  len(snap.Downtimes),
		},
	})
}

// NotifyLogLine is wired to the log tailer's line hook.
func (s *Server) NotifyLogLine(line string) {
	s.Broadcast(WSMessage{Type: "log", Data: line})
}

func (s *Server) dropClient(client *WSClient) {
	s.wsMu.Lock()
	if _, ok := s.wsClients[client]; ok {
		delete(s.wsClients, client)
		s.metrics.RecordWebSocketConnection(-1)
	}
	s.wsMu.Unlock()
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.server.dropClient(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.conn.Close()
		c.server.dropClient(c)
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
