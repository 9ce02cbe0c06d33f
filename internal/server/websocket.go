package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"classroom-scores/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sessionSendBuffer = 64
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxClientMessage  = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// dashboardHub fans score events out to connected dashboards. Sends are
// queued per session and never block the caller; a session whose queue
// is full is dropped.
type dashboardHub struct {
	mu       sync.Mutex
	sessions map[*dashboardSession]struct{}
	metrics  *serverMetrics
}

type dashboardSession struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newDashboardHub(metrics *serverMetrics) *dashboardHub {
	return &dashboardHub{
		sessions: make(map[*dashboardSession]struct{}),
		metrics:  metrics,
	}
}

func (h *dashboardHub) Add(conn *websocket.Conn) *dashboardSession {
	session := &dashboardSession{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sessionSendBuffer),
	}
	h.mu.Lock()
	h.sessions[session] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()
	h.metrics.setSessions(count)
	return session
}

// Remove unregisters session and closes its queue, which makes the writer
// close the socket. Calling it more than once is harmless.
func (h *dashboardHub) Remove(session *dashboardSession) {
	h.mu.Lock()
	removed := h.removeLocked(session)
	count := len(h.sessions)
	h.mu.Unlock()
	if removed {
		h.metrics.setSessions(count)
	}
}

func (h *dashboardHub) removeLocked(session *dashboardSession) bool {
	if _, ok := h.sessions[session]; !ok {
		return false
	}
	delete(h.sessions, session)
	close(session.send)
	return true
}

func (h *dashboardHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Broadcast queues payload for every session and reports how many
// sessions accepted it.
func (h *dashboardHub) Broadcast(payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws broadcast marshal failed error=%v", err)
		return 0
	}
	delivered := 0
	dropped := 0
	h.mu.Lock()
	for session := range h.sessions {
		select {
		case session.send <- data:
			delivered++
		default:
			log.Printf("ws session dropped session=%s reason=queue_full", session.id)
			h.removeLocked(session)
			dropped++
		}
	}
	count := len(h.sessions)
	h.mu.Unlock()
	if dropped > 0 {
		h.metrics.dropSessions(dropped)
		h.metrics.setSessions(count)
	}
	return delivered
}

func (h *dashboardHub) CloseAll() {
	h.mu.Lock()
	for session := range h.sessions {
		h.removeLocked(session)
	}
	h.mu.Unlock()
	h.metrics.setSessions(0)
}

func (s *Server) handleScoresWebsocket(c *gin.Context) {
	if s.tokens != nil {
		if err := s.tokens.Verify(c.Query("token")); err != nil {
			log.Printf("ws token rejected remote=%s error=%v", c.ClientIP(), err)
			writeFail(c, http.StatusUnauthorized, "invalid token")
			return
		}
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	session := s.hub.Add(conn)
	log.Printf("ws connected session=%s remote=%s", session.id, c.ClientIP())
	go s.writeDashboard(session)
	go s.readDashboard(session)
}

// readDashboard discards client frames; it only exists to notice the
// session going away and to answer pongs.
func (s *Server) readDashboard(session *dashboardSession) {
	defer s.hub.Remove(session)
	conn := session.conn
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected session=%s error=%v", session.id, err)
			return
		}
	}
}

func (s *Server) writeDashboard(session *dashboardSession) {
	ticker := time.NewTicker(pingPeriod)
	conn := session.conn
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		s.hub.Remove(session)
	}()
	for {
		select {
		case data, ok := <-session.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) notifyInsert(row db.Score) {
	delivered := s.hub.Broadcast(scoreEvent{Type: eventNewScore, Payload: row})
	s.metrics.broadcast(eventNewScore)
	log.Printf("broadcast event=%s id=%d sessions=%d", eventNewScore, row.ID, delivered)
}

func (s *Server) notifyDelete(id uint) {
	delivered := s.hub.Broadcast(scoreEvent{Type: eventDeleteScore, Payload: deletePayload{ID: id}})
	s.metrics.broadcast(eventDeleteScore)
	log.Printf("broadcast event=%s id=%d sessions=%d", eventDeleteScore, id, delivered)
}
