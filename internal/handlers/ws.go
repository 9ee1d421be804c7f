package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/together-dev/together/internal/types"
)

var (
	feedClients   = make(map[uint]map[*websocket.Conn]bool)
	feedClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastRefresh tells an association's connected clients to refetch their
// notification feed. Called by the dispatcher after a notification row is
// created.
func BroadcastRefresh(associationID uint) {
	feedClientsMu.RLock()
	clients, exists := feedClients[associationID]
	if !exists || len(clients) == 0 {
		feedClientsMu.RUnlock()
		return
	}

	// Copy the client set so the lock is not held while writing to sockets
	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	feedClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":           "notification",
			"message":        "New notification available",
			"association_id": associationID,
		})

		if err != nil {
			log.Printf("Failed to broadcast notification to client: %v", err)
			feedClientsMu.Lock()
			if clients, exists := feedClients[associationID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(feedClients, associationID)
				}
			}
			feedClientsMu.Unlock()
			conn.Close()
		}
	}
}

// NotificationFeed upgrades the connection and streams feed refresh events to
// the calling association until the client disconnects.
func NotificationFeed(c *gin.Context) {
	association, ok := currentAssociation(c)

	if !ok {
		return
	}

	associationID := association.ID

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	feedClientsMu.Lock()
	if feedClients[associationID] == nil {
		feedClients[associationID] = make(map[*websocket.Conn]bool)
	}
	feedClients[associationID][conn] = true
	feedClientsMu.Unlock()

	defer func() {
		feedClientsMu.Lock()

		if clients, exists := feedClients[associationID]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(feedClients, associationID)
			}
		}

		feedClientsMu.Unlock()
		conn.Close()

		log.Printf("WebSocket connection closed for association %d", associationID)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]interface{}{
		"type":           "connected",
		"message":        "Notification feed connected",
		"association_id": associationID,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		// Send pings periodically
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for association %d: %v", associationID, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Ping failed for association %d: %v", associationID, err)
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for association %d: %v", associationID, err)
			break
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for association %d: %v", associationID, err)
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			log.Printf("Received message from association %d: %s", associationID, string(message))
		case websocket.PongMessage:
			log.Printf("Received pong from association %d", associationID)
		}
	}
}
