package handlers

import (
	"log"
	"net/http"

	"socialgraph/relations"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConnect attaches the session to the notification push channel.
func WSConnect(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for account %d: %v", actor, err)
		return
	}

	relations.GlobalWSConnManager.Add(actor, conn)
	defer func() {
		relations.GlobalWSConnManager.Remove(actor, conn)
		conn.Close()
	}()

	// Drain client frames until the connection drops; pushes flow the other
	// way through the connection manager.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
