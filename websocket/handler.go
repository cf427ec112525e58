package websocket

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with the
// hub. A client that connected without a JWT starts unauthenticated and can
// authenticate in-band by sending "AUTH:<token>".
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != primitive.NilObjectID,
	}

	hub.register <- client

	if client.Authenticated {
		conn.WriteJSON(Notification{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})
	} else {
		conn.WriteJSON(Notification{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive notifications.",
			RequiresAuth: true,
		})
	}

	go readLoop(hub, client)
	return nil
}

// readLoop drains client messages until disconnect. The only inbound message
// the engine understands is "AUTH:<token>".
func readLoop(hub *Hub, client *Client) {
	defer func() {
		hub.unregister <- client
	}()

	for {
		messageType, message, err := client.Conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		msg := string(message)
		if !strings.HasPrefix(msg, "AUTH:") {
			continue
		}
		if client.Authenticated {
			continue
		}

		claims, err := middleware.ParseToken(strings.TrimPrefix(msg, "AUTH:"))
		if err != nil {
			client.Conn.WriteJSON(Notification{
				Type:         "auth_response",
				Message:      "Invalid or expired token",
				RequiresAuth: true,
			})
			continue
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			client.Conn.WriteJSON(Notification{
				Type:         "auth_response",
				Message:      "Invalid or expired token",
				RequiresAuth: true,
			})
			continue
		}

		if err := hub.AuthenticateClient(client, id); err != nil {
			log.Printf("Failed to authenticate websocket client %s: %v", id.Hex(), err)
			continue
		}
		client.Conn.WriteJSON(Notification{
			Type:    "auth_response",
			Message: "Authenticated",
			UserID:  id.Hex(),
		})
	}
}
