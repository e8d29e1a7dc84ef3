package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// Client represents a WebSocket connection. Its id doubles as the player id
// once it logs in.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(8),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	// the game may still hold this client for a moment after send is closed
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
// data is copied; the caller may reuse it.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error from %s: %v", c.remoteAddr, err)
		return
	}

	game := c.hub.game
	switch env.T {
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgMove:
		var msg MoveMsg
		if decode(env.D, &msg) {
			game.Move(c.id, msg)
		}
	case MsgRotate:
		var msg RotateMsg
		if decode(env.D, &msg) {
			game.Rotate(c.id, msg.Angle)
		}
	case MsgShoot:
		// an empty payload fires from the server position along the facing
		var msg ShootMsg
		if len(env.D) == 0 || decode(env.D, &msg) {
			game.Shoot(c.id, msg)
		}
	case MsgPause:
		var msg PauseMsg
		if decode(env.D, &msg) {
			game.Pause(c.id, msg.Paused)
		}
	case MsgSetDimensions:
		var msg DimensionsMsg
		if decode(env.D, &msg) {
			game.SetDimensions(c.id, msg.Width, msg.Height)
		}
	case MsgCollectPickup:
		var msg CollectPickupMsg
		if decode(env.D, &msg) && msg.PickupID != "" {
			game.Collect(c.id, msg.PickupID)
		}
	case MsgPing:
		game.Ping(c.id)
	}
}

func decode(data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// handleLogin checks credentials on this goroutine (bcrypt is slow) and
// only then asks the game for a ship.
func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if len(data) > 0 && !decode(data, &msg) {
		c.sendError("malformed login")
		return
	}

	ident := Identity{Username: SanitizeName(msg.Username)}
	if auth := c.hub.auth; auth != nil {
		var err error
		ident, err = auth.Authenticate(msg, c.remoteAddr)
		if err != nil {
			c.sendError(err.Error())
			return
		}
	}
	if ident.Created {
		c.hub.track(EvtRegister, ident.AccountID, map[string]string{"username": ident.Username})
	}
	c.hub.game.Login(c.id, ident.Username, ident.AccountID, ident.Token)
}
