package hub

import (
	"encoding/json"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// ConfigSelector switches the active configuration of a controller. Both
// ids are 1-based.
type ConfigSelector interface {
	SelectConfig(controller, config int) error
}

// Client represents a connected WebSocket client.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	controller atomic.Int32 // 1-based controller this client is watching
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	c.controller.Store(1)
	return c
}

func (c *Client) Controller() int {
	return int(c.controller.Load())
}

func (c *Client) SetController(id int) {
	c.controller.Store(int32(id))
}

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client
// commands until the connection fails.
func (c *Client) ReadPumpWithHandler(sel ConfigSelector, b *Broadcaster) {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handle(message, sel, b)
	}
}

func (c *Client) handle(message []byte, sel ConfigSelector, b *Broadcaster) {
	log := c.hub.log
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn("bad monitor message", "err", err)
		return
	}

	switch msg.Type {
	case "select_controller":
		if !b.Known(msg.Controller) {
			c.reply(NewErrorMessage(errUnknownController(msg.Controller)))
			return
		}
		c.SetController(msg.Controller)
		c.reply(NewControllerSelectedMessage(msg.Controller))
		b.SendInitialState(c)
		log.Debug("monitor client switched controller", "controller", msg.Controller)
	case "select_config":
		if sel == nil {
			return
		}
		if err := sel.SelectConfig(msg.Controller, msg.Config); err != nil {
			log.Warn("select config failed", "controller", msg.Controller, "config", msg.Config, "err", err)
			c.reply(NewErrorMessage(err))
			return
		}
		c.reply(NewConfigSelectedMessage(msg.Controller, msg.Config))
	default:
		log.Debug("unknown monitor message", "type", msg.Type)
	}
}

func (c *Client) reply(m *WSMessage) {
	data, err := json.Marshal(m)
	if err != nil {
		c.hub.log.Error("marshal reply", "err", err)
		return
	}
	c.hub.Deliver(c, data)
}
