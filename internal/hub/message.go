package hub

import "time"

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type       string           `json:"type"` // "full", "delta", "controller_selected", "config_selected", "error"
	Seq        int64            `json:"seq"`
	Timestamp  int64            `json:"timestamp"` // Unix milliseconds
	Data       *ControllerState `json:"data,omitempty"`
	Changes    *DeltaChanges    `json:"changes,omitempty"`
	Controller int              `json:"controller,omitempty"`
	Config     int              `json:"config,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func NewFullMessage(seq int64, state *ControllerState) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      state,
	}
}

func NewDeltaMessage(seq int64, changes *DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// NewControllerSelectedMessage confirms a select_controller request.
func NewControllerSelectedMessage(c int) *WSMessage {
	return &WSMessage{
		Type:       "controller_selected",
		Timestamp:  time.Now().UnixMilli(),
		Controller: c,
	}
}

// NewConfigSelectedMessage confirms a select_config request.
func NewConfigSelectedMessage(c, cfg int) *WSMessage {
	return &WSMessage{
		Type:       "config_selected",
		Timestamp:  time.Now().UnixMilli(),
		Controller: c,
		Config:     cfg,
	}
}

func NewErrorMessage(err error) *WSMessage {
	return &WSMessage{
		Type:      "error",
		Timestamp: time.Now().UnixMilli(),
		Error:     err.Error(),
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type       string `json:"type"` // "select_controller", "select_config"
	Controller int    `json:"controller,omitempty"`
	Config     int    `json:"config,omitempty"`
}
