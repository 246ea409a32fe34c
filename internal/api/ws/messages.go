package ws

import (
	"time"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
)

// Message types
const (
	TypeWelcome  = "welcome"
	TypeState    = "state"
	TypeLoad     = "load"
	TypeLoaded   = "loaded"
	TypeSnapshot = "snapshot"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeError    = "error"
)

// Inbound is a client request
type Inbound struct {
	Type    string `json:"type"`
	Library string `json:"library,omitempty"`
}

// Outbound is a server message
type Outbound struct {
	Type         string                  `json:"type"`
	ConnectionID string                  `json:"connection_id,omitempty"`
	Library      string                  `json:"library,omitempty"`
	From         string                  `json:"from,omitempty"`
	To           string                  `json:"to,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Libraries    map[string]loader.State `json:"libraries,omitempty"`
	Timestamp    int64                   `json:"timestamp"`
}

func stateMessage(ev loader.Event) Outbound {
	msg := Outbound{
		Type:      TypeState,
		Library:   ev.ID,
		From:      ev.From.String(),
		To:        ev.To.String(),
		Timestamp: time.Now().Unix(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

func errorMessage(library, text string) Outbound {
	return Outbound{
		Type:      TypeError,
		Library:   library,
		Error:     text,
		Timestamp: time.Now().Unix(),
	}
}
