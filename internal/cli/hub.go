// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gogpu/lod"
	"github.com/gorilla/websocket"
)

// Event is the JSON message streamed to websocket clients.
type Event struct {
	Type    string    `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Level   string    `json:"level,omitempty"`
	Percent float64   `json:"percent,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Event types.
const (
	EventHello         = "hello"
	EventStageStart    = "stage_start"
	EventStageComplete = "stage_complete"
	EventProgress      = "progress"
	EventQualityChange = "quality_change"
	EventWarning       = "warning"
	EventError         = "error"
	EventCancelled     = "cancelled"
)

// clientBuffer is the number of queued messages per client; slower
// clients miss events rather than stall the render loop.
const clientBuffer = 64

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans lod events out to connected websocket clients. It implements
// lod.Observer.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	now     func() time.Time
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{}), now: time.Now}
}

var _ lod.Observer = (*hub)(nil)

// register subscribes conn. The initial messages are queued before the
// client becomes visible to broadcast.
func (h *hub) register(conn *websocket.Conn, initial ...[]byte) *wsClient {
	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer+len(initial))}
	for _, m := range initial {
		c.send <- m
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(e Event) {
	e.Time = h.now()
	data, err := json.Marshal(e)
	if err != nil {
		lod.Logger().Warn("lodsim: encode event failed", "type", e.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			lod.Logger().Debug("lodsim: dropping event for slow client", "type", e.Type)
		}
	}
}

func (h *hub) StageStart(stage lod.Stage) {
	h.broadcast(Event{Type: EventStageStart, Stage: stage.String()})
}

func (h *hub) StageComplete(r lod.StageResult) {
	e := Event{Type: EventStageComplete, Stage: r.Stage.String(), Level: r.Level.String()}
	if r.Err != nil {
		e.Message = r.Err.Error()
	}
	h.broadcast(e)
}

func (h *hub) Progress(percent float64, stage lod.Stage) {
	h.broadcast(Event{Type: EventProgress, Stage: stage.String(), Percent: percent})
}

func (h *hub) QualityChange(f lod.RenderFeatureSet, reason string) {
	h.broadcast(Event{Type: EventQualityChange, Level: f.Level.String(), Message: reason})
}

func (h *hub) PerformanceWarning(msg string) {
	h.broadcast(Event{Type: EventWarning, Message: msg})
}

func (h *hub) Error(err error, stage lod.Stage) {
	h.broadcast(Event{Type: EventError, Stage: stage.String(), Message: err.Error()})
}

func (h *hub) Cancelled(stage lod.Stage) {
	h.broadcast(Event{Type: EventCancelled, Stage: stage.String()})
}

// writePump delivers queued messages until the client is unregistered.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
