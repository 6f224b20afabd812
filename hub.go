/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errHubClosed = fmt.Errorf("%w: room has closed", ErrNotFound)

// SnapshotMessage carries a full room state. A client replaces whatever it
// was showing with the highest version it has seen.
type SnapshotMessage struct {
	Type    string    `json:"type"` // "snapshot"
	Version int       `json:"version"`
	State   RoomState `json:"state"`
}

// ErrorMessage is sent only to the client whose intent was rejected.
type ErrorMessage struct {
	Type    string     `json:"type"` // "error"
	Intent  IntentType `json:"intent,omitempty"`
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
}

func newErrorMessage(intent IntentType, err error) ErrorMessage {
	return ErrorMessage{
		Type:    "error",
		Intent:  intent,
		Kind:    errorKind(err),
		Message: err.Error(),
	}
}

type hubMsg interface{ isHubMsg() }

type register struct {
	client *Client
	ok     chan struct{}
}

type unregister struct{ client *Client }

type intentMsg struct {
	intent Intent
	client *Client // may be nil
	reply  chan error
}

type notify struct {
	client *Client
	msg    any
}

type expire struct{ playerID string }

type viewMsg struct {
	viewer string
	reply  chan HubView
}

type shutdown struct{}

func (register) isHubMsg()   {}
func (unregister) isHubMsg() {}
func (intentMsg) isHubMsg()  {}
func (notify) isHubMsg()     {}
func (expire) isHubMsg()     {}
func (viewMsg) isHubMsg()    {}
func (shutdown) isHubMsg()   {}

// HubView is a read-only look at a hub, used by the JSON room endpoint and
// by tests.
type HubView struct {
	Version   int       `json:"version"`
	Clients   int       `json:"clients"`
	CreatedAt time.Time `json:"created_at"`
	State     RoomState `json:"state"`
}

// Hub owns one Room and is the only goroutine that touches it, so intents
// for a room are applied strictly one after another.
type Hub struct {
	id    string
	room  *Room
	log   *zap.SugaredLogger
	grace time.Duration

	inbox   chan hubMsg
	clients map[*Client]bool
	timers  map[string]*time.Timer
	version int

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	lastActive time.Time
	members    int
	conns      int
	pending    int
}

func newHub(parent context.Context, room *Room, grace time.Duration, log *zap.SugaredLogger) *Hub {
	ctx, cancel := context.WithCancel(parent)

	h := &Hub{
		id:         room.Code,
		room:       room,
		log:        log,
		grace:      grace,
		inbox:      make(chan hubMsg, 64),
		clients:    make(map[*Client]bool),
		timers:     make(map[string]*time.Timer),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: time.Now(),
	}

	go h.run()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case register:
				h.clients[msg.client] = true
				h.stopTimer(msg.client.playerID)
				h.touch()
				close(msg.ok)
				h.broadcast()

			case unregister:
				h.handleUnregister(msg.client)

			case intentMsg:
				h.handleIntent(msg)

			case notify:
				h.sendTo(msg.client, msg.msg)

			case expire:
				delete(h.timers, msg.playerID)
				if h.connected(msg.playerID) || !h.room.players.Has(msg.playerID) {
					break
				}
				_ = h.room.Apply(Intent{Type: IntentLeave, PlayerID: msg.playerID})
				h.log.Infow("player left after disconnect", "room", h.id, "player", msg.playerID)
				h.touch()
				h.broadcast()

			case viewMsg:
				msg.reply <- HubView{
					Version:   h.version,
					Clients:   len(h.clients),
					CreatedAt: h.room.createdAt,
					State:     h.room.Snapshot(msg.viewer, h.online()),
				}

			case shutdown:
				h.cancel()
				h.closeAll()
				return
			}
		}
	}
}

func (h *Hub) handleIntent(msg intentMsg) {
	err := h.room.Apply(msg.intent)
	if msg.reply != nil {
		msg.reply <- err
	}

	if err != nil {
		h.log.Infow("intent rejected",
			"room", h.id,
			"player", msg.intent.PlayerID,
			"intent", msg.intent.Type,
			"error", err,
		)
		if msg.client != nil {
			h.sendTo(msg.client, newErrorMessage(msg.intent.Type, err))
		}
		return
	}

	if msg.intent.Type == IntentJoin || msg.intent.Type == IntentLeave {
		h.log.Infow("membership changed",
			"room", h.id,
			"player", msg.intent.PlayerID,
			"intent", msg.intent.Type,
			"members", h.room.players.Len(),
		)
	}

	h.touch()
	h.broadcast()
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	pid := c.playerID
	if pid != "" && !h.connected(pid) && h.room.players.Has(pid) {
		if h.grace <= 0 {
			_ = h.room.Apply(Intent{Type: IntentLeave, PlayerID: pid})
		} else {
			h.scheduleRemoval(pid)
		}
	}

	h.touch()
	h.broadcast()
}

// scheduleRemoval gives a disconnected player time to come back before
// they stop counting towards progress.
func (h *Hub) scheduleRemoval(playerID string) {
	h.stopTimer(playerID)
	h.timers[playerID] = time.AfterFunc(h.grace, func() {
		select {
		case h.inbox <- expire{playerID: playerID}:
		case <-h.ctx.Done():
		}
	})
}

func (h *Hub) stopTimer(playerID string) {
	if t, ok := h.timers[playerID]; ok {
		t.Stop()
		delete(h.timers, playerID)
	}
}

func (h *Hub) connected(playerID string) bool {
	for c := range h.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) online() map[string]bool {
	online := make(map[string]bool, len(h.clients))
	for c := range h.clients {
		online[c.playerID] = true
	}
	return online
}

// broadcast sends every connection its own view of the room.
func (h *Hub) broadcast() {
	h.version++

	online := h.online()
	views := make(map[string]RoomState, len(h.clients))

	for c := range h.clients {
		state, ok := views[c.playerID]
		if !ok {
			state = h.room.Snapshot(c.playerID, online)
			views[c.playerID] = state
		}
		h.sendTo(c, SnapshotMessage{Type: "snapshot", Version: h.version, State: state})
	}
}

// sendTo never blocks the hub; a client that cannot keep up is dropped.
func (h *Hub) sendTo(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warnw("dropping slow client", "room", h.id, "player", c.playerID)
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()
	h.members = h.room.players.Len()
	h.conns = len(h.clients)
}

// hold marks a registration in flight so the reaper leaves the hub alone.
func (h *Hub) hold() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending++
}

func (h *Hub) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending--
}

// Idle reports whether the room has had nobody in it since before cutoff.
func (h *Hub) Idle(cutoff time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.pending == 0 && h.members == 0 && h.conns == 0 && h.lastActive.Before(cutoff)
}

func (h *Hub) closeAll() {
	for id := range h.timers {
		h.stopTimer(id)
	}
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) enqueue(ctx context.Context, m hubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return errHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register attaches a connection and sends it the current state.
func (h *Hub) Register(ctx context.Context, c *Client) error {
	ok := make(chan struct{})
	if err := h.enqueue(ctx, register{client: c, ok: ok}); err != nil {
		return err
	}

	select {
	case <-ok:
		return nil
	case <-h.ctx.Done():
		return errHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Unregister(c *Client) {
	_ = h.enqueue(context.Background(), unregister{client: c})
}

// Submit applies an intent and returns the verdict. The verdict is also
// sent to c, when c is not nil.
func (h *Hub) Submit(ctx context.Context, c *Client, in Intent) error {
	reply := make(chan error, 1)
	if err := h.enqueue(ctx, intentMsg{intent: in, client: c, reply: reply}); err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-h.ctx.Done():
		return errHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify delivers msg to c through the hub, which owns c's send channel.
func (h *Hub) Notify(c *Client, msg any) {
	_ = h.enqueue(context.Background(), notify{client: c, msg: msg})
}

// View reports the room as seen by viewer. An empty viewer gets the
// spectator view.
func (h *Hub) View(ctx context.Context, viewer string) (HubView, error) {
	reply := make(chan HubView, 1)
	if err := h.enqueue(ctx, viewMsg{viewer: viewer, reply: reply}); err != nil {
		return HubView{}, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		return HubView{}, errHubClosed
	case <-ctx.Done():
		return HubView{}, ctx.Err()
	}
}

func (h *Hub) Shutdown() {
	if err := h.enqueue(context.Background(), shutdown{}); err != nil && !errors.Is(err, errHubClosed) {
		h.log.Warnw("shutting down room", "room", h.id, "error", err)
	}
}
