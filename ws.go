/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	playerCookieName = "kokoro_id"
	sendBufferSize   = 16
	maxMessageSize   = 4096
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
	writeWait        = 10 * time.Second
)

// Client is one WebSocket connection. A player may hold several.
type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	limiter  *rate.Limiter
}

func newClient(conn *websocket.Conn, playerID string, cfg *Config) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan any, sendBufferSize),
		playerID: playerID,
		limiter:  rate.NewLimiter(rate.Limit(cfg.intentRate), cfg.intentBurst),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// getOrSetPlayerID returns the session id from the cookie, issuing a new
// one on first visit.
func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// decodeIntent parses one client frame. The player id is filled in by the
// caller from the session.
func decodeIntent(data []byte) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return Intent{}, fmt.Errorf("%w: malformed message", ErrValidation)
	}
	if in.Type == "" {
		return Intent{}, fmt.Errorf("%w: message has no type", ErrValidation)
	}
	return in, nil
}

// serveRoomWS upgrades the connection and pumps intents into the room's hub.
func serveRoomWS(cfg *Config, dir *Directory, log *zap.SugaredLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code, err := normalizeCode(ps.ByName("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		// Upgrade writes its own response, so the cookie has to be passed along.
		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			log.Warnw("websocket upgrade failed", "room", code, "remote", realIP(r), "error", err)
			return
		}

		client := newClient(conn, playerID, cfg)

		hub, err := dir.Attach(r.Context(), code, client)
		if err != nil {
			log.Warnw("attaching to room failed", "room", code, "error", err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "room unavailable"),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}

		log.Infow("client connected", "room", code, "player", playerID, "remote", realIP(r))

		go client.writePump()
		client.readPump(hub, log)
	}
}

func (c *Client) readPump(h *Hub, log *zap.SugaredLogger) {
	defer func() {
		h.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Infow("client read failed", "room", h.id, "player", c.playerID, "error", err)
			}
			return
		}

		in, err := decodeIntent(data)
		if err != nil {
			h.Notify(c, newErrorMessage("", err))
			continue
		}
		in.PlayerID = c.playerID

		if !c.limiter.Allow() {
			h.Notify(c, newErrorMessage(in.Type, ErrRateLimited))
			continue
		}

		err = h.Submit(context.Background(), c, in)
		if errors.Is(err, errHubClosed) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
