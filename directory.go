/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	codeLength   = 6
	codeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
)

// normalizeCode accepts room codes typed or linked by players.
func normalizeCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) < 4 || len(code) > 16 {
		return "", fmt.Errorf("%w: room code must be 4-16 characters", ErrValidation)
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: room code may only contain letters and digits", ErrValidation)
		}
	}
	return code, nil
}

// Directory holds every live room keyed by code, so each code is its own
// isolated game.
type Directory struct {
	mu    sync.Mutex
	hubs  map[string]*Hub
	ctx   context.Context
	log   *zap.SugaredLogger
	grace time.Duration
	rng   func() *mrand.Rand
}

func newDirectory(ctx context.Context, cfg *Config, log *zap.SugaredLogger) *Directory {
	return &Directory{
		hubs:  make(map[string]*Hub),
		ctx:   ctx,
		log:   log,
		grace: cfg.playerGrace,
		rng: func() *mrand.Rand {
			return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
		},
	}
}

// Get returns the hub for code, if the room exists.
func (d *Directory) Get(code string) (*Hub, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hub, ok := d.hubs[code]
	return hub, ok
}

// Ensure returns the hub for code, creating the room if needed.
func (d *Directory) Ensure(code string) *Hub {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ensureLocked(code)
}

func (d *Directory) ensureLocked(code string) *Hub {
	if hub, ok := d.hubs[code]; ok {
		return hub
	}

	hub := newHub(d.ctx, newRoom(code, d.rng(), time.Now), d.grace, d.log)
	d.hubs[code] = hub
	d.log.Infow("room created", "room", code)

	return hub
}

// Attach registers c with the room for code. A room that was reaped between
// lookup and registration is recreated.
func (d *Directory) Attach(ctx context.Context, code string, c *Client) (*Hub, error) {
	var err error
	for range 3 {
		// The hold is taken under d.mu so Reap cannot pick this hub between
		// lookup and registration.
		d.mu.Lock()
		hub := d.ensureLocked(code)
		hub.hold()
		d.mu.Unlock()

		err = hub.Register(ctx, c)
		hub.release()
		if err == nil {
			return hub, nil
		}
		if !errors.Is(err, errHubClosed) {
			return nil, err
		}
		d.forget(code, hub)
	}
	return nil, err
}

func (d *Directory) forget(code string, hub *Hub) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hubs[code] == hub {
		delete(d.hubs, code)
	}
}

func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.hubs)
}

// newCode generates a crypto-random room code that is not in use.
func (d *Directory) newCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))

	for {
		out := make([]byte, codeLength)
		for i := range out {
			n, err := rand.Int(rand.Reader, size)
			if err != nil {
				return "", fmt.Errorf("generating room code: %w", err)
			}
			out[i] = codeAlphabet[n.Int64()]
		}
		code := string(out)

		d.mu.Lock()
		_, exists := d.hubs[code]
		d.mu.Unlock()
		if !exists {
			return code, nil
		}
	}
}

// Reap removes rooms that have been empty since before cutoff.
func (d *Directory) Reap(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	reaped := 0
	for code, hub := range d.hubs {
		if hub.Idle(cutoff) {
			delete(d.hubs, code)
			go hub.Shutdown()
			reaped++
			d.log.Infow("room removed", "room", code)
		}
	}

	return reaped
}

// reaperLoop periodically removes empty rooms until ctx is done.
func (d *Directory) reaperLoop(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			d.Reap(now.Add(-timeout))
		}
	}
}
