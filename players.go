/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxNameLength = 32

// Player is a member of a room. The host flag is decided when the room is
// created and never changes afterwards.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Host     bool      `json:"host"`
	JoinedAt time.Time `json:"joined_at"`
}

// Players tracks the current membership of a single room, in join order.
type Players struct {
	hostID  string
	order   []string
	members map[string]*Player
}

func newPlayers() *Players {
	return &Players{
		members: make(map[string]*Player),
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:maxNameLength]))
	}
	return name, nil
}

// Join adds a player, or updates the name of one who is already present.
// The very first player to join becomes the host.
func (p *Players) Join(id, name string, now time.Time) ([]Player, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrValidation)
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	if existing, ok := p.members[id]; ok {
		existing.Name = name
		return p.List(), nil
	}

	if p.hostID == "" {
		p.hostID = id
	}
	p.members[id] = &Player{
		ID:       id,
		Name:     name,
		Host:     id == p.hostID,
		JoinedAt: now,
	}
	p.order = append(p.order, id)

	return p.List(), nil
}

// Leave removes a player. Unknown ids are ignored.
func (p *Players) Leave(id string) []Player {
	if _, ok := p.members[id]; !ok {
		return p.List()
	}
	delete(p.members, id)

	dst := p.order[:0]
	for _, pid := range p.order {
		if pid != id {
			dst = append(dst, pid)
		}
	}
	p.order = dst

	return p.List()
}

func (p *Players) Get(id string) (Player, bool) {
	m, ok := p.members[id]
	if !ok {
		return Player{}, false
	}
	return *m, true
}

func (p *Players) Has(id string) bool {
	_, ok := p.members[id]
	return ok
}

func (p *Players) IsHost(id string) bool {
	return id != "" && id == p.hostID
}

func (p *Players) HostID() string {
	return p.hostID
}

func (p *Players) Len() int {
	return len(p.members)
}

// IDs returns member ids in join order.
func (p *Players) IDs() []string {
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	return ids
}

// List returns a copy of every member in join order.
func (p *Players) List() []Player {
	list := make([]Player, 0, len(p.order))
	for _, id := range p.order {
		list = append(list, *p.members[id])
	}
	return list
}
