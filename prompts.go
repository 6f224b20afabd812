/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxPromptLength = 200

// Prompt is a topic contributed by one player.
type Prompt struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

// Progress is a {done, total} pair. It is always computed from current
// state, never kept as a running counter.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (p Progress) Complete() bool {
	return p.Total > 0 && p.Done == p.Total
}

// PromptQueue holds the prompts of a room and who has finished adding them.
type PromptQueue struct {
	rng    *rand.Rand
	unused []Prompt
	used   []Prompt
	ready  map[string]bool
}

func newPromptQueue(rng *rand.Rand) *PromptQueue {
	return &PromptQueue{
		rng:   rng,
		ready: make(map[string]bool),
	}
}

// Add appends a prompt and returns the number of prompts submitted so far.
func (q *PromptQueue) Add(authorID, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: prompt is empty", ErrValidation)
	}
	if utf8.RuneCountInString(text) > maxPromptLength {
		return 0, fmt.Errorf("%w: prompt is longer than %d characters", ErrValidation, maxPromptLength)
	}

	q.unused = append(q.unused, Prompt{
		ID:       uuid.NewString(),
		Text:     text,
		AuthorID: authorID,
	})

	return q.Count(), nil
}

func (q *PromptQueue) MarkReady(id string) {
	q.ready[id] = true
}

func (q *PromptQueue) IsReady(id string) bool {
	return q.ready[id]
}

// Forget drops the ready mark of a player who left, so a later rejoin has
// to acknowledge again.
func (q *PromptQueue) Forget(id string) {
	delete(q.ready, id)
}

// ReadyProgress counts ready players among the given members.
func (q *PromptQueue) ReadyProgress(members []string) Progress {
	p := Progress{Total: len(members)}
	for _, id := range members {
		if q.ready[id] {
			p.Done++
		}
	}
	return p
}

// Draw picks one unused prompt uniformly at random and retires it.
// It returns false once every prompt has been drawn.
func (q *PromptQueue) Draw() (Prompt, bool) {
	if len(q.unused) == 0 {
		return Prompt{}, false
	}

	i := q.rng.IntN(len(q.unused))
	p := q.unused[i]

	last := len(q.unused) - 1
	q.unused[i] = q.unused[last]
	q.unused = q.unused[:last]
	q.used = append(q.used, p)

	return p, true
}

func (q *PromptQueue) Count() int {
	return len(q.unused) + len(q.used)
}

func (q *PromptQueue) Remaining() int {
	return len(q.unused)
}
