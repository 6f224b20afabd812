/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"
)

type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseCollectingPrompts Phase = "collecting_prompts"
	PhaseReady             Phase = "ready"
	PhaseAnswering         Phase = "answering"
	PhaseRevealing         Phase = "revealing"
	PhaseScored            Phase = "scored"
	PhaseExhausted         Phase = "exhausted"
)

func (p Phase) String() string {
	return string(p)
}

// Playing reports whether a round has been drawn at least once.
func (p Phase) Playing() bool {
	switch p {
	case PhaseAnswering, PhaseRevealing, PhaseScored:
		return true
	default:
		return false
	}
}

// Answer is one player's reply to the round's prompt.
type Answer struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

// Round is one prompt and the answers collected for it, in arrival order.
type Round struct {
	Number int
	Prompt Prompt

	answers []Answer
	byID    map[string]int
	reveal  *Reveal
}

func newRound(number int, prompt Prompt) *Round {
	return &Round{
		Number: number,
		Prompt: prompt,
		byID:   make(map[string]int),
	}
}

// Submit stores a player's answer. A second answer from the same player
// replaces the first and keeps its original position.
func (r *Round) Submit(playerID, name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: answer is empty", ErrValidation)
	}

	if i, ok := r.byID[playerID]; ok {
		r.answers[i].Name = name
		r.answers[i].Text = text
		return nil
	}

	r.byID[playerID] = len(r.answers)
	r.answers = append(r.answers, Answer{PlayerID: playerID, Name: name, Text: text})

	return nil
}

func (r *Round) HasAnswered(playerID string) bool {
	_, ok := r.byID[playerID]
	return ok
}

// AnswerProgress counts members who have answered. Answers from players who
// have since left are kept for the reveal but are not counted.
func (r *Round) AnswerProgress(members []string) Progress {
	p := Progress{Total: len(members)}
	for _, id := range members {
		if r.HasAnswered(id) {
			p.Done++
		}
	}
	return p
}

func (r *Round) Answers() []Answer {
	answers := make([]Answer, len(r.answers))
	copy(answers, r.answers)
	return answers
}

func (r *Room) requireHost(intent IntentType, playerID string) error {
	if !r.players.IsHost(playerID) {
		return fmt.Errorf("%w: %s", ErrAuthorization, intent)
	}
	return nil
}

// refresh re-evaluates every automatic transition against the current
// membership. It runs after each successful intent.
func (r *Room) refresh() {
	switch r.phase {
	case PhaseLobby, PhaseCollectingPrompts, PhaseReady:
		if r.prompts.ReadyProgress(r.players.IDs()).Complete() {
			r.phase = PhaseReady
		} else {
			r.phase = PhaseCollectingPrompts
		}
	case PhaseAnswering:
		if r.round.AnswerProgress(r.players.IDs()).Complete() {
			r.beginReveal()
		}
	}
}

func (r *Room) beginReveal() {
	r.scores.ResetVotes()
	r.round.reveal = newReveal(r.revealMode, r.round.answers)
	r.phase = PhaseRevealing
}

// drawRound moves to Answering with a fresh prompt, or to Exhausted when
// the queue is empty.
func (r *Room) drawRound() {
	prompt, ok := r.prompts.Draw()
	if !ok {
		r.round = nil
		r.phase = PhaseExhausted
		return
	}

	r.rounds++
	r.round = newRound(r.rounds, prompt)
	r.phase = PhaseAnswering
}

func (r *Room) startGame(in Intent) error {
	if err := r.requireHost(in.Type, in.PlayerID); err != nil {
		return err
	}
	if r.phase != PhaseReady {
		return wrongPhase(in.Type, r.phase)
	}

	r.drawRound()

	return nil
}

func (r *Room) nextTopic(in Intent) error {
	if err := r.requireHost(in.Type, in.PlayerID); err != nil {
		return err
	}

	switch r.phase {
	case PhaseReady, PhaseScored:
		r.drawRound()
		return nil
	case PhaseExhausted:
		return fmt.Errorf("%w: no more topics", ErrNotFound)
	default:
		return wrongPhase(in.Type, r.phase)
	}
}

func (r *Room) submitAnswer(in Intent) error {
	if r.phase != PhaseAnswering {
		return wrongPhase(in.Type, r.phase)
	}

	p, _ := r.players.Get(in.PlayerID)

	return r.round.Submit(p.ID, p.Name, in.Text)
}

func (r *Room) advanceReveal(in Intent) error {
	if err := r.requireHost(in.Type, in.PlayerID); err != nil {
		return err
	}
	if r.phase != PhaseRevealing {
		return wrongPhase(in.Type, r.phase)
	}

	done, err := r.round.reveal.Advance()
	if err != nil {
		return err
	}
	if done {
		r.phase = PhaseScored
	}

	return nil
}

func (r *Room) closeReveal(in Intent) error {
	if err := r.requireHost(in.Type, in.PlayerID); err != nil {
		return err
	}
	if r.phase != PhaseRevealing {
		return wrongPhase(in.Type, r.phase)
	}

	if err := r.round.reveal.Close(); err != nil {
		return err
	}
	r.phase = PhaseScored

	return nil
}

func (r *Room) likeAnswer(in Intent) error {
	if r.phase != PhaseRevealing {
		return wrongPhase(in.Type, r.phase)
	}

	owner, err := r.round.reveal.Answer(in.Index)
	if err != nil {
		return err
	}
	r.scores.Toggle(in.Index, owner, in.PlayerID, in.On)

	return nil
}

func (r *Room) setRevealMode(in Intent) error {
	if err := r.requireHost(in.Type, in.PlayerID); err != nil {
		return err
	}

	mode, err := parseRevealMode(string(in.Mode))
	if err != nil {
		return err
	}
	r.revealMode = mode

	return nil
}
