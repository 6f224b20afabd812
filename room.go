/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type IntentType string

const (
	IntentJoin          IntentType = "join"
	IntentLeave         IntentType = "leave"
	IntentAddPrompt     IntentType = "addPrompt"
	IntentMarkReady     IntentType = "markReady"
	IntentStartGame     IntentType = "startGame"
	IntentSubmitAnswer  IntentType = "submitAnswer"
	IntentSetRevealMode IntentType = "setRevealMode"
	IntentNextTopic     IntentType = "nextTopic"
	IntentAdvanceReveal IntentType = "advanceReveal"
	IntentCloseReveal   IntentType = "closeReveal"
	IntentLikeAnswer    IntentType = "likeAnswer"
)

// Intent is a request from one player to change the room. PlayerID always
// comes from the session, never from the client payload.
type Intent struct {
	Type     IntentType `json:"type"`
	PlayerID string     `json:"-"`
	Name     string     `json:"name,omitempty"`
	Text     string     `json:"text,omitempty"`
	Mode     RevealMode `json:"mode,omitempty"`
	Index    int        `json:"index"`
	On       bool       `json:"on"`
}

// Room is the authoritative state of one game. It is not safe for
// concurrent use; its Hub applies intents one at a time.
type Room struct {
	Code string

	phase      Phase
	players    *Players
	prompts    *PromptQueue
	scores     *ScoreLedger
	round      *Round
	rounds     int
	revealMode RevealMode
	createdAt  time.Time
	now        func() time.Time
}

func newRoom(code string, rng *rand.Rand, now func() time.Time) *Room {
	r := &Room{
		Code:       code,
		phase:      PhaseLobby,
		players:    newPlayers(),
		prompts:    newPromptQueue(rng),
		scores:     newScoreLedger(),
		revealMode: RevealSequential,
		createdAt:  now(),
		now:        now,
	}
	r.refresh()

	return r
}

func (r *Room) Phase() Phase {
	return r.phase
}

func (r *Room) Members() []Player {
	return r.players.List()
}

func (r *Room) Empty() bool {
	return r.players.Len() == 0
}

// Apply runs a single intent. On error the room is left exactly as it was.
func (r *Room) Apply(in Intent) error {
	var err error

	switch in.Type {
	case IntentJoin:
		err = r.join(in)
	case IntentLeave:
		r.leave(in.PlayerID)
	default:
		if !r.players.Has(in.PlayerID) {
			return fmt.Errorf("%w: player is not in room %s", ErrNotFound, r.Code)
		}
		err = r.dispatch(in)
	}
	if err != nil {
		return err
	}

	r.refresh()

	return nil
}

func (r *Room) dispatch(in Intent) error {
	switch in.Type {
	case IntentAddPrompt:
		if r.phase == PhaseExhausted {
			return wrongPhase(in.Type, r.phase)
		}
		_, err := r.prompts.Add(in.PlayerID, in.Text)
		return err
	case IntentMarkReady:
		r.prompts.MarkReady(in.PlayerID)
		return nil
	case IntentStartGame:
		return r.startGame(in)
	case IntentSubmitAnswer:
		return r.submitAnswer(in)
	case IntentSetRevealMode:
		return r.setRevealMode(in)
	case IntentNextTopic:
		return r.nextTopic(in)
	case IntentAdvanceReveal:
		return r.advanceReveal(in)
	case IntentCloseReveal:
		return r.closeReveal(in)
	case IntentLikeAnswer:
		return r.likeAnswer(in)
	default:
		return fmt.Errorf("%w: unknown intent %q", ErrValidation, in.Type)
	}
}

func (r *Room) join(in Intent) error {
	members, err := r.players.Join(in.PlayerID, in.Name, r.now())
	if err != nil {
		return err
	}

	for _, m := range members {
		if m.ID == in.PlayerID {
			r.scores.Rename(m.ID, m.Name)
			break
		}
	}

	return nil
}

func (r *Room) leave(playerID string) {
	if !r.players.Has(playerID) {
		return
	}
	r.players.Leave(playerID)
	r.prompts.Forget(playerID)
}

// MemberView is a player as shown to other players.
type MemberView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Host     bool   `json:"host"`
	Online   bool   `json:"online"`
	Ready    bool   `json:"ready"`
	Answered bool   `json:"answered"`
}

type AnswerView struct {
	Index      int    `json:"index"`
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Text       string `json:"text"`
	Likes      int    `json:"likes"`
	LikedByYou bool   `json:"liked_by_you"`
}

type RoundView struct {
	Number     int          `json:"number"`
	Prompt     string       `json:"prompt"`
	RevealMode RevealMode   `json:"reveal_mode,omitempty"`
	Cursor     *int         `json:"cursor,omitempty"`
	Answered   bool         `json:"answered"`
	Answers    []AnswerView `json:"answers"`
}

// RoomState is a complete picture of a room from one member's point of
// view. Clients replace whatever they had with the latest one.
type RoomState struct {
	Room             string       `json:"room"`
	Phase            Phase        `json:"phase"`
	You              string       `json:"you"`
	IsHost           bool         `json:"is_host"`
	Members          []MemberView `json:"members"`
	PromptCount      int          `json:"prompt_count"`
	PromptsRemaining int          `json:"prompts_remaining"`
	ReadyProgress    Progress     `json:"ready_progress"`
	AnswerProgress   Progress     `json:"answer_progress"`
	RevealMode       RevealMode   `json:"reveal_mode"`
	Round            *RoundView   `json:"round,omitempty"`
	Scores           []ScoreRow   `json:"scores"`
	Exhausted        bool         `json:"exhausted"`
}

// Snapshot renders the room for viewer. online lists player ids that
// currently hold a connection.
func (r *Room) Snapshot(viewer string, online map[string]bool) RoomState {
	ids := r.players.IDs()
	members := r.players.List()

	s := RoomState{
		Room:             r.Code,
		Phase:            r.phase,
		You:              viewer,
		IsHost:           r.players.IsHost(viewer),
		Members:          make([]MemberView, 0, len(members)),
		PromptCount:      r.prompts.Count(),
		PromptsRemaining: r.prompts.Remaining(),
		ReadyProgress:    r.prompts.ReadyProgress(ids),
		AnswerProgress:   Progress{Total: len(ids)},
		RevealMode:       r.revealMode,
		Scores:           r.scores.Table(members),
		Exhausted:        r.phase == PhaseExhausted,
	}

	for _, m := range members {
		mv := MemberView{
			ID:     m.ID,
			Name:   m.Name,
			Host:   m.Host,
			Online: online[m.ID],
			Ready:  r.prompts.IsReady(m.ID),
		}
		if r.round != nil {
			mv.Answered = r.round.HasAnswered(m.ID)
		}
		s.Members = append(s.Members, mv)
	}

	if r.round != nil {
		s.AnswerProgress = r.round.AnswerProgress(ids)
		s.Round = r.roundView(viewer)
	}

	return s
}

func (r *Room) roundView(viewer string) *RoundView {
	rv := &RoundView{
		Number:   r.round.Number,
		Prompt:   r.round.Prompt.Text,
		Answered: r.round.HasAnswered(viewer),
		Answers:  []AnswerView{},
	}

	reveal := r.round.reveal
	if reveal == nil {
		return rv
	}

	rv.RevealMode = reveal.Mode()
	if cursor, ok := reveal.Cursor(); ok && r.phase == PhaseRevealing {
		rv.Cursor = &cursor
	}
	for i, a := range reveal.Visible() {
		rv.Answers = append(rv.Answers, AnswerView{
			Index:      i,
			PlayerID:   a.PlayerID,
			Name:       a.Name,
			Text:       a.Text,
			Likes:      r.scores.Tally(i),
			LikedByYou: r.scores.Liked(i, viewer),
		})
	}

	return rv
}
