/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"cmp"
	"slices"
)

// ScoreRow is one line of the score table.
type ScoreRow struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// ScoreLedger keeps the likes of the round being revealed and the running
// score of every player who has ever owned a liked answer.
type ScoreLedger struct {
	scores map[string]int
	names  map[string]string
	votes  map[int]map[string]bool
}

func newScoreLedger() *ScoreLedger {
	return &ScoreLedger{
		scores: make(map[string]int),
		names:  make(map[string]string),
		votes:  make(map[int]map[string]bool),
	}
}

// ResetVotes clears the vote set ahead of a new reveal. Scores are kept.
func (l *ScoreLedger) ResetVotes() {
	clear(l.votes)
}

// Toggle sets or clears voterID's like on the answer at index. It reports
// whether anything changed; repeated calls with the same value are no-ops.
func (l *ScoreLedger) Toggle(index int, owner Answer, voterID string, on bool) bool {
	voters := l.votes[index]
	if voters[voterID] == on {
		return false
	}

	if on {
		if voters == nil {
			voters = make(map[string]bool)
			l.votes[index] = voters
		}
		voters[voterID] = true
		l.scores[owner.PlayerID]++
	} else {
		delete(voters, voterID)
		l.scores[owner.PlayerID]--
	}
	l.names[owner.PlayerID] = owner.Name

	return true
}

func (l *ScoreLedger) Tally(index int) int {
	return len(l.votes[index])
}

func (l *ScoreLedger) Liked(index int, voterID string) bool {
	return l.votes[index][voterID]
}

func (l *ScoreLedger) Score(playerID string) int {
	return l.scores[playerID]
}

// Rename keeps the label of a scored player current.
func (l *ScoreLedger) Rename(playerID, name string) {
	if _, ok := l.names[playerID]; ok {
		l.names[playerID] = name
	}
}

// Table lists every current member plus anyone who scored and has since
// left, highest score first.
func (l *ScoreLedger) Table(members []Player) []ScoreRow {
	rows := make([]ScoreRow, 0, len(members)+len(l.scores))
	seen := make(map[string]bool, len(members))

	for _, m := range members {
		seen[m.ID] = true
		rows = append(rows, ScoreRow{PlayerID: m.ID, Name: m.Name, Score: l.scores[m.ID]})
	}
	for id, score := range l.scores {
		if seen[id] {
			continue
		}
		rows = append(rows, ScoreRow{PlayerID: id, Name: l.names[id], Score: score})
	}

	slices.SortFunc(rows, func(a, b ScoreRow) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.PlayerID, b.PlayerID),
		)
	})

	return rows
}
