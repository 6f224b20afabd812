/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreLedger_ToggleIsIdempotent(t *testing.T) {
	l := newScoreLedger()
	owner := Answer{PlayerID: "a", Name: "Hana"}

	assert.True(t, l.Toggle(0, owner, "b", true))
	assert.False(t, l.Toggle(0, owner, "b", true))
	assert.Equal(t, 1, l.Tally(0))
	assert.Equal(t, 1, l.Score("a"))
	assert.True(t, l.Liked(0, "b"))
	assert.False(t, l.Liked(0, "c"))

	assert.True(t, l.Toggle(0, owner, "c", true))
	assert.Equal(t, 2, l.Score("a"))

	assert.True(t, l.Toggle(0, owner, "b", false))
	assert.False(t, l.Toggle(0, owner, "b", false))
	assert.Equal(t, 1, l.Tally(0))
	assert.Equal(t, 1, l.Score("a"))

	// Unliking something never liked changes nothing.
	assert.False(t, l.Toggle(1, owner, "b", false))
	assert.Equal(t, 1, l.Score("a"))
}

func TestScoreLedger_ResetVotesKeepsScores(t *testing.T) {
	l := newScoreLedger()
	l.Toggle(0, Answer{PlayerID: "a", Name: "Hana"}, "b", true)
	l.Toggle(1, Answer{PlayerID: "b", Name: "Ren"}, "a", true)

	l.ResetVotes()

	assert.Equal(t, 0, l.Tally(0))
	assert.Equal(t, 0, l.Tally(1))
	assert.False(t, l.Liked(0, "b"))
	assert.Equal(t, 1, l.Score("a"))
	assert.Equal(t, 1, l.Score("b"))
}

func TestScoreLedger_Table(t *testing.T) {
	l := newScoreLedger()
	l.Toggle(0, Answer{PlayerID: "gone", Name: "Kai"}, "a", true)
	l.Toggle(0, Answer{PlayerID: "gone", Name: "Kai"}, "b", true)
	l.Toggle(1, Answer{PlayerID: "b", Name: "Ren"}, "a", true)

	members := []Player{
		{ID: "a", Name: "Hana"},
		{ID: "b", Name: "Ren"},
		{ID: "c", Name: "Aoi"},
	}

	assert.Equal(t, []ScoreRow{
		{PlayerID: "gone", Name: "Kai", Score: 2},
		{PlayerID: "b", Name: "Ren", Score: 1},
		{PlayerID: "c", Name: "Aoi", Score: 0},
		{PlayerID: "a", Name: "Hana", Score: 0},
	}, l.Table(members))
}

func TestScoreLedger_Rename(t *testing.T) {
	l := newScoreLedger()
	l.Toggle(0, Answer{PlayerID: "a", Name: "Hana"}, "b", true)

	l.Rename("a", "Hana-chan")
	l.Rename("nobody", "Ghost")

	assert.Equal(t, []ScoreRow{{PlayerID: "a", Name: "Hana-chan", Score: 1}}, l.Table(nil))
}
