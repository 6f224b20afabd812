/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptQueue_Add(t *testing.T) {
	q := newPromptQueue(rand.New(rand.NewPCG(1, 2)))

	n, err := q.Add("a", "  favourite snack  ")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = q.Add("b", "dream holiday")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = q.Add("a", " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = q.Add("a", strings.Repeat("x", maxPromptLength+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = q.Add("a", strings.Repeat("x", maxPromptLength))
	assert.NoError(t, err)

	assert.Equal(t, 3, q.Count())
	assert.Equal(t, 3, q.Remaining())
	assert.Equal(t, "favourite snack", q.unused[0].Text)
	assert.Equal(t, "a", q.unused[0].AuthorID)
	_, err = uuid.Parse(q.unused[0].ID)
	assert.NoError(t, err)
}

func TestPromptQueue_DrawWithoutReplacement(t *testing.T) {
	q := newPromptQueue(rand.New(rand.NewPCG(7, 11)))

	want := map[string]bool{}
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := q.Add("a", text)
		require.NoError(t, err)
		want[text] = true
	}

	got := map[string]bool{}
	for range 5 {
		p, ok := q.Draw()
		require.True(t, ok)
		assert.False(t, got[p.Text], "%q drawn twice", p.Text)
		got[p.Text] = true
	}

	assert.Equal(t, want, got)
	assert.Equal(t, 0, q.Remaining())
	assert.Equal(t, 5, q.Count())

	_, ok := q.Draw()
	assert.False(t, ok)
}

func TestPromptQueue_DrawIsUniform(t *testing.T) {
	counts := map[string]int{}

	for seed := range uint64(3000) {
		q := newPromptQueue(rand.New(rand.NewPCG(seed, seed*31+1)))
		for _, text := range []string{"a", "b", "c"} {
			_, err := q.Add("x", text)
			require.NoError(t, err)
		}
		p, ok := q.Draw()
		require.True(t, ok)
		counts[p.Text]++
	}

	for text, n := range counts {
		assert.InDelta(t, 1000, n, 150, "prompt %q", text)
	}
}

func TestPromptQueue_ReadyProgress(t *testing.T) {
	q := newPromptQueue(rand.New(rand.NewPCG(1, 2)))

	assert.False(t, q.ReadyProgress(nil).Complete(), "an empty room is never ready")

	q.MarkReady("a")
	q.MarkReady("a")
	q.MarkReady("gone")

	p := q.ReadyProgress([]string{"a", "b"})
	assert.Equal(t, Progress{Done: 1, Total: 2}, p)
	assert.False(t, p.Complete())

	q.MarkReady("b")
	assert.True(t, q.ReadyProgress([]string{"a", "b"}).Complete())

	q.Forget("b")
	assert.False(t, q.IsReady("b"))
	assert.Equal(t, Progress{Done: 1, Total: 2}, q.ReadyProgress([]string{"a", "b"}))
}
