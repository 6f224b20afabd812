/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return newDirectory(ctx, &Config{}, zap.NewNop().Sugar())
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ab12cd", want: "ab12cd"},
		{in: " AB12CD ", want: "ab12cd"},
		{in: "abcd", want: "abcd"},
		{in: strings.Repeat("z", 16), want: strings.Repeat("z", 16)},
		{in: "abc", wantErr: true},
		{in: strings.Repeat("z", 17), wantErr: true},
		{in: "ab-12", wantErr: true},
		{in: "ab 12", wantErr: true},
		{in: "ünïcode", wantErr: true},
	}

	for _, tc := range cases {
		got, err := normalizeCode(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestDirectory_NewCode(t *testing.T) {
	d := testDirectory(t)

	seen := map[string]bool{}
	for range 200 {
		code, err := d.newCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)

		normalized, err := normalizeCode(code)
		require.NoError(t, err)
		assert.Equal(t, code, normalized)

		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestDirectory_NewCodeIsUniform(t *testing.T) {
	d := testDirectory(t)

	counts := map[rune]int{}
	const rounds = 42000
	for range rounds {
		code, err := d.newCode()
		require.NoError(t, err)
		for _, r := range code {
			counts[r]++
		}
	}

	require.Len(t, counts, len(codeAlphabet))
	want := float64(rounds*codeLength) / float64(len(codeAlphabet))
	for r, n := range counts {
		assert.InDelta(t, want, n, want*0.05, "character %q", r)
	}
}

func TestDirectory_RoomsAreIsolated(t *testing.T) {
	d := testDirectory(t)

	a := d.Ensure("room1")
	b := d.Ensure("room2")
	assert.Same(t, a, d.Ensure("room1"))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, d.Len())

	ca := testClient("p1", testBuffer)
	_, err := d.Attach(context.Background(), "room1", ca)
	require.NoError(t, err)
	submit(t, a, ca, Intent{Type: IntentJoin, Name: "Hana"})

	va := settle(t, a)
	vb := settle(t, b)
	assert.Len(t, va.State.Members, 1)
	assert.Empty(t, vb.State.Members)

	_, ok := d.Get("room3")
	assert.False(t, ok)
}

func TestDirectory_Reap(t *testing.T) {
	d := testDirectory(t)

	busy := d.Ensure("busy")
	d.Ensure("empty")

	c := testClient("p1", testBuffer)
	_, err := d.Attach(context.Background(), "busy", c)
	require.NoError(t, err)
	submit(t, busy, c, Intent{Type: IntentJoin, Name: "Hana"})
	settle(t, busy)

	assert.Equal(t, 0, d.Reap(time.Now().Add(-time.Hour)), "recently active rooms are kept")

	assert.Equal(t, 1, d.Reap(time.Now().Add(time.Hour)))
	assert.Equal(t, 1, d.Len())
	_, ok := d.Get("busy")
	assert.True(t, ok)
	_, ok = d.Get("empty")
	assert.False(t, ok)
}

func TestDirectory_ReapSkipsPendingAttach(t *testing.T) {
	d := testDirectory(t)

	hub := d.Ensure("abcd")
	hub.hold()

	assert.Equal(t, 0, d.Reap(time.Now().Add(time.Hour)), "a registration in flight keeps the room")
	_, ok := d.Get("abcd")
	assert.True(t, ok)

	hub.release()
	assert.Equal(t, 1, d.Reap(time.Now().Add(time.Hour)))
}

func TestDirectory_AttachedRoomIsNotIdle(t *testing.T) {
	d := testDirectory(t)

	for range 50 {
		c := testClient("p1", testBuffer)
		hub, err := d.Attach(context.Background(), "abcd", c)
		require.NoError(t, err)

		// Nobody has joined yet, but the connection alone keeps the room.
		assert.Equal(t, 0, d.Reap(time.Now().Add(time.Hour)))
		current, ok := d.Get("abcd")
		require.True(t, ok)
		assert.Same(t, hub, current)

		hub.Unregister(c)
		settle(t, hub)
		assert.Equal(t, 1, d.Reap(time.Now().Add(time.Hour)))
	}
}

func TestDirectory_AttachRecreatesClosedRoom(t *testing.T) {
	d := testDirectory(t)

	old := d.Ensure("abcd")
	old.Shutdown()
	require.Eventually(t, func() bool {
		return old.ctx.Err() != nil
	}, recvTimeout, 5*time.Millisecond)

	c := testClient("p1", testBuffer)
	hub, err := d.Attach(context.Background(), "abcd", c)
	require.NoError(t, err)
	assert.NotSame(t, old, hub)

	current, ok := d.Get("abcd")
	require.True(t, ok)
	assert.Same(t, hub, current)
}

func TestDirectory_ReaperLoopStops(t *testing.T) {
	d := testDirectory(t)

	for _, timeout := range []time.Duration{0, 20 * time.Millisecond} {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- d.reaperLoop(ctx, timeout) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(recvTimeout):
			t.Fatalf("reaper loop with timeout %s did not stop", timeout)
		}
	}
}
