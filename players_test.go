/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Hana", want: "Hana"},
		{in: "  Ren \t", want: "Ren"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: strings.Repeat("あ", 40), want: strings.Repeat("あ", maxNameLength)},
	}

	for _, tc := range cases {
		got, err := cleanName(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestPlayers_FirstJoinerIsHost(t *testing.T) {
	p := newPlayers()
	now := time.Now()

	_, err := p.Join("a", "Hana", now)
	require.NoError(t, err)
	members, err := p.Join("b", "Ren", now)
	require.NoError(t, err)

	require.Len(t, members, 2)
	assert.True(t, members[0].Host)
	assert.False(t, members[1].Host)
	assert.Equal(t, "a", p.HostID())
	assert.True(t, p.IsHost("a"))
	assert.False(t, p.IsHost("b"))
	assert.False(t, p.IsHost(""))
}

func TestPlayers_RejoinUpdatesName(t *testing.T) {
	p := newPlayers()
	now := time.Now()

	_, err := p.Join("a", "Hana", now)
	require.NoError(t, err)
	_, err = p.Join("b", "Ren", now)
	require.NoError(t, err)

	members, err := p.Join("a", "Hana-chan", now.Add(time.Minute))
	require.NoError(t, err)

	require.Len(t, members, 2)
	assert.Equal(t, []string{"a", "b"}, p.IDs(), "rejoin keeps the original slot")
	got, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Hana-chan", got.Name)
	assert.Equal(t, now, got.JoinedAt)
}

func TestPlayers_HostSurvivesLeave(t *testing.T) {
	p := newPlayers()
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		_, err := p.Join(id, "player "+id, now)
		require.NoError(t, err)
	}

	members := p.Leave("a")
	assert.Len(t, members, 2)
	assert.Equal(t, []string{"b", "c"}, p.IDs())
	assert.Equal(t, "a", p.HostID(), "host is not reassigned")

	// Unknown ids are ignored.
	assert.Len(t, p.Leave("zzz"), 2)

	_, err := p.Join("a", "Hana", now)
	require.NoError(t, err)
	got, _ := p.Get("a")
	assert.True(t, got.Host, "the host regains the role on return")
	assert.Equal(t, []string{"b", "c", "a"}, p.IDs())
}

func TestPlayers_JoinRequiresID(t *testing.T) {
	p := newPlayers()

	_, err := p.Join("", "Hana", time.Now())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.HostID())
}
