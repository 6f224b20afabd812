/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"
)

type RevealMode string

const (
	RevealSequential   RevealMode = "sequential"
	RevealSimultaneous RevealMode = "simultaneous"
)

func parseRevealMode(s string) (RevealMode, error) {
	switch RevealMode(strings.ToLower(strings.TrimSpace(s))) {
	case RevealSequential:
		return RevealSequential, nil
	case RevealSimultaneous:
		return RevealSimultaneous, nil
	default:
		return "", fmt.Errorf("%w: unknown reveal mode %q", ErrValidation, s)
	}
}

// Reveal discloses a frozen list of answers, either one at a time behind a
// cursor or all at once.
type Reveal struct {
	mode    RevealMode
	answers []Answer
	cursor  int
	closed  bool
}

// newReveal copies answers so later changes to the round cannot leak into
// what is being shown. answers must not be empty.
func newReveal(mode RevealMode, answers []Answer) *Reveal {
	frozen := make([]Answer, len(answers))
	copy(frozen, answers)

	return &Reveal{
		mode:    mode,
		answers: frozen,
	}
}

func (r *Reveal) Mode() RevealMode {
	return r.mode
}

func (r *Reveal) Len() int {
	return len(r.answers)
}

func (r *Reveal) Closed() bool {
	return r.closed
}

// Cursor reports the index of the latest revealed answer. It is only
// meaningful in sequential mode.
func (r *Reveal) Cursor() (int, bool) {
	if r.mode != RevealSequential {
		return 0, false
	}
	return r.cursor, true
}

// Advance shows the next answer. On the last answer it closes the reveal
// instead and reports true.
func (r *Reveal) Advance() (bool, error) {
	if r.mode != RevealSequential {
		return false, fmt.Errorf("%w: answers are already all shown, close the reveal instead", ErrWrongPhase)
	}
	if r.closed {
		return false, fmt.Errorf("%w: reveal is over", ErrWrongPhase)
	}

	if r.cursor >= len(r.answers)-1 {
		r.closed = true
		return true, nil
	}
	r.cursor++

	return false, nil
}

// Close ends a simultaneous reveal.
func (r *Reveal) Close() error {
	if r.mode != RevealSimultaneous {
		return fmt.Errorf("%w: advance through the answers instead", ErrWrongPhase)
	}
	if r.closed {
		return fmt.Errorf("%w: reveal is over", ErrWrongPhase)
	}
	r.closed = true

	return nil
}

// Answer returns the answer at index if it exists and has been shown.
func (r *Reveal) Answer(index int) (Answer, error) {
	if index < 0 || index >= len(r.answers) {
		return Answer{}, fmt.Errorf("%w: answer %d", ErrNotFound, index)
	}
	if r.mode == RevealSequential && index > r.cursor {
		return Answer{}, fmt.Errorf("%w: answer %d", ErrOutOfOrder, index)
	}
	return r.answers[index], nil
}

// Visible returns the answers that have been shown so far, in arrival order.
func (r *Reveal) Visible() []Answer {
	n := len(r.answers)
	if r.mode == RevealSequential {
		n = r.cursor + 1
	}

	visible := make([]Answer, n)
	copy(visible, r.answers[:n])

	return visible
}
