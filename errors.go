/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("invalid input")
	ErrAuthorization = errors.New("only the host may do that")
	ErrNotFound      = errors.New("not found")
	ErrOutOfOrder    = errors.New("answer has not been revealed yet")
	ErrWrongPhase    = errors.New("not allowed in the current phase")
	ErrRateLimited   = errors.New("too many requests")
)

// errorKind maps an intent error onto the short tag sent to clients.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}

func wrongPhase(intent IntentType, phase Phase) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongPhase, intent, phase)
}

func newPage(title, body, href string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"%s\">%s</a></body></html>", href, body))

	return htmlBody.String()
}
