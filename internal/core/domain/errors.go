package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownRound is returned for round or sub-round ids missing from the catalog.
	ErrUnknownRound = errors.New("unknown round")
	// ErrNoGenerator is returned when play is requested without a text generator.
	ErrNoGenerator = errors.New("no generator configured")
)

var (
	// ErrRoundNotActive is returned when playing or completing a round other than the session's current one.
	ErrRoundNotActive = errors.New("round is not active for this session")
	// ErrAttemptsExhausted is returned when a sub-round has no attempts left.
	ErrAttemptsExhausted = errors.New("no attempts left for this sub-round")
	// ErrEmptyPrompt is returned for blank player instructions.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrEmptyPlayerName is returned when a session is started without a player name.
	ErrEmptyPlayerName = errors.New("player name is required")
)
