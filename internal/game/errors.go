package game

import "errors"

var (
	ErrInvalidBet       = errors.New("invalid bet")
	ErrWindowClosed     = errors.New("betting window is closed")
	ErrRoundNotResolved = errors.New("round outcome not resolved yet")
	ErrNoActiveRound    = errors.New("no active round for this game")
	ErrRoundActive      = errors.New("a round is already active for this game")
	ErrBetNotFound      = errors.New("bet not found")
	ErrNotBetOwner      = errors.New("bet belongs to another account")
)
