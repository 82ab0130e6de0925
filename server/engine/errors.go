package engine

import "errors"

var (
	ErrNoActiveHand     = errors.New("no active hand")
	ErrUnknownSeat      = errors.New("unknown seat")
	ErrNotEnoughPlayers = errors.New("need at least two players with chips")
	ErrHandInProgress   = errors.New("hand already in progress")

	ErrCannotAct          = errors.New("player cannot act")
	ErrOutOfTurn          = errors.New("not this player's turn")
	ErrIllegalAction      = errors.New("illegal action")
	ErrInvalidBetAmount   = errors.New("invalid bet amount")
	ErrInvalidRaiseAmount = errors.New("invalid raise amount")
)
