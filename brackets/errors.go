package brackets

import "errors"

var (
	ErrDrawInElimination = errors.New("having a draw is forbidden in an elimination stage")
	ErrTwoWinners        = errors.New("there are two winners")
	ErrTwoLosers         = errors.New("there are two losers")
	ErrTwoForfeits       = errors.New("there are two forfeits")
	ErrGamesTie          = errors.New("match games result in a tie for the parent match")
	ErrInvalidOpponent   = errors.New("the given opponent id does not belong to this match")
)
