package ticket

import "errors"

var (
	ErrInvalidTransition     = errors.New("invalid ticket status transition")
	ErrClockSkew             = errors.New("transition time precedes the ticket's last mark")
	ErrSameDepartment        = errors.New("ticket is already in that department")
	ErrSameQueue             = errors.New("ticket is already in that queue")
	ErrPaymentNotRequired    = errors.New("current visit does not require payment")
	ErrPaymentAlreadyCleared = errors.New("payment already cleared")
	ErrPaymentPending        = errors.New("payment must be cleared before the ticket can be called")
	ErrNoVisit               = errors.New("ticket has no department visit")
	ErrNotServing            = errors.New("ticket is not being served")
	ErrRoomBusy              = errors.New("counter is already serving a ticket")
)
