package browse

import "errors"

// Policy violations. None of these reach the network.
var (
	ErrUnknownView    = errors.New("unknown sheet or view")
	ErrUnknownTab     = errors.New("unknown tab")
	ErrTabDisabled    = errors.New("tab is disabled until the sheet is cleaned")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrActionBusy     = errors.New("another operation is already running for this sheet")
)
