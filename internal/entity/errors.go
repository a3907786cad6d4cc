package entity

import "errors"

var (
	// ErrSessionInit means the browser session could not be started; nothing was crawled.
	ErrSessionInit = errors.New("rendering session init failed")
	// ErrStoreUnavailable means the durable store could not be reached or the transaction failed.
	ErrStoreUnavailable = errors.New("listing store unavailable")
)
