package model

import "time"

// Shared defaults used by both the daemon and the TUI binaries.
const (
	DefaultPairCount         = 10
	DefaultMismatchHideDelay = 500 * time.Millisecond
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultSelection         = "random"
	DefaultCatalogSource     = "embedded"
	DefaultCatalogTimeout    = 10 * time.Second
)
