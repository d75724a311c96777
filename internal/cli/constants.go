package cli

import "time"

const (
	defaultTokenTTL = time.Hour
	defaultWorkers  = 8
	loadAuthorID    = "load-author"
)
