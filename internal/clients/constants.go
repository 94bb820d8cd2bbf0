package clients

import "time"

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
	USER_AGENT      = "sentiscope-client/1.0 (+https://github.com/spacesedan/sentiscope)"

	// larger than any classifier label set, so every label is scored
	CLASSIFICATION_TOP_K = 100
)
