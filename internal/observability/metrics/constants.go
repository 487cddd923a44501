package metrics

// Namespace prefixes every metric name.
const Namespace = "tonebarrier"

// Label values shared by the player and HTTP metrics.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
