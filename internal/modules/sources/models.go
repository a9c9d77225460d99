// Package sources resolves each external data source through an ordered chain of
// strategies with a cache fallback, and always reports where the data came from.
package sources

// Source values of FetchStatus.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
	SourceCache     = "cache"
	SourceFailed    = "failed"
)

// Attempt records the outcome of one strategy during a fetch.
type Attempt struct {
	Strategy string `json:"strategy"`
	Success  bool   `json:"success"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FetchStatus is the provenance of one resolved source. Exactly one is produced per fetch.
type FetchStatus struct {
	Success  bool      `json:"success"`
	Source   string    `json:"source"`
	AgeDays  int       `json:"age_days"`
	Message  string    `json:"message"`
	Strategy string    `json:"strategy,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// AuthExpired reports whether any attempt failed because credentials were rejected.
func (s FetchStatus) AuthExpired() bool {
	for _, a := range s.Attempts {
		if a.Kind == AuthExpired.String() {
			return true
		}
	}
	return false
}
