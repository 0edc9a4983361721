package poller

import "time"

// Candidate is one commit lifted out of an in-window push event, pending the
// fetch-and-notify decision. Candidates live only for the duration of a run;
// the store persists nothing but sha-keyed flags.
type Candidate struct {
	User           string
	SHA            string
	DetailURL      string
	Repo           string
	EventTime      time.Time
	AuthorFallback string
}

// RunResult summarizes one polling run.
type RunResult struct {
	Sent        int
	Candidates  int
	UsersFailed int
}
