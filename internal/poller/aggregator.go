package poller

import (
	"sort"
	"time"

	"pushrelay/internal/github"
)

// CandidatesFromEvents flattens one user's collected events into candidates:
// push events at or after cutoff contribute one candidate per commit ref.
// The polled username stands in for commits that carry no author name.
func CandidatesFromEvents(user string, events []github.Event, cutoff time.Time) []Candidate {
	var candidates []Candidate

	for _, ev := range events {
		if ev.Type != github.EventTypePush {
			continue
		}
		if ev.CreatedAt.Before(cutoff) {
			continue
		}

		for _, commit := range ev.Payload.Commits {
			author := commit.Author.Name
			if author == "" {
				author = user
			}
			candidates = append(candidates, Candidate{
				User:           user,
				SHA:            commit.SHA,
				DetailURL:      commit.URL,
				Repo:           ev.Repo.Name,
				EventTime:      ev.CreatedAt,
				AuthorFallback: author,
			})
		}
	}

	return candidates
}

// SortByEventTime orders candidates oldest first so notifications read as one
// chronological timeline across users, not per-user batches. The sort is
// stable: ties keep encounter order.
func SortByEventTime(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EventTime.Before(candidates[j].EventTime)
	})
}
