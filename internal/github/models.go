package github

import "time"

const EventTypePush = "PushEvent"

// Event is one entry of a user's public activity feed. IDs are opaque but
// ordered by recency, which is what makes them usable as cursors.
type Event struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	Repo      EventRepo    `json:"repo"`
	Payload   EventPayload `json:"payload"`
}

type EventRepo struct {
	Name string `json:"name"`
}

type EventPayload struct {
	Commits []EventCommit `json:"commits"`
}

// EventCommit is the lightweight commit ref embedded in a push event.
type EventCommit struct {
	SHA    string       `json:"sha"`
	URL    string       `json:"url"`
	Author CommitAuthor `json:"author"`
}

type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FullCommit is the commit detail document behind an EventCommit's URL.
type FullCommit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
	Stats  CommitStats  `json:"stats"`
	Files  []CommitFile `json:"files"`
}

type CommitDetail struct {
	Author  CommitAuthor `json:"author"`
	Message string       `json:"message"`
}

type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}
