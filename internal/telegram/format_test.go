package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pushrelay/internal/github"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "underscores and dots",
			input: "fix_bug in main.go",
			want:  "fix\\_bug in main\\.go",
		},
		{
			name:  "all reserved characters",
			input: "_*[]()~`>#+-=|{}.!",
			want:  "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!",
		},
		{
			name:  "plain text untouched",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeMarkdown(tt.input))
		})
	}
}

func TestFormatCommitMessage(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	msg := FormatCommitMessage(CommitMessage{
		Repo:      "alice/repo",
		SHA:       "abc1234def5678",
		Author:    "Alice",
		Message:   "fix: handle nil pointer",
		Time:      now.Add(-2 * time.Hour),
		Additions: 12,
		Deletions: 3,
		Files: []github.CommitFile{
			{Filename: "main.go", Status: "modified", Additions: 12, Deletions: 3},
		},
	}, now)

	assert.Contains(t, msg, "\\#Alice")
	assert.Contains(t, msg, "alice/repo")
	assert.Contains(t, msg, "[`abc1234`]", "sha is shortened to seven characters in the body")
	assert.Contains(t, msg, "fix: handle nil pointer")
	assert.Contains(t, msg, "2h ago")
	assert.Contains(t, msg, "\\+12")
	assert.Contains(t, msg, "\\-3")
	assert.Contains(t, msg, "main\\.go")
	assert.Contains(t, msg, "https://github.com/alice/repo/commit/abc1234def5678")
	assert.Contains(t, msg, "SHA:abc1234def5678")
}

func TestFormatCommitMessageTruncatesFileList(t *testing.T) {
	files := make([]github.CommitFile, 15)
	for i := range files {
		files[i] = github.CommitFile{Filename: "file.go", Status: "modified"}
	}

	now := time.Now()
	msg := FormatCommitMessage(CommitMessage{
		Repo:   "alice/repo",
		SHA:    "abc1234",
		Author: "Alice",
		Time:   now,
		Files:  files,
	}, now)

	assert.Equal(t, 10, strings.Count(msg, "file\\.go"))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		want string
	}{
		{"seconds", now.Add(-30 * time.Second), "30s ago"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days and hours", now.Add(-50 * time.Hour), "2d 2h ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeAgo(tt.from, now))
		})
	}
}
