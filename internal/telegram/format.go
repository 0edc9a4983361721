package telegram

import (
	"fmt"
	"strings"
	"time"

	"pushrelay/internal/constants"
	"pushrelay/internal/github"
)

// MarkdownV2 reserves these characters; unescaped occurrences make the API
// reject the whole message.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// CommitMessage is everything the notification text needs about one commit.
type CommitMessage struct {
	Repo      string
	SHA       string
	Author    string
	Message   string
	Time      time.Time
	Additions int
	Deletions int
	Files     []github.CommitFile
}

// FormatCommitMessage renders the MarkdownV2 notification for one commit.
// The trailing SHA comment is invisible in chat but keeps the sha greppable
// in the channel history.
func FormatCommitMessage(c CommitMessage, now time.Time) string {
	author := EscapeMarkdown(c.Author)
	repo := EscapeMarkdown(c.Repo)
	shortSHA := c.SHA
	if len(shortSHA) > 7 {
		shortSHA = shortSHA[:7]
	}
	shortSHA = EscapeMarkdown(shortSHA)
	msgText := EscapeMarkdown(c.Message)

	addText := EscapeMarkdown(fmt.Sprintf("+%d", c.Additions))
	delText := EscapeMarkdown(fmt.Sprintf("-%d", c.Deletions))

	repoLink := "https://github.com/" + c.Repo
	commitLink := repoLink + "/commit/" + c.SHA

	var b strings.Builder
	fmt.Fprintf(&b, "\\#%s\n", author)
	fmt.Fprintf(&b, "📦 *Repo:* [`%s`](%s)\n", repo, repoLink)
	fmt.Fprintf(&b, "📝 *Message:* `%s`\n", msgText)
	fmt.Fprintf(&b, "🆔 *Commit:* [`%s`](%s)\n", shortSHA, commitLink)
	fmt.Fprintf(&b, "🕒 *Time:* %s\n", timeAgo(c.Time, now))
	fmt.Fprintf(&b, "➕ *%s* / ➖ *%s*\n", addText, delText)

	if len(c.Files) > 0 {
		b.WriteString("\n🗂 *Files Changed:*\n")
		files := c.Files
		if len(files) > constants.MaxFilesPerMessage {
			files = files[:constants.MaxFilesPerMessage]
		}
		for _, f := range files {
			name := EscapeMarkdown(f.Filename)
			status := EscapeMarkdown(f.Status)
			changes := EscapeMarkdown(fmt.Sprintf("+%d/-%d", f.Additions, f.Deletions))
			fmt.Fprintf(&b, "• `%s` _%s_ [%s]\n", name, status, changes)
		}
	}

	fmt.Fprintf(&b, "\n🔍 [View Full Diff](%s)", commitLink)
	b.WriteString(EscapeMarkdown(fmt.Sprintf("\n\n<!-- SHA:%s -->", c.SHA)))

	return b.String()
}

func timeAgo(from, now time.Time) string {
	diff := now.Sub(from)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		days := int(diff.Hours()) / 24
		hours := int(diff.Hours()) % 24
		return fmt.Sprintf("%dd %dh ago", days, hours)
	}
}
