package poller

import (
	"context"
	"fmt"

	"pushrelay/internal/github"
	"pushrelay/internal/logger"
	"pushrelay/internal/store"
	"pushrelay/internal/telegram"
	"pushrelay/pkg/metrics"
)

// CommitFetcher resolves a candidate's detail URL to the full commit.
type CommitFetcher interface {
	GetCommit(ctx context.Context, commitURL string) (*github.FullCommit, error)
}

// Dispatcher delivers one formatted commit notification.
type Dispatcher interface {
	SendCommit(ctx context.Context, msg telegram.CommitMessage) error
}

// Pipeline consumes a time-ordered candidate sequence and delivers each
// unseen commit exactly once. Two flags per sha make repeated runs safe:
// "fetched" means the detail fetch was attempted and will never be retried,
// "sent" means a notification actually went out. A sha is marked fetched
// immediately after its fetch attempt, success or not, so a commit that is
// gone upstream costs one request ever instead of one per run.
type Pipeline struct {
	store      store.Repository
	fetcher    CommitFetcher
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewPipeline(repo store.Repository, fetcher CommitFetcher, dispatcher Dispatcher, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Pipeline{
		store:      repo,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Deliver processes candidates in the given order, dispatching sequentially
// so the chronological ordering survives end to end. It returns the number of
// notifications dispatched; a non-nil error means the batch was abandoned
// part way (the store state stays consistent, the next run skips whatever
// completed).
func (p *Pipeline) Deliver(ctx context.Context, candidates []Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	shas := make([]string, len(candidates))
	for i, c := range candidates {
		shas[i] = c.SHA
	}

	// One round trip per flag set, regardless of batch size.
	fetchedMask, err := p.store.HasFetched(ctx, shas)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve fetched flags: %w", err)
	}
	sentMask, err := p.store.HasSent(ctx, shas)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve sent flags: %w", err)
	}

	sent := 0
	var dispatched []string

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		// Already attempted in a prior run: either sent then, or dropped
		// permanently. Either way there is nothing left to do for this sha.
		if fetchedMask[candidate.SHA] {
			continue
		}
		// A multi-branch push can repeat a sha within one batch.
		fetchedMask[candidate.SHA] = true

		full, fetchErr := p.fetcher.GetCommit(ctx, candidate.DetailURL)

		// Marked regardless of outcome: one fetch attempt per sha, ever. A
		// transient failure is dropped along with the permanent ones; the
		// bounded cost is the accepted trade.
		if err := p.store.MarkFetched(ctx, []string{candidate.SHA}); err != nil {
			p.logger.WarnwCtx(ctx, "Failed to mark commit fetched",
				"sha", candidate.SHA,
				"error", err,
			)
		}

		if fetchErr != nil {
			metrics.CommitFetchesTotal.WithLabelValues("error").Inc()
			p.logger.ErrorwCtx(ctx, "Commit fetch failed, notification dropped",
				"sha", candidate.SHA,
				"repo", candidate.Repo,
				"error", fetchErr,
			)
			continue
		}
		metrics.CommitFetchesTotal.WithLabelValues("ok").Inc()

		// A previous run may have fetched and sent this sha but crashed
		// before recording the fetched flag.
		if sentMask[candidate.SHA] {
			continue
		}

		msg := buildCommitMessage(candidate, full)
		if err := p.dispatcher.SendCommit(ctx, msg); err != nil {
			metrics.NotificationsTotal.WithLabelValues("error").Inc()
			p.logger.ErrorwCtx(ctx, "Notification dispatch failed",
				"sha", candidate.SHA,
				"repo", candidate.Repo,
				"error", err,
			)
			// Not marked sent; but the fetched flag above still suppresses
			// any future attempt. Dropped, not retried.
			continue
		}

		metrics.NotificationsTotal.WithLabelValues("ok").Inc()
		dispatched = append(dispatched, candidate.SHA)
		sent++
	}

	if len(dispatched) > 0 {
		if err := p.store.MarkSent(ctx, dispatched); err != nil {
			p.logger.ErrorwCtx(ctx, "Failed to mark commits sent",
				"count", len(dispatched),
				"error", err,
			)
		}
	}

	return sent, nil
}

func buildCommitMessage(candidate Candidate, full *github.FullCommit) telegram.CommitMessage {
	author := full.Commit.Author.Name
	if author == "" {
		author = candidate.AuthorFallback
	}

	return telegram.CommitMessage{
		Repo:      candidate.Repo,
		SHA:       full.SHA,
		Author:    author,
		Message:   full.Commit.Message,
		Time:      candidate.EventTime,
		Additions: full.Stats.Additions,
		Deletions: full.Stats.Deletions,
		Files:     full.Files,
	}
}
