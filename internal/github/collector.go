package github

import (
	"context"

	"pushrelay/internal/constants"
)

// EventLister is the slice of Client the collector needs.
type EventLister interface {
	ListUserEvents(ctx context.Context, user string, perPage, page int) ([]Event, error)
}

// Collector walks a user's activity feed page by page until it catches up
// with a previously seen event, hits maxResults, or runs out of feed.
type Collector struct {
	client EventLister
}

func NewCollector(client EventLister) *Collector {
	return &Collector{client: client}
}

// Collect returns up to maxResults events newer than cursor, newest first.
// The cursor event itself is excluded: it was already handled by the run that
// recorded it. An empty cursor means no prior run, so everything up to
// maxResults is returned.
func (c *Collector) Collect(ctx context.Context, user string, maxResults int, cursor string) ([]Event, error) {
	perPage := maxResults
	if perPage > constants.MaxEventsPerPage {
		perPage = constants.MaxEventsPerPage
	}

	collected := make([]Event, 0, maxResults)

	for page := 1; len(collected) < maxResults; page++ {
		batch, err := c.client.ListUserEvents(ctx, user, perPage, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, ev := range batch {
			if cursor != "" && ev.ID == cursor {
				return collected, nil
			}
			collected = append(collected, ev)
			if len(collected) >= maxResults {
				break
			}
		}
	}

	return collected, nil
}
