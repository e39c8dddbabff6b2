package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
	"github.com/secmon-lab/checkerboard/pkg/service/slack"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

// DefaultLookupConcurrency keeps profile lookups strictly sequential
const DefaultLookupConcurrency = 1

// MappingRefresher reconciles the mapping store with the Slack directory.
// It must not run concurrently with itself.
type MappingRefresher struct {
	directory   slack.Directory
	store       interfaces.MappingStore
	concurrency int
}

// RefresherOption configures MappingRefresher
type RefresherOption func(*MappingRefresher)

// WithLookupConcurrency bounds how many profile lookups run at once.
// Values below 1 are ignored.
func WithLookupConcurrency(n int) RefresherOption {
	return func(r *MappingRefresher) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewMappingRefresher creates a reconciler over directory and store
func NewMappingRefresher(directory slack.Directory, store interfaces.MappingStore, opts ...RefresherOption) *MappingRefresher {
	r := &MappingRefresher{
		directory:   directory,
		store:       store,
		concurrency: DefaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh runs one reconciliation cycle and reports whether the exposed
// mapping changed. On error the cycle stops, but store writes already made
// are kept.
func (r *MappingRefresher) Refresh(ctx context.Context) (bool, error) {
	startTime := time.Now()
	refreshCycles.Inc()
	defer refreshDuration.UpdateDuration(startTime)

	changed, err := r.refresh(ctx)
	if err != nil {
		refreshFailures.Inc()
		return changed, err
	}
	if changed {
		refreshChangedCycles.Inc()
	}

	logging.From(ctx).Info("Slack mapping refresh completed",
		"changed", changed,
		"duration", time.Since(startTime).String())
	return changed, nil
}

func (r *MappingRefresher) refresh(ctx context.Context) (bool, error) {
	logger := logging.From(ctx)

	if _, err := r.directory.ResolveProfileFieldID(ctx); err != nil {
		return false, goerr.Wrap(err, "failed to resolve Slack profile field")
	}

	liveIDs, err := r.directory.ListUserIDs(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to list Slack users")
	}

	current, err := r.store.Entries(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to read mapping store")
	}

	var changed atomic.Bool

	live := make(map[string]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}
	for id := range current {
		if _, ok := live[id]; ok {
			continue
		}
		if err := r.store.Delete(ctx, id); err != nil {
			return changed.Load(), goerr.Wrap(err, "failed to purge removed Slack user",
				goerr.V(slack.SlackIDKey, id))
		}
		refreshPurged.Inc()
		changed.Store(true)
		logger.Debug("Purged removed Slack user", "slack_id", id)
	}

	order := lookupOrder(liveIDs, current)
	logger.Info("Refreshing Slack mappings",
		"users", len(order),
		"stored", len(current))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for _, id := range order {
		if egCtx.Err() != nil {
			break
		}
		prev, seen := current[id]

		eg.Go(func() error {
			// Go may have blocked on the limit while an earlier lookup failed
			if err := egCtx.Err(); err != nil {
				return err
			}
			updated, err := r.reconcile(egCtx, id, prev, seen)
			if err != nil {
				return err
			}
			if updated {
				changed.Store(true)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return changed.Load(), err
	}
	if err := ctx.Err(); err != nil {
		return changed.Load(), goerr.Wrap(err, "refresh cancelled")
	}

	return changed.Load(), nil
}

// reconcile looks up one Slack user and writes the result if it differs from
// the stored state. It reports whether the exposed mapping changed.
func (r *MappingRefresher) reconcile(ctx context.Context, slackID, prev string, seen bool) (bool, error) {
	refreshLookups.Inc()

	github, found, err := r.directory.LookupGitHubUser(ctx, slackID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to look up GitHub username",
			goerr.V(slack.SlackIDKey, slackID))
	}

	switch {
	case found && (!seen || github != prev):
		if err := r.store.Set(ctx, slackID, github); err != nil {
			return false, goerr.Wrap(err, "failed to store mapping",
				goerr.V(slack.SlackIDKey, slackID))
		}
		logging.From(ctx).Debug("Updated mapping",
			"slack_id", slackID,
			"github", github,
			"previous", prev)
		return true, nil

	case !found && seen && prev != "":
		if err := r.store.Set(ctx, slackID, ""); err != nil {
			return false, goerr.Wrap(err, "failed to clear mapping",
				goerr.V(slack.SlackIDKey, slackID))
		}
		logging.From(ctx).Debug("Cleared mapping", "slack_id", slackID, "previous", prev)
		return true, nil

	case !found && !seen:
		// mark as checked so the next cycle ranks it behind never-seen users
		if err := r.store.Set(ctx, slackID, ""); err != nil {
			return false, goerr.Wrap(err, "failed to mark Slack user as checked",
				goerr.V(slack.SlackIDKey, slackID))
		}
		return false, nil
	}

	return false, nil
}

// lookupOrder returns liveIDs ordered as never-seen, then checked without a
// mapping, then mapped. Directory order is kept within each group.
func lookupOrder(liveIDs []string, current map[string]string) []string {
	var unseen, unmapped, mapped []string
	dedup := make(map[string]struct{}, len(liveIDs))

	for _, id := range liveIDs {
		if _, dup := dedup[id]; dup {
			continue
		}
		dedup[id] = struct{}{}

		v, ok := current[id]
		switch {
		case !ok:
			unseen = append(unseen, id)
		case v == "":
			unmapped = append(unmapped, id)
		default:
			mapped = append(mapped, id)
		}
	}

	order := make([]string, 0, len(unseen)+len(unmapped)+len(mapped))
	order = append(order, unseen...)
	order = append(order, unmapped...)
	return append(order, mapped...)
}
