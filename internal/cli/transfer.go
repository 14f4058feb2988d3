package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/transfer"
)

const pollInterval = 100 * time.Millisecond

// CollectionResolver finds collections by id or by name.
type CollectionResolver interface {
	GetCollectionByID(id uuid.UUID) (*entities.Collection, error)
	FindCollectionByName(name string) (*entities.Collection, error)
}

// TransferCommand runs a transfer in-process and renders its progress.
type TransferCommand struct {
	Source     string // collection id or name
	Target     string // collection id or name
	CompanyIDs []int
	Out        io.Writer
}

// Run resolves both collections, starts the transfer and blocks until it
// finishes, redrawing a progress bar from the tracker while it runs.
func (cmd *TransferCommand) Run(ctx context.Context, engine *transfer.Engine, resolver CollectionResolver) (transfer.Result, error) {
	source, err := ResolveCollection(resolver, cmd.Source)
	if err != nil {
		return transfer.Result{}, err
	}
	target, err := ResolveCollection(resolver, cmd.Target)
	if err != nil {
		return transfer.Result{}, err
	}

	handle, err := engine.Start(ctx, transfer.Request{
		SourceCollectionID: source.ID,
		TargetCollectionID: target.ID,
		CompanyIDs:         cmd.CompanyIDs,
	})
	if err != nil {
		return transfer.Result{}, err
	}

	out := cmd.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "Transferring %d companies from %q to %q (transfer %s)\n",
		len(cmd.CompanyIDs), source.CollectionName, target.CollectionName, handle.Job.TransferID)

	bar := progressbar.NewOptions(
		handle.Progress.Total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Transferring"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(pollInterval),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("companies"),
		progressbar.OptionSetRenderBlankState(true),
	)

	type outcome struct {
		result transfer.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := engine.Process(ctx, handle.Job)
		done <- outcome{result, err}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case o := <-done:
			bar.Set(o.result.Completed)
			bar.Finish()
			fmt.Fprintln(out)
			return o.result, o.err
		case <-ticker.C:
			renderProgress(bar, engine.Tracker(), handle.Job.TransferID)
		}
	}
}

func renderProgress(bar *progressbar.ProgressBar, tracker *progress.Tracker, id uuid.UUID) {
	entry, err := tracker.Get(id)
	if err != nil {
		return
	}
	bar.Set(entry.Completed)
}

// ResolveCollection accepts a collection id or an exact collection name.
func ResolveCollection(resolver CollectionResolver, ref string) (*entities.Collection, error) {
	if id, err := uuid.Parse(ref); err == nil {
		collection, err := resolver.GetCollectionByID(id)
		if errors.Is(err, collections.ErrNotFound) {
			return nil, fmt.Errorf("collection %s: %w", ref, transfer.ErrNotFound)
		}
		return collection, err
	}

	collection, err := resolver.FindCollectionByName(ref)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection %q: %w", ref, transfer.ErrNotFound)
	}
	return collection, nil
}

// FormatResult renders the final counters of a transfer.
func FormatResult(r transfer.Result) string {
	return fmt.Sprintf("status=%s completed=%d/%d skipped=%d ignored=%d failed=%d",
		r.Status, r.Completed, r.Total, r.Skipped, r.Ignored, r.Failed)
}
