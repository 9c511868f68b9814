package abstract

import (
	"context"
	"fmt"
	"time"

	"github.com/datazip-inc/olake-monday/pkg/metrics"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils/logger"
	"github.com/datazip-inc/olake-monday/utils/typeutils"
)

// Syncer walks a stream forest depth first: for every stream it pages through
// the API, filters records against the bookmark floor, emits the selected ones
// and recurses into the children with each record as parent context
type Syncer struct {
	requester Requester
	sink      Sink
	catalog   Catalog
	bookmarks *Bookmarks
	// floors are read once per stream per run and never move afterwards
	floors map[string]any
	counts map[string]int
}

func NewSyncer(requester Requester, sink Sink, catalog Catalog, bookmarks *Bookmarks) *Syncer {
	return &Syncer{
		requester: requester,
		sink:      sink,
		catalog:   catalog,
		bookmarks: bookmarks,
		floors:    map[string]any{},
		counts:    map[string]int{},
	}
}

// Counts returns the emitted records per stream
func (s *Syncer) Counts() map[string]int {
	return s.counts
}

// Run writes the schema of every selected stream, then syncs the roots one
// after the other starting from the one left in currently_syncing
func (s *Syncer) Run(ctx context.Context, roots []*Node) error {
	var schemaErr error
	Walk(roots, func(node *Node) {
		if schemaErr == nil && s.catalog.IsSelected(node.ID()) {
			schemaErr = s.sink.WriteSchema(ctx, node.Stream.Definition())
		}
	})
	if schemaErr != nil {
		return fmt.Errorf("failed to write schema: %w", schemaErr)
	}

	state := s.bookmarks.State()
	for _, root := range resumeOrder(roots, state.CurrentlySyncing) {
		state.SetCurrentlySyncing(root.ID())
		if err := s.sink.WriteState(ctx, state); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}

		logger.Infof("Syncing stream %s", root.ID())
		startTime := time.Now()
		count, err := s.Sync(ctx, root, nil)
		if err != nil {
			return fmt.Errorf("failed to sync stream[%s]: %w", root.ID(), err)
		}
		logger.Infof("Finished syncing stream %s: %d records in %s", root.ID(), count, time.Since(startTime).String())

		if err := s.sink.WriteState(ctx, state); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
	}

	state.SetCurrentlySyncing("")
	return s.sink.WriteState(ctx, state)
}

// Sync runs one invocation of a stream for the given parent and returns the
// number of records it emitted
func (s *Syncer) Sync(ctx context.Context, node *Node, parent types.Record) (int, error) {
	def := node.Stream.Definition()
	selected := s.catalog.IsSelected(def.ID)
	floor := s.floor(node, selected)

	var maxCursor any
	emitted := 0

	err := s.fetch(ctx, node.Stream, parent, func(raws []map[string]any) error {
		for _, raw := range raws {
			record, err := node.Stream.NormalizeRecord(raw, parent)
			if err != nil {
				return err
			}

			if def.IsIncremental() {
				value, found := record[def.ReplicationKey]
				if !found || value == nil {
					return &MissingFieldError{Stream: def.ID, Field: def.ReplicationKey}
				}
				if typeutils.CompareCursor(value, floor) < 0 {
					continue
				}
				maxCursor = typeutils.MaxCursor(maxCursor, value)
			}

			if s.catalog.IsSelected(def.ID) {
				if err := s.sink.WriteRecord(ctx, def.ID, s.catalog.Transform(def.ID, record)); err != nil {
					return fmt.Errorf("failed to write record: %w", err)
				}
				emitted++
				metrics.RecordsEmitted.WithLabelValues(def.ID).Inc()
			}

			for _, child := range node.Children {
				if _, err := s.Sync(ctx, child, record); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return emitted, err
	}

	if def.IsIncremental() {
		s.bookmarks.Commit(def.ID, selected, node.Policy, maxCursor)
	}
	s.counts[def.ID] += emitted

	return emitted, nil
}

func (s *Syncer) floor(node *Node, selected bool) any {
	def := node.Stream.Definition()
	if !def.IsIncremental() {
		return nil
	}

	if floor, found := s.floors[def.ID]; found {
		return floor
	}
	floor := s.bookmarks.Floor(def.ID, selected, node.Policy)
	s.floors[def.ID] = floor
	logger.Debugf("stream[%s] bookmark floor: %v", def.ID, floor)
	return floor
}

// fetch hands every page of raw records to process; embedded streams get a
// single page cut out of their parent
func (s *Syncer) fetch(ctx context.Context, stream Stream, parent types.Record, process func([]map[string]any) error) error {
	if embedded, ok := stream.(Embedded); ok {
		raws, err := embedded.ExtractEmbedded(parent)
		if err != nil {
			return err
		}
		return process(raws)
	}

	def := stream.Definition()
	page := NewPageState()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		request, err := stream.BuildRequest(parent, page)
		if err != nil {
			return fmt.Errorf("failed to build request for page %d: %w", page.Page, err)
		}
		if request.Stream == "" {
			request.Stream = def.ID
		}

		response, err := s.requester.Request(ctx, request)
		if err != nil {
			return err
		}

		raws, err := stream.ExtractPage(response, page)
		if err != nil {
			return err
		}

		if err := process(raws); err != nil {
			return err
		}

		if !page.Advance(def.Pagination, len(raws)) {
			return nil
		}
	}
}

// resumeOrder rotates roots so the interrupted stream is synced first
func resumeOrder(roots []*Node, current *string) []*Node {
	if current == nil {
		return roots
	}
	for idx, root := range roots {
		if root.ID() == *current {
			logger.Infof("Resuming sync from stream %s", *current)
			return append(append([]*Node{}, roots[idx:]...), roots[:idx]...)
		}
	}
	return roots
}
