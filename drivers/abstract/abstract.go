package abstract

import (
	"context"
	"fmt"
	"sort"

	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils/logger"
	"golang.org/x/sync/errgroup"
)

const discoverConcurrency = 4

type AbstractDriver struct { //nolint:revive
	driver DriverInterface
}

func NewAbstractDriver(_ context.Context, driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{driver: driver}
}

func (a *AbstractDriver) GetConfigRef() Config {
	return a.driver.GetConfigRef()
}

func (a *AbstractDriver) Spec() any {
	return a.driver.Spec()
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context) error {
	return a.driver.Setup(ctx)
}

func (a *AbstractDriver) Check(ctx context.Context) error {
	if err := a.driver.Setup(ctx); err != nil {
		return err
	}
	return a.driver.Check(ctx)
}

// Discover produces a catalog entry for every stream of the driver
func (a *AbstractDriver) Discover(ctx context.Context) (*types.Catalog, error) {
	streams := a.driver.Streams()
	entries := make([]*types.Stream, len(streams))

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(discoverConcurrency)
	for idx, stream := range streams {
		idx, stream := idx, stream
		group.Go(func() error {
			entry, err := ProduceCatalogEntry(stream.Definition())
			if err != nil {
				return fmt.Errorf("failed to produce schema for stream %s: %s", stream.Definition().ID, err)
			}
			entries[idx] = entry
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID() < entries[j].ID() })
	return &types.Catalog{Streams: entries}, nil
}

// Read syncs the selected streams of catalog, updating state in place
func (a *AbstractDriver) Read(ctx context.Context, catalog *types.Catalog, state *types.State, sink Sink) (map[string]int, error) {
	roots, err := ResolveTree(a.driver.Streams(), catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve streams: %s", err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no valid streams found in catalog")
	}
	logger.Infof("Valid selected streams are %v", catalog.SelectedStreams())

	syncer := NewSyncer(a.driver.Requester(), sink, catalog, NewBookmarks(state, a.driver.StartDate()))
	if err := syncer.Run(ctx, roots); err != nil {
		return syncer.Counts(), err
	}
	return syncer.Counts(), nil
}

// ProduceCatalogEntry describes a stream definition as a catalog entry with singer metadata
func ProduceCatalogEntry(def *StreamDefinition) (*types.Stream, error) {
	if def.Schema == nil || len(def.Schema.Properties) == 0 {
		return nil, fmt.Errorf("stream[%s] has no schema properties", def.ID)
	}

	automatic := map[string]bool{}
	for _, key := range def.KeyProperties {
		automatic[key] = true
	}
	if def.IsIncremental() {
		automatic[def.ReplicationKey] = true
	}
	for key := range automatic {
		if _, found := def.Schema.Properties[key]; !found {
			return nil, fmt.Errorf("stream[%s] key %q not declared in schema", def.ID, key)
		}
	}

	metadata := []types.Metadata{{
		Breadcrumb: []string{},
		Metadata: types.MetadataValues{
			Inclusion:               types.InclusionAvailable,
			ForcedReplicationMethod: def.ReplicationMethod,
			ValidReplicationKeys:    def.BookmarkProperties(),
			TableKeyProperties:      def.KeyProperties,
			ParentTapStreamID:       def.Parent,
		},
	}}
	for _, field := range def.Schema.Keys() {
		inclusion := types.InclusionAvailable
		if automatic[field] {
			inclusion = types.InclusionAutomatic
		}
		metadata = append(metadata, types.Metadata{
			Breadcrumb: []string{"properties", field},
			Metadata:   types.MetadataValues{Inclusion: inclusion},
		})
	}

	return &types.Stream{
		TapStreamID:   def.ID,
		Stream:        def.ID,
		KeyProperties: def.KeyProperties,
		Schema:        def.Schema,
		Metadata:      metadata,
	}, nil
}
