package abstract

import (
	"fmt"

	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils/typeutils"
)

// BookmarkPolicy tells the manager how a stream reads and writes its bookmark.
// Tracked children keep a copy of the parent's progress under CompositeKey; the
// parent reads the minimum of its own bookmark and those copies so that no
// child misses data, and writes its new value to all of them.
type BookmarkPolicy struct {
	Key          string
	CompositeKey string
	Tracked      []string
}

// CompositeKey is the key under which a child tracks its parent's progress
func CompositeKey(parent, replicationKey string) string {
	return fmt.Sprintf("%s_%s", parent, replicationKey)
}

// Bookmarks manages per stream bookmarks inside the replication state.
// Values only ever move forward.
type Bookmarks struct {
	state     *types.State
	startDate string
}

func NewBookmarks(state *types.State, startDate string) *Bookmarks {
	if state == nil {
		state = types.NewState()
	}
	return &Bookmarks{state: state, startDate: startDate}
}

func (b *Bookmarks) State() *types.State {
	return b.state
}

// Get returns the stored bookmark or the configured start date
func (b *Bookmarks) Get(stream, key string) any {
	if value := b.state.GetBookmark(stream, key); value != nil {
		return value
	}
	if b.startDate == "" {
		return nil
	}
	return b.startDate
}

// Write stores max(current, value) and returns the stored value
func (b *Bookmarks) Write(stream, key string, value any) any {
	current := b.state.GetBookmark(stream, key)
	if value == nil || (current != nil && typeutils.CompareCursor(current, value) >= 0) {
		return current
	}

	b.state.SetBookmark(stream, key, value)
	return value
}

// Floor is the effective read bookmark of a stream: the minimum of its own
// bookmark when selected and the composite bookmark of every tracked child
func (b *Bookmarks) Floor(stream string, selected bool, policy BookmarkPolicy) any {
	var floor any
	if selected {
		floor = b.Get(stream, policy.Key)
	}
	for _, child := range policy.Tracked {
		floor = typeutils.MinCursor(floor, b.Get(child, policy.CompositeKey))
	}

	if floor == nil && b.startDate != "" {
		return b.startDate
	}
	return floor
}

// Commit records the progress of a finished invocation on the stream and on every tracked child
func (b *Bookmarks) Commit(stream string, selected bool, policy BookmarkPolicy, value any) {
	if value == nil {
		return
	}
	if selected {
		b.Write(stream, policy.Key, value)
	}
	for _, child := range policy.Tracked {
		b.Write(child, policy.CompositeKey, value)
	}
}
