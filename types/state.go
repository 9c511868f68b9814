package types

// State is the replication state: stream id to bookmark key to value
type State struct {
	Bookmarks        map[string]map[string]any `json:"bookmarks"`
	CurrentlySyncing *string                   `json:"currently_syncing"`
}

func NewState() *State {
	return &State{Bookmarks: map[string]map[string]any{}}
}

// GetBookmark returns the stored value or nil
func (s *State) GetBookmark(stream, key string) any {
	if s == nil || s.Bookmarks == nil {
		return nil
	}
	return s.Bookmarks[stream][key]
}

// SetBookmark stores value unconditionally
func (s *State) SetBookmark(stream, key string, value any) {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]map[string]any{}
	}
	if s.Bookmarks[stream] == nil {
		s.Bookmarks[stream] = map[string]any{}
	}
	s.Bookmarks[stream][key] = value
}

func (s *State) SetCurrentlySyncing(stream string) {
	if stream == "" {
		s.CurrentlySyncing = nil
		return
	}
	s.CurrentlySyncing = &stream
}

func (s *State) IsZero() bool {
	return s == nil || (len(s.Bookmarks) == 0 && s.CurrentlySyncing == nil)
}
