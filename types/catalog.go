package types

import "sort"

// Catalog is a dto for the singer style catalog
type Catalog struct {
	Streams []*Stream `json:"streams"`
}

// GetStream looks a stream up by its tap_stream_id
func (c *Catalog) GetStream(id string) (*Stream, bool) {
	if c == nil {
		return nil, false
	}
	for _, stream := range c.Streams {
		if stream.ID() == id {
			return stream, true
		}
	}
	return nil, false
}

// IsSelected has no side effects and may be queried per record
func (c *Catalog) IsSelected(id string) bool {
	stream, found := c.GetStream(id)
	return found && stream.Selected()
}

// SelectedStreams returns the ids of selected streams in alphabetical order
func (c *Catalog) SelectedStreams() []string {
	var selected []string
	for _, stream := range c.Streams {
		if stream.Selected() {
			selected = append(selected, stream.ID())
		}
	}
	sort.Strings(selected)
	return selected
}

// Transform applies the catalog schema and field selection of a stream to a record
func (c *Catalog) Transform(id string, record Record) Record {
	stream, found := c.GetStream(id)
	if !found {
		return record
	}
	return stream.Transform(record)
}
