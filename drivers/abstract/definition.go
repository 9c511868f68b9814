package abstract

import (
	"github.com/datazip-inc/olake-monday/pkg/graphql"
	"github.com/datazip-inc/olake-monday/types"
)

type PaginationStyle string

const (
	NoPagination     PaginationStyle = "none"
	PageCounter      PaginationStyle = "page"
	CursorPagination PaginationStyle = "cursor"
)

type Pagination struct {
	Style    PaginationStyle
	PageSize int
}

// StreamDefinition is the static description of a stream
type StreamDefinition struct {
	ID                string
	ReplicationMethod types.ReplicationMethod
	KeyProperties     []string
	ReplicationKey    string
	Schema            *types.Schema
	ExtraFields       graphql.ExtraFields
	ExcludedFields    []string
	// ObjectToID projects record[field].id into <alias>_id
	ObjectToID map[string]string
	Parent     string
	Children   []string
	Pagination Pagination
}

func (d *StreamDefinition) IsIncremental() bool {
	return d.ReplicationMethod == types.Incremental
}

// Query renders the selection set of the stream under rootField
func (d *StreamDefinition) Query(rootField string) string {
	return graphql.BuildQuery(d.Schema, d.ExtraFields, d.ExcludedFields, rootField)
}

// BookmarkProperties returns the replication key as a list, empty for full table streams
func (d *StreamDefinition) BookmarkProperties() []string {
	if !d.IsIncremental() || d.ReplicationKey == "" {
		return nil
	}
	return []string{d.ReplicationKey}
}
