package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/pkg/graphql"
	"github.com/datazip-inc/olake-monday/types"
)

// activity log timestamps are 17 digit counts of 100ns ticks
const activityTicksPerMilli = 10000

type definition struct {
	abstract.StreamDefinition
	// build wraps the definition into its stream variant
	build func(base stream) abstract.Stream
	// modify runs after the generic normalization
	modify modifier
}

func root(field string) func(stream) abstract.Stream {
	return func(base stream) abstract.Stream { return &rootStream{stream: base, field: field} }
}

func onBoard(field string) func(stream) abstract.Stream {
	return func(base stream) abstract.Stream { return &boardStream{stream: base, field: field} }
}

func paged(size int) abstract.Pagination {
	return abstract.Pagination{Style: abstract.PageCounter, PageSize: size}
}

func definitions() []definition {
	return []definition{
		{
			StreamDefinition: abstract.StreamDefinition{ID: "account", ReplicationMethod: types.FullTable, KeyProperties: []string{"id"}},
			build:            root("account"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{ID: "audit_event_catalogue", ReplicationMethod: types.FullTable, KeyProperties: []string{"name"}},
			build:            root("audit_event_catalogue"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "boards",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"id"},
				ReplicationKey:    "updated_at",
				ExtraFields:       graphql.ExtraFields{"creator": {"id"}, "top_group": {"id"}},
				ExcludedFields:    []string{"creator_id", "top_group_id"},
				ObjectToID:        map[string]string{"creator": "creator", "top_group": "top_group"},
				Children:          []string{"board_activity_logs", "board_columns", "board_groups", "board_items", "board_views"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("boards"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "board_activity_logs",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"id", "board_id"},
				ReplicationKey:    "created_at",
				ExcludedFields:    []string{"board_id"},
				Parent:            "boards",
				Pagination:        paged(constants.ActivityLogsPageSize),
			},
			build:  onBoard("activity_logs"),
			modify: activityLogTimestamp,
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "board_columns",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id", "board_id"},
				ExcludedFields:    []string{"board_id"},
				Parent:            "boards",
			},
			build: onBoard("columns"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "board_groups",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id", "board_id"},
				ExcludedFields:    []string{"board_id"},
				Parent:            "boards",
			},
			build: onBoard("groups"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "board_items",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"id", "board_id"},
				ReplicationKey:    "updated_at",
				ExtraFields:       graphql.ExtraFields{"creator": {"id"}, "group": {"id"}, "parent_item": {"id"}},
				ExcludedFields:    []string{"creator_id", "board_id", "group_id", "parent_item_id"},
				ObjectToID:        map[string]string{"creator": "creator", "group": "group", "parent_item": "parent_item"},
				Parent:            "boards",
				Children:          []string{"column_values"},
				Pagination:        abstract.Pagination{Style: abstract.CursorPagination, PageSize: constants.BoardItemsPageSize},
			},
			build: func(base stream) abstract.Stream { return &itemsStream{stream: base} },
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "board_views",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id", "board_id"},
				ExcludedFields:    []string{"board_id"},
				Parent:            "boards",
			},
			build: onBoard("views"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "column_values",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id", "item_id", "board_id"},
				ExcludedFields:    []string{"item_id", "board_id"},
				Parent:            "board_items",
			},
			build: func(base stream) abstract.Stream { return &columnValuesStream{stream: base} },
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "docs",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id"},
				ExtraFields:       graphql.ExtraFields{"created_by": {"id"}},
				ExcludedFields:    []string{"creator_id"},
				ObjectToID:        map[string]string{"created_by": "creator"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("docs"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "folders",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("folders"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "platform_api",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"last_updated"},
				ReplicationKey:    "last_updated",
				ExtraFields:       graphql.ExtraFields{"daily_analytics.last_updated": {}},
				ExcludedFields:    []string{"last_updated"},
			},
			build:  root("platform_api"),
			modify: platformLastUpdated,
		},
		{
			StreamDefinition: abstract.StreamDefinition{ID: "tags", ReplicationMethod: types.FullTable, KeyProperties: []string{"id"}},
			build:            root("tags"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{ID: "teams", ReplicationMethod: types.FullTable, KeyProperties: []string{"id"}},
			build:            root("teams"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "updates",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"id"},
				ReplicationKey:    "updated_at",
				Children:          []string{"assets", "reply"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("updates"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "assets",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id", "update_id"},
				ObjectToID:        map[string]string{"uploaded_by": "uploaded_by"},
				Parent:            "updates",
			},
			build: func(base stream) abstract.Stream { return &embeddedStream{stream: base, extract: updateAssets} },
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "reply",
				ReplicationMethod: types.Incremental,
				KeyProperties:     []string{"id", "update_id"},
				ReplicationKey:    "updated_at",
				ObjectToID:        map[string]string{"creator": "creator"},
				Parent:            "updates",
			},
			build: func(base stream) abstract.Stream { return &embeddedStream{stream: base, extract: updateReplies} },
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "users",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id"},
				ExtraFields:       graphql.ExtraFields{"account": {"id"}},
				ExcludedFields:    []string{"account_id"},
				ObjectToID:        map[string]string{"account": "account"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("users"),
		},
		{
			StreamDefinition: abstract.StreamDefinition{
				ID:                "workspaces",
				ReplicationMethod: types.FullTable,
				KeyProperties:     []string{"id"},
				Pagination:        paged(constants.DefaultPageSize),
			},
			build: root("workspaces"),
		},
	}
}

// newStreams builds every stream variant with its schema and the configured page sizes
func newStreams(config *Config) ([]abstract.Stream, error) {
	defs := definitions()
	streams := make([]abstract.Stream, 0, len(defs))
	for _, def := range defs {
		schema, err := loadSchema(def.ID)
		if err != nil {
			return nil, err
		}

		streamDef := def.StreamDefinition
		streamDef.Schema = schema
		if streamDef.Pagination.Style != "" && streamDef.Pagination.Style != abstract.NoPagination {
			streamDef.Pagination.PageSize = config.PageSizeFor(streamDef.ID, streamDef.Pagination.PageSize)
		}

		streams = append(streams, def.build(stream{def: &streamDef, endpoint: config.BaseURL, modify: def.modify}))
	}
	return streams, nil
}

// activityLogTimestamp converts the 17 digit created_at of an activity log to a millisecond epoch
func activityLogTimestamp(streamID string, record types.Record) error {
	value, found := record["created_at"]
	if !found || value == nil {
		return &abstract.MissingFieldError{Stream: streamID, Field: "created_at"}
	}

	var ticks int64
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("stream[%s]: invalid created_at %q", streamID, v)
		}
		ticks = parsed
	case float64:
		ticks = int64(v)
	case int64:
		ticks = v
	case int:
		ticks = int64(v)
	default:
		return fmt.Errorf("stream[%s]: unsupported created_at type %T", streamID, value)
	}

	record["created_at"] = ticks / activityTicksPerMilli
	return nil
}

// platformLastUpdated lifts daily_analytics.last_updated to the top level
func platformLastUpdated(streamID string, record types.Record) error {
	analytics, ok := record["daily_analytics"].(map[string]any)
	if !ok {
		return &abstract.MissingFieldError{Stream: streamID, Field: "daily_analytics"}
	}
	lastUpdated, found := analytics["last_updated"]
	if !found {
		return &abstract.MissingFieldError{Stream: streamID, Field: "daily_analytics.last_updated"}
	}
	record["last_updated"] = lastUpdated
	return nil
}
