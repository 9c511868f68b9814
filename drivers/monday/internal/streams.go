package driver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/pkg/graphql"
	"github.com/datazip-inc/olake-monday/types"
)

// modifier adjusts a normalized record in place
type modifier func(stream string, record types.Record) error

// stream carries what every variant shares: the definition and the endpoint to post to
type stream struct {
	def      *abstract.StreamDefinition
	endpoint string
	modify   modifier
}

func (s *stream) Definition() *abstract.StreamDefinition {
	return s.def
}

func (s *stream) post(query string) *abstract.Request {
	return &abstract.Request{
		Method:   http.MethodPost,
		Endpoint: s.endpoint,
		Body:     map[string]string{"query": query},
		Stream:   s.def.ID,
	}
}

// normalize projects nested objects to ids, sets the parent foreign key when
// parentKey is given and runs the stream specific modifier
func (s *stream) normalize(raw map[string]any, parent types.Record, parentKey string) (types.Record, error) {
	record := abstract.NewRecord(raw)
	if err := abstract.ProjectObjectIDs(s.def.ID, record, s.def.ObjectToID); err != nil {
		return nil, err
	}

	if parentKey != "" {
		id, err := abstract.ParentID(s.def.ID, parent)
		if err != nil {
			return nil, err
		}
		record[parentKey] = id
	}

	if s.modify != nil {
		if err := s.modify(s.def.ID, record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (s *stream) pageArgs(page *abstract.PageState) []graphql.Arg {
	return []graphql.Arg{
		{Name: "limit", Value: s.def.Pagination.PageSize},
		{Name: "page", Value: page.Page},
	}
}

// formatID renders an id as an unquoted graphql literal
func formatID(id any) graphql.Raw {
	switch v := id.(type) {
	case string:
		return graphql.Raw(v)
	case float64:
		return graphql.Raw(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return graphql.Raw(fmt.Sprint(v))
	}
}

// rootStream is a top level query field, e.g. `boards(limit: 100, page: 1)`
type rootStream struct {
	stream
	field string
}

func (r *rootStream) BuildRequest(_ types.Record, page *abstract.PageState) (*abstract.Request, error) {
	root := r.field
	if r.def.Pagination.Style == abstract.PageCounter {
		root = graphql.Call(r.field, r.pageArgs(page)...)
	}
	return r.post(r.def.Query(root)), nil
}

func (r *rootStream) ExtractPage(response map[string]any, _ *abstract.PageState) ([]map[string]any, error) {
	return abstract.ExtractPath(response, "data."+r.field), nil
}

func (r *rootStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	return r.normalize(raw, parent, "")
}

// boardStream is a list nested under a single board: `boards(ids: 1) { columns { ... }}`
type boardStream struct {
	stream
	field string
}

func (b *boardStream) BuildRequest(parent types.Record, page *abstract.PageState) (*abstract.Request, error) {
	id, err := abstract.ParentID(b.def.ID, parent)
	if err != nil {
		return nil, err
	}

	nested := b.field
	if b.def.Pagination.Style == abstract.PageCounter {
		nested = graphql.Call(b.field, b.pageArgs(page)...)
	}
	root, closing := graphql.Prefix(graphql.Call("boards", graphql.Arg{Name: "ids", Value: formatID(id)}), nested)
	return b.post(b.def.Query(root) + closing), nil
}

func (b *boardStream) ExtractPage(response map[string]any, _ *abstract.PageState) ([]map[string]any, error) {
	board := abstract.First(response, "data.boards")
	if board == nil {
		return nil, nil
	}
	return abstract.ExtractPath(board, b.field), nil
}

func (b *boardStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	return b.normalize(raw, parent, "board_id")
}

// itemsStream pages through the items of a board with the cursor of items_page
type itemsStream struct {
	stream
}

func (i *itemsStream) BuildRequest(parent types.Record, page *abstract.PageState) (*abstract.Request, error) {
	limit := graphql.Arg{Name: "limit", Value: i.def.Pagination.PageSize}
	if page.Cursor != "" {
		root, closing := graphql.Prefix(
			graphql.Call("next_items_page", limit, graphql.Arg{Name: "cursor", Value: page.Cursor}),
			"cursor items",
		)
		return i.post(i.def.Query(root) + closing), nil
	}

	id, err := abstract.ParentID(i.def.ID, parent)
	if err != nil {
		return nil, err
	}
	root, closing := graphql.Prefix(
		graphql.Call("boards", graphql.Arg{Name: "ids", Value: formatID(id)}),
		graphql.Call("items_page", limit),
		"cursor items",
	)
	return i.post(i.def.Query(root) + closing), nil
}

func (i *itemsStream) ExtractPage(response map[string]any, page *abstract.PageState) ([]map[string]any, error) {
	itemsPage := abstract.First(response, "data.next_items_page")
	if itemsPage == nil {
		if board := abstract.First(response, "data.boards"); board != nil {
			itemsPage = abstract.First(board, "items_page")
		}
	}

	page.Cursor = ""
	if itemsPage == nil {
		return nil, nil
	}
	if cursor, ok := itemsPage["cursor"].(string); ok {
		page.Cursor = cursor
	}
	return abstract.ExtractPath(itemsPage, "items"), nil
}

func (i *itemsStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	return i.normalize(raw, parent, "board_id")
}

// columnValuesStream reads the column values of one item: `items(ids: 1) { column_values { ... }}`
type columnValuesStream struct {
	stream
}

func (c *columnValuesStream) BuildRequest(parent types.Record, _ *abstract.PageState) (*abstract.Request, error) {
	id, err := abstract.ParentID(c.def.ID, parent)
	if err != nil {
		return nil, err
	}
	root, closing := graphql.Prefix(graphql.Call("items", graphql.Arg{Name: "ids", Value: formatID(id)}), "column_values")
	return c.post(c.def.Query(root) + closing), nil
}

func (c *columnValuesStream) ExtractPage(response map[string]any, _ *abstract.PageState) ([]map[string]any, error) {
	item := abstract.First(response, "data.items")
	if item == nil {
		return nil, nil
	}
	return abstract.ExtractPath(item, "column_values"), nil
}

func (c *columnValuesStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	record, err := c.normalize(raw, parent, "item_id")
	if err != nil {
		return nil, err
	}
	boardID, err := abstract.ParentField(c.def.ID, parent, "board_id")
	if err != nil {
		return nil, err
	}
	record["board_id"] = boardID
	return record, nil
}

// embeddedStream is read out of the payload of its parent update
type embeddedStream struct {
	stream
	extract func(parent types.Record) []map[string]any
}

func (e *embeddedStream) BuildRequest(_ types.Record, _ *abstract.PageState) (*abstract.Request, error) {
	return nil, fmt.Errorf("stream %s is read from its parent record and has no request", e.def.ID)
}

func (e *embeddedStream) ExtractPage(_ map[string]any, _ *abstract.PageState) ([]map[string]any, error) {
	return nil, nil
}

func (e *embeddedStream) ExtractEmbedded(parent types.Record) ([]map[string]any, error) {
	if parent == nil {
		return nil, &abstract.MissingFieldError{Stream: e.def.ID, Field: "parent"}
	}
	return e.extract(parent), nil
}

func (e *embeddedStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	return e.normalize(raw, parent, "update_id")
}

// updateAssets collects the assets of an update and of every reply to it
func updateAssets(update types.Record) []map[string]any {
	assets := abstract.ExtractPath(update, "assets")
	for _, reply := range abstract.ExtractPath(update, "replies") {
		assets = append(assets, abstract.ExtractPath(reply, "assets")...)
	}
	return assets
}

func updateReplies(update types.Record) []map[string]any {
	return abstract.ExtractPath(update, "replies")
}
