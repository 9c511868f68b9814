// Package graphql renders monday.com GraphQL selection sets out of stream schemas.
package graphql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/datazip-inc/olake-monday/types"
)

// ExtraFields maps a dot-path to field names requested under it even when the
// schema does not declare them
type ExtraFields map[string][]string

type extraNode struct {
	children map[string]*extraNode
	leaves   []string
}

func newExtraNode() *extraNode {
	return &extraNode{children: map[string]*extraNode{}}
}

func (n *extraNode) child(key string) *extraNode {
	if n == nil {
		return nil
	}
	return n.children[key]
}

func (n *extraNode) renderable() bool {
	return n != nil && (len(n.children) > 0 || len(n.leaves) > 0)
}

func buildExtraTree(extra ExtraFields) *extraNode {
	root := newExtraNode()
	for path, fields := range extra {
		current := root
		for _, part := range strings.Split(path, ".") {
			next, found := current.children[part]
			if !found {
				next = newExtraNode()
				current.children[part] = next
			}
			current = next
		}
		current.leaves = append(current.leaves, fields...)
	}
	return root
}

// BuildQuery renders `query { <rootField> { <selection> }}`. Fields are ordered
// alphabetically at every level, dot-paths in excluded are dropped at any depth.
// rootField may carry arguments or an already opened prefix whose closing braces
// the caller appends.
func BuildQuery(schema *types.Schema, extra ExtraFields, excluded []string, rootField string) string {
	skip := make(map[string]struct{}, len(excluded))
	for _, path := range excluded {
		skip[path] = struct{}{}
	}

	var properties map[string]*types.Schema
	if schema != nil {
		properties = schema.Properties
		if schema.IsArrayOfObjects() {
			properties = schema.Items.Properties
		}
	}

	body := renderSelection(properties, buildExtraTree(extra), "", skip)
	return fmt.Sprintf("query { %s {%s }}", rootField, body)
}

func renderSelection(properties map[string]*types.Schema, extras *extraNode, path string, skip map[string]struct{}) string {
	var builder strings.Builder
	for _, key := range selectionKeys(properties, extras) {
		fullPath := key
		if path != "" {
			fullPath = path + "." + key
		}
		if _, excluded := skip[fullPath]; excluded {
			continue
		}

		property := properties[key]
		branch := extras.child(key)

		var nested string
		switch {
		case property.IsObject():
			nested = renderSelection(property.Properties, branch, fullPath, skip)
		case property.IsArrayOfObjects():
			nested = renderSelection(property.Items.Properties, branch, fullPath, skip)
		case branch.renderable():
			nested = renderSelection(nil, branch, fullPath, skip)
		}

		if strings.TrimSpace(nested) == "" {
			builder.WriteString(" " + key)
			continue
		}
		builder.WriteString(fmt.Sprintf(" %s {%s }", key, nested))
	}

	return builder.String()
}

// selectionKeys is the sorted union of schema properties, extra branches and extra leaves
func selectionKeys(properties map[string]*types.Schema, extras *extraNode) []string {
	seen := map[string]struct{}{}
	for key := range properties {
		seen[key] = struct{}{}
	}
	if extras != nil {
		for key := range extras.children {
			seen[key] = struct{}{}
		}
		for _, leaf := range extras.leaves {
			seen[leaf] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Raw is an argument value rendered without quoting, e.g. numeric ids or enums
type Raw string

type Arg struct {
	Name  string
	Value any
}

// Call renders a field with arguments in the given order: name(a: 1, b: "x")
func Call(field string, args ...Arg) string {
	if len(args) == 0 {
		return field
	}

	rendered := make([]string, 0, len(args))
	for _, arg := range args {
		rendered = append(rendered, fmt.Sprintf("%s: %s", arg.Name, formatValue(arg.Value)))
	}
	return fmt.Sprintf("%s(%s)", field, strings.Join(rendered, ", "))
}

// Prefix opens nested fields for BuildQuery and returns the braces closing them
func Prefix(fields ...string) (string, string) {
	if len(fields) == 0 {
		return "", ""
	}
	return strings.Join(fields, " { "), strings.Repeat("}", len(fields)-1)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case Raw:
		return string(v)
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []Raw:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, string(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []string:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, strconv.Quote(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
