package abstract

import (
	"fmt"
	"sort"
)

// Node is a stream placed in the sync forest
type Node struct {
	Stream   Stream
	Children []*Node
	Policy   BookmarkPolicy
}

func (n *Node) ID() string {
	return n.Stream.Definition().ID
}

// ResolveTree builds the sync forest once per run. A stream is kept when it or
// one of its descendants is selected; children are only reached through their parent.
func ResolveTree(streams []Stream, catalog Catalog) ([]*Node, error) {
	byID := make(map[string]Stream, len(streams))
	for _, stream := range streams {
		def := stream.Definition()
		if _, found := byID[def.ID]; found {
			return nil, fmt.Errorf("stream[%s] defined twice", def.ID)
		}
		byID[def.ID] = stream
	}

	for id, stream := range byID {
		parent := stream.Definition().Parent
		if _, found := byID[parent]; parent != "" && !found {
			return nil, fmt.Errorf("stream[%s] references unknown parent stream[%s]", id, parent)
		}
	}

	var build func(id string, path map[string]bool) (*Node, error)
	build = func(id string, path map[string]bool) (*Node, error) {
		if path[id] {
			return nil, fmt.Errorf("stream[%s] is its own ancestor", id)
		}
		path[id] = true
		defer delete(path, id)

		stream := byID[id]
		def := stream.Definition()
		node := &Node{Stream: stream}

		for _, childID := range def.Children {
			child, found := byID[childID]
			if !found {
				return nil, fmt.Errorf("stream[%s] references unknown child stream[%s]", id, childID)
			}
			if child.Definition().Parent != id {
				return nil, fmt.Errorf("stream[%s] lists child stream[%s] whose parent is %q", id, childID, child.Definition().Parent)
			}

			childNode, err := build(childID, path)
			if err != nil {
				return nil, err
			}
			if childNode != nil {
				node.Children = append(node.Children, childNode)
			}
		}

		if !catalog.IsSelected(id) && len(node.Children) == 0 {
			return nil, nil
		}

		if def.IsIncremental() {
			node.Policy = BookmarkPolicy{
				Key:          def.ReplicationKey,
				CompositeKey: CompositeKey(id, def.ReplicationKey),
			}
			for _, child := range node.Children {
				if child.Stream.Definition().IsIncremental() && catalog.IsSelected(child.ID()) {
					node.Policy.Tracked = append(node.Policy.Tracked, child.ID())
				}
			}
		}

		return node, nil
	}

	ids := make([]string, 0, len(byID))
	for id, stream := range byID {
		if stream.Definition().Parent == "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var roots []*Node
	for _, id := range ids {
		node, err := build(id, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if node != nil {
			roots = append(roots, node)
		}
	}

	return roots, nil
}

// Walk visits the forest depth first in sync order
func Walk(nodes []*Node, visit func(*Node)) {
	for _, node := range nodes {
		visit(node)
		Walk(node.Children, visit)
	}
}
