package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/IvanShishkin/shadowsnap/internal/compare"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// treeNode is one folder of the printed hierarchy
type treeNode struct {
	name     string
	children map[string]*treeNode
}

func newTreeNode(name string) *treeNode {
	return &treeNode{name: name, children: make(map[string]*treeNode)}
}

// add inserts the slash separated path below n
func (n *treeNode) add(rel string) {
	node := n
	for _, part := range strings.Split(rel, "/") {
		if part == "" {
			continue
		}
		child, ok := node.children[part]
		if !ok {
			child = newTreeNode(part)
			node.children[part] = child
		}
		node = child
	}
}

// PrintTree writes the folder hierarchy of entries below root as an ASCII
// tree, children sorted by name. An empty root uses the deepest directory
// shared by all entries.
func PrintTree(w io.Writer, entries []models.Entry, root string) error {
	if root == "" {
		root = compare.CommonRoot(entries)
	}
	rel := compare.RelativeTo(root)

	top := newTreeNode(root)
	for _, e := range entries {
		if !e.IsFolder() {
			continue
		}
		if r, ok := rel(e); ok {
			top.add(r)
		}
	}

	return printNode(w, top, "", true)
}

func printNode(w io.Writer, n *treeNode, indent string, last bool) error {
	if _, err := fmt.Fprintf(w, "%s+- %s\n", indent, n.name); err != nil {
		return err
	}
	if last {
		indent += "   "
	} else {
		indent += "|  "
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if err := printNode(w, n.children[name], indent, i == len(names)-1); err != nil {
			return err
		}
	}
	return nil
}

