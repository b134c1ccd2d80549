package domain

import "strings"

// RootName is the name of the folder every asset tree starts from
const RootName = "Assets"

// Node is a folder or asset entry in the content browser tree.
// Folder nodes own their children; asset nodes reference a record owned by
// the Registry and never have children.
type Node struct {
	Name     string
	Type     AssetType
	Asset    Asset
	Children []*Node

	parent *Node
}

// NewFolderNode creates a detached folder node
func NewFolderNode(name string) *Node {
	return &Node{Name: name, Type: TypeFolder}
}

// BuildTree groups the registry's records by destination folder.
// Folders are created lazily in discovery order and shared across types;
// leaves are appended in registry order and point at the original records.
func BuildTree(reg *Registry) *Node {
	root := NewFolderNode(RootName)
	if reg == nil {
		return root
	}

	for _, a := range reg.All() {
		folder := root
		for _, segment := range SplitFolder(a.Meta().DestinationFolder) {
			folder = folder.folderChild(segment)
		}
		folder.appendChild(&Node{
			Name:  a.Meta().Name,
			Type:  a.Type(),
			Asset: a,
		})
	}

	return root
}

// SplitFolder splits a destination folder on "/" dropping empty segments,
// so "", "/" and "//" all resolve to the root.
func SplitFolder(folder string) []string {
	parts := strings.Split(folder, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// folderChild returns the folder child with the exact name, creating it if needed
func (n *Node) folderChild(name string) *Node {
	for _, c := range n.Children {
		if c.Type == TypeFolder && c.Name == name {
			return c
		}
	}
	return n.appendChild(NewFolderNode(name))
}

func (n *Node) appendChild(c *Node) *Node {
	c.parent = n
	n.Children = append(n.Children, c)
	return c
}

// Parent returns the containing folder, nil for the root
func (n *Node) Parent() *Node {
	return n.parent
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Type == TypeFolder
}

// Path rebuilds the node's path from its parents. The root is "/".
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	parent := n.parent.Path()
	if parent == "/" {
		return "/" + n.Name
	}
	return parent + "/" + n.Name
}

// Folder walks folder children along a destination folder path.
// Returns nil if any segment is missing.
func (n *Node) Folder(path string) *Node {
	cur := n
	for _, segment := range SplitFolder(path) {
		var next *Node
		for _, c := range cur.Children {
			if c.Type == TypeFolder && c.Name == segment {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// Walk visits the node and its descendants depth first.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of folders (excluding n) and leaves below n
func (n *Node) Count() (folders, leaves int) {
	n.Walk(func(node *Node, depth int) bool {
		if depth == 0 {
			return true
		}
		if node.IsFolder() {
			folders++
		} else {
			leaves++
		}
		return true
	})
	return folders, leaves
}
