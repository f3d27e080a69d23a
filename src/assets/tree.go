package assets

import (
	"fmt"
	"go.uber.org/zap"
	"path"
)

type NodeType int

const (
	DirNode NodeType = iota
	FileNode
)

func (t NodeType) String() string {
	if t == DirNode {
		return "dir"
	}
	return "file"
}

type TreeNode struct {
	Name     string
	Type     NodeType
	Size     int64 // -1 when unknown
	Children []*TreeNode
}

func (t *TreeNode) String() string {
	if t.Type == DirNode {
		return fmt.Sprintf("[d] %s", t.Name)
	}
	if t.Size < 0 {
		return fmt.Sprintf("[f] %s", t.Name)
	}
	return fmt.Sprintf("[f] %s (%d)", t.Name, t.Size)
}

func (t *TreeNode) Dump(log *zap.SugaredLogger) {
	t.dump(log, "")
}

func (t *TreeNode) dump(log *zap.SugaredLogger, pad string) {
	log.Debugf("%s%v", pad, t)
	if t.Type == DirNode {
		for _, child := range t.Children {
			child.dump(log, pad+"  ")
		}
	}
}

// Leaves counts the file nodes under t.
func (t *TreeNode) Leaves() int {
	if t.Type == FileNode {
		return 1
	}
	n := 0
	for _, child := range t.Children {
		n += child.Leaves()
	}
	return n
}

// Snapshot walks src from its root and returns the tree it exposes. Unlike
// materialization a snapshot is strict: the first listing error aborts it.
func Snapshot(log *zap.SugaredLogger, src Source) (*TreeNode, error) {
	log.Info("Gathering asset tree info")
	children, err := ListChildren(src, Root())
	if err != nil {
		return nil, err
	}
	return snapshot(src, Root(), "", children)
}

func snapshot(src Source, p Path, name string, children []Entry) (*TreeNode, error) {
	t := &TreeNode{
		Name:     name,
		Type:     DirNode,
		Size:     -1,
		Children: make([]*TreeNode, 0, len(children)),
	}

	for _, e := range children {
		child := p.Join(e.Name)
		c, err := Classify(src, child, e)
		if err != nil {
			return nil, err
		}

		if c.Kind == KindFile {
			t.Children = append(t.Children, &TreeNode{Name: e.Name, Type: FileNode, Size: e.Size})
			continue
		}

		sub := c.Children
		if !c.Listed {
			if sub, err = ListChildren(src, child); err != nil {
				return nil, err
			}
		}
		node, err := snapshot(src, child, e.Name, sub)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, node)
	}

	return t, nil
}

type DiffElement struct {
	Path   string
	Type   NodeType
	Reason string
}

func (d DiffElement) String() string {
	return fmt.Sprintf("%s %s: %s", d.Type, d.Path, d.Reason)
}

// Compare reports what other has that t lacks: missing nodes, nodes of a
// different type, and files whose known sizes differ.
func (t *TreeNode) Compare(other *TreeNode) []DiffElement {
	diff := make([]DiffElement, 0)
	t.compare(other, &diff, "")
	return diff
}

func (t *TreeNode) compare(other *TreeNode, diff *[]DiffElement, p string) {
	if t.Type != other.Type {
		*diff = append(*diff, DiffElement{p, other.Type, fmt.Sprintf("is a %s, want %s", t.Type, other.Type)})
		return
	}

	if t.Type == FileNode {
		if t.Size >= 0 && other.Size >= 0 && t.Size != other.Size {
			*diff = append(*diff, DiffElement{p, FileNode, fmt.Sprintf("size %d, want %d", t.Size, other.Size)})
		}
		return
	}

	// at this point both are DirNodes
	mine := treeNodeMap(t.Children)
	for _, oval := range other.Children {
		if m, ok := mine[oval.Name]; ok {
			m.compare(oval, diff, path.Join(p, oval.Name))
		} else {
			treeNodeList(oval, diff, p)
		}
	}
}

func treeNodeList(n *TreeNode, diff *[]DiffElement, p string) {
	*diff = append(*diff, DiffElement{path.Join(p, n.Name), n.Type, "missing"})
	if n.Type == DirNode {
		for _, child := range n.Children {
			treeNodeList(child, diff, path.Join(p, n.Name))
		}
	}
}

func treeNodeMap(n []*TreeNode) map[string]*TreeNode {
	r := make(map[string]*TreeNode)
	for _, node := range n {
		r[node.Name] = node
	}
	return r
}
