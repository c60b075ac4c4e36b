package packer

// Node is a rectangular canvas region in the packing tree.
//
// A free leaf has Used == false and no children. A used node has both
// children: after a split, Right is the strip beside the placed block
// (block height) and Down is the strip below it (full node width). Together
// with the block footprint they tile the node exactly. Children may have a
// zero dimension; such leaves never match a block.
type Node struct {
	X, Y, W, H int
	Used       bool
	Down       *Node
	Right      *Node
}

// IsLeaf reports whether n is a free leaf.
func (n *Node) IsLeaf() bool { return !n.Used }

// Area returns W*H.
func (n *Node) Area() int { return n.W * n.H }

// split marks n used and carves the space left over by a w×h block at
// (n.X, n.Y) into the right and down strips.
func (n *Node) split(w, h int) {
	n.Used = true
	n.Down = &Node{X: n.X, Y: n.Y + h, W: n.W, H: n.H - h}
	n.Right = &Node{X: n.X + w, Y: n.Y, W: n.W - w, H: h}
}

// find returns the first free leaf under root, in tree order, that is at
// least w wide and h tall. Right subtrees are searched before down
// subtrees. The walk uses an explicit stack so deep trees cannot overflow.
func find(root *Node, w, h int) *Node {
	if root == nil {
		return nil
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Used {
			// Pushed last, popped first.
			stack = append(stack, n.Down, n.Right)
			continue
		}
		if n.W >= w && n.H >= h {
			return n
		}
	}
	return nil
}

// Walk visits n and its descendants depth first, right before down.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) || !cur.Used {
			continue
		}
		stack = append(stack, cur.Down, cur.Right)
	}
}
