package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/atlaspack/pkg/packer"
)

// RenderDOT converts a packing tree to Graphviz DOT. Each node shows its
// rectangle; nodes that hold a block are labelled with the block's Data,
// free leaves are filled green and empty (zero-area) leaves are dashed.
// Edges are labelled "R" and "D" for the right and down children.
func RenderDOT(root *packer.Node, blocks []*packer.Block) []byte {
	names := make(map[*packer.Node]string, len(blocks))
	for _, b := range blocks {
		if n := b.Fit(); n != nil {
			names[n] = fmt.Sprint(b.Data)
		}
	}

	ids := make(map[*packer.Node]int)
	var order []*packer.Node
	root.Walk(func(n *packer.Node) bool {
		ids[n] = len(order)
		order = append(order, n)
		return true
	})

	var buf bytes.Buffer
	buf.WriteString("digraph packer {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10];\n\n")

	for _, n := range order {
		rect := fmt.Sprintf("%dx%d @ %d,%d", n.W, n.H, n.X, n.Y)
		switch name, placed := names[n]; {
		case placed:
			fmt.Fprintf(&buf, "  n%d [label=%q, fillcolor=lightblue];\n", ids[n], name+"\n"+rect)
		case n.Used:
			fmt.Fprintf(&buf, "  n%d [label=%q, fillcolor=lightgrey];\n", ids[n], "grow\n"+rect)
		case n.Area() == 0:
			fmt.Fprintf(&buf, "  n%d [label=%q, style=\"rounded,dashed\", fontcolor=grey];\n", ids[n], rect)
		default:
			fmt.Fprintf(&buf, "  n%d [label=%q, fillcolor=palegreen];\n", ids[n], "free\n"+rect)
		}
	}

	buf.WriteString("\n")
	for _, n := range order {
		if !n.Used {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [label=\"R\"];\n", ids[n], ids[n.Right])
		fmt.Fprintf(&buf, "  n%d -> n%d [label=\"D\"];\n", ids[n], ids[n.Down])
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// RenderTreeSVG renders the packing tree to SVG with Graphviz.
func RenderTreeSVG(ctx context.Context, root *packer.Node, blocks []*packer.Block) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(RenderDOT(root, blocks))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render tree: %w", err)
	}
	return buf.Bytes(), nil
}
