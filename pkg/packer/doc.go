// Package packer places rectangles on the smallest canvas it can grow.
//
// The packer keeps a binary tree of canvas regions. Every node is either a
// free leaf or a region that has been split around a placed block into a
// strip to the right of the block and a strip below it. Blocks are placed
// largest first; when no free leaf is big enough the tree grows a new root
// that encloses the old canvas plus a fresh free region to the right or
// below, whichever keeps the canvas closer to square.
//
// # Usage
//
//	blocks := []*packer.Block{
//	    packer.NewBlock(64, 64, "player"),
//	    packer.NewBlock(32, 16, "coin"),
//	}
//	p := packer.New()
//	if err := p.Fit(blocks); err != nil {
//	    return err
//	}
//	w, h := p.Size()
//	for _, b := range blocks {
//	    fmt.Println(b.Data, b.X, b.Y, b.Width, b.Height)
//	}
//
// # Ordering
//
// [Packer.Fit] processes blocks in descending order of their longer side and
// keeps the input order for ties. The growth heuristic assumes roughly
// decreasing sizes; [OrderNone] still produces a correct packing, only a
// larger and less square one. The caller's slice is never reordered.
//
// # Growth
//
// [GrowSquare] (the default) grows along the shorter side of the canvas.
// [GrowPow2] grows in whichever direction leaves both canvas dimensions
// closest to powers of two. When a block is both wider and taller than the
// canvas, the packer grows right and then down.
//
// # Concurrency
//
// A Packer is not safe for concurrent use. [Packer.Fit] is a synchronous,
// allocation-light computation with no I/O.
package packer
