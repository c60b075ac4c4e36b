package packer

import "image"

// Block is a rectangle to be placed on the canvas.
//
// Width, Height and Data are supplied by the caller. X and Y are written by
// [Packer.Fit] exactly once and are meaningful only when [Block.Placed]
// reports true.
type Block struct {
	Width, Height int
	Data          any // caller payload, never inspected

	X, Y int

	fit *Node
}

// NewBlock returns an unplaced block of the given size.
func NewBlock(width, height int, data any) *Block {
	return &Block{Width: width, Height: height, Data: data}
}

// Placed reports whether the block has been assigned a position.
func (b *Block) Placed() bool { return b.fit != nil }

// Fit returns the tree node that was split to hold the block, or nil.
// The node belongs to the packer and must not be modified.
func (b *Block) Fit() *Node { return b.fit }

// MaxSide returns the longer of the block's two sides.
func (b *Block) MaxSide() int { return max(b.Width, b.Height) }

// Area returns Width*Height.
func (b *Block) Area() int { return b.Width * b.Height }

// Rect returns the block's footprint in canvas coordinates.
func (b *Block) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}
