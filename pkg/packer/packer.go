package packer

import (
	"cmp"
	"math/bits"
	"slices"

	"github.com/matzehuels/atlaspack/pkg/errors"
)

// Growth selects how the canvas is enlarged when no free leaf fits a block.
type Growth string

// Supported growth strategies.
const (
	GrowSquare Growth = "square" // grow along the shorter canvas side
	GrowPow2   Growth = "pow2"   // keep both sides close to powers of two
)

// Order selects the order in which blocks are placed.
type Order string

// Supported block orders. All of them keep the input order for ties.
const (
	OrderMaxSide Order = "max-side" // longest side first
	OrderArea    Order = "area"     // largest area first
	OrderNone    Order = "none"     // input order
)

// ParseGrowth converts a strategy name into a Growth. The empty string
// selects GrowSquare.
func ParseGrowth(s string) (Growth, error) {
	switch Growth(s) {
	case "", GrowSquare:
		return GrowSquare, nil
	case GrowPow2:
		return GrowPow2, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid growth %q (must be one of: square, pow2)", s)
}

// ParseOrder converts an order name into an Order. The empty string selects
// OrderMaxSide.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderMaxSide:
		return OrderMaxSide, nil
	case OrderArea, OrderNone:
		return Order(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid order %q (must be one of: max-side, area, none)", s)
}

// Option configures a Packer.
type Option func(*Packer)

// WithGrowth sets the growth strategy (default GrowSquare).
func WithGrowth(g Growth) Option { return func(p *Packer) { p.growth = g } }

// WithOrder sets the placement order (default OrderMaxSide).
func WithOrder(o Order) Option { return func(p *Packer) { p.order = o } }

// Packer owns the packing tree and places blocks into it.
// The zero value is ready to use with the default strategies.
type Packer struct {
	root   *Node
	growth Growth
	order  Order
}

// New creates an empty Packer.
func New(opts ...Option) *Packer {
	p := &Packer{growth: GrowSquare, order: OrderMaxSide}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the root of the packing tree, or nil before the first block
// has been placed.
func (p *Packer) Root() *Node { return p.root }

// Width returns the canvas width (0 when nothing has been packed).
func (p *Packer) Width() int {
	if p.root == nil {
		return 0
	}
	return p.root.W
}

// Height returns the canvas height (0 when nothing has been packed).
func (p *Packer) Height() int {
	if p.root == nil {
		return 0
	}
	return p.root.H
}

// Size returns the canvas dimensions.
func (p *Packer) Size() (w, h int) { return p.Width(), p.Height() }

// Reset discards the packing tree. Blocks placed earlier keep their
// positions but their Fit nodes no longer belong to the packer.
func (p *Packer) Reset() { p.root = nil }

// Fit places every block and records its position.
//
// All blocks are validated before any is touched: a nil, already placed or
// repeated block fails with INVALID_INPUT and a non-positive side with
// INVALID_DIMENSION, leaving every block unmodified. An empty slice is a
// no-op. Calling Fit again packs further blocks into the same canvas, which
// never shrinks.
//
// Fit panics with a GROWTH_EXHAUSTED *errors.Error if the tree fails to make
// room for a block after growing; that indicates a bug, not bad input.
func (p *Packer) Fit(blocks []*Block) error {
	if err := validate(blocks); err != nil {
		return err
	}

	ordered := slices.Clone(blocks)
	sortBlocks(ordered, p.order)

	for _, b := range ordered {
		if p.root == nil {
			p.root = &Node{W: b.Width, H: b.Height}
		}
		n := find(p.root, b.Width, b.Height)
		if n == nil {
			p.grow(b.Width, b.Height)
			if n = find(p.root, b.Width, b.Height); n == nil {
				panic(errors.New(errors.ErrCodeGrowthExhausted,
					"no room for %dx%d block after growing canvas to %dx%d",
					b.Width, b.Height, p.root.W, p.root.H))
			}
		}
		n.split(b.Width, b.Height)
		b.X, b.Y, b.fit = n.X, n.Y, n
	}
	return nil
}

func validate(blocks []*Block) error {
	seen := make(map[*Block]int, len(blocks))
	for i, b := range blocks {
		if first, ok := seen[b]; ok && b != nil {
			return errors.New(errors.ErrCodeInvalidInput, "block %d repeats block %d", i, first)
		}
		seen[b] = i
		switch {
		case b == nil:
			return errors.New(errors.ErrCodeInvalidInput, "block %d is nil", i)
		case b.Placed():
			return errors.New(errors.ErrCodeInvalidInput, "block %d is already placed at (%d, %d)", i, b.X, b.Y)
		case b.Width <= 0 || b.Height <= 0:
			return errors.New(errors.ErrCodeInvalidDimension,
				"block %d has size %dx%d, both sides must be positive", i, b.Width, b.Height)
		}
	}
	return nil
}

// Sort orders blocks in place by descending longer side, keeping the input
// order for ties. This is the order Fit uses by default.
func Sort(blocks []*Block) { sortBlocks(blocks, OrderMaxSide) }

func sortBlocks(blocks []*Block, o Order) {
	switch o {
	case OrderNone:
	case OrderArea:
		slices.SortStableFunc(blocks, func(a, b *Block) int { return cmp.Compare(b.Area(), a.Area()) })
	default:
		slices.SortStableFunc(blocks, func(a, b *Block) int { return cmp.Compare(b.MaxSide(), a.MaxSide()) })
	}
}

// grow replaces the root with a larger one that has a free region of at
// least w×h.
func (p *Packer) grow(w, h int) {
	canRight := h <= p.root.H
	canDown := w <= p.root.W

	var right, down bool
	if p.growth == GrowPow2 {
		right, down = p.pow2Direction(w, h, canRight, canDown)
	} else {
		right, down = p.squareDirection(w, h, canRight, canDown)
	}

	switch {
	case right:
		p.growRight(w)
	case down:
		p.growDown(h)
	default:
		// Neither axis alone is tall or wide enough. Growing right first
		// makes the canvas at least w wide, so the down strip then fits.
		p.growRight(w)
		p.growDown(h)
	}
}

func (p *Packer) squareDirection(w, h int, canRight, canDown bool) (right, down bool) {
	shouldRight := canRight && p.root.H >= p.root.W+w
	shouldDown := canDown && p.root.W >= p.root.H+h
	switch {
	case shouldRight:
		return true, false
	case shouldDown:
		return false, true
	}
	return canRight, !canRight && canDown
}

func (p *Packer) pow2Direction(w, h int, canRight, canDown bool) (right, down bool) {
	if canRight && canDown {
		rightWaste := pow2Waste(p.root.W+w) + pow2Waste(p.root.H)
		downWaste := pow2Waste(p.root.W) + pow2Waste(p.root.H+h)
		return rightWaste <= downWaste, rightWaste > downWaste
	}
	return canRight, canDown
}

// growRight puts the old root to the left of a new w wide free strip.
func (p *Packer) growRight(w int) {
	old := p.root
	p.root = &Node{
		Used:  true,
		W:     old.W + w,
		H:     old.H,
		Down:  old,
		Right: &Node{X: old.W, W: w, H: old.H},
	}
}

// growDown puts the old root above a new h tall free strip.
func (p *Packer) growDown(h int) {
	old := p.root
	p.root = &Node{
		Used:  true,
		W:     old.W,
		H:     old.H + h,
		Right: old,
		Down:  &Node{Y: old.H, W: old.W, H: h},
	}
}

// Pow2 returns the smallest power of two >= v, or 0 for v <= 0.
func Pow2(v int) int {
	if v <= 0 {
		return 0
	}
	return 1 << bits.Len(uint(v-1))
}

func pow2Waste(v int) int { return Pow2(v) - v }
