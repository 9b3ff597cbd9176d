package atlas

// Rect is a placed region in atlas pixel coordinates.
type Rect struct {
	// X is the left edge of the region.
	X int
	// Y is the top edge of the region.
	Y int
	// Width is the region width.
	Width int
	// Height is the region height.
	Height int
}

// PackerConfig holds the dimensions and padding of a Packer.
type PackerConfig struct {
	// Width is the packable area width in pixels.
	Width int

	// Height is the packable area height in pixels.
	Height int

	// BorderPadding is the gap kept between packed rectangles and the
	// area edges.
	BorderPadding int

	// RectanglePadding is the gap kept between adjacent packed rectangles.
	RectanglePadding int
}

// shelf is a horizontal strip of the packable area. Items are placed
// left-to-right; the shelf grows no taller once a second item lands on it.
type shelf struct {
	y      int // top Y coordinate
	height int // tallest item so far
	x      int // next free X position
}

// Packer places axis-aligned rectangles into a bounded 2-D area using a
// greedy first-fit shelf heuristic. Rotation is never applied. The packer
// only tracks positions; pixel data is handled by its owner.
//
// Packer is not safe for concurrent use.
type Packer struct {
	config  PackerConfig
	shelves []shelf

	usedArea int
}

// NewPacker creates an empty packer for the given configuration.
func NewPacker(config PackerConfig) *Packer {
	return &Packer{
		config:  config,
		shelves: make([]shelf, 0, 16),
	}
}

// Pack finds space for a width x height rectangle. It returns the placed
// rectangle and true, or a zero Rect and false when no free space of
// sufficient size remains. Padding is applied around the returned rectangle,
// never inside it.
func (p *Packer) Pack(width, height int) (Rect, bool) {
	if width < 0 || height < 0 {
		return Rect{}, false
	}

	border := p.config.BorderPadding
	pad := p.config.RectanglePadding
	maxX := p.config.Width - border
	maxY := p.config.Height - border

	// Try existing shelves first.
	for i := range p.shelves {
		s := &p.shelves[i]

		if s.x+width > maxX {
			continue
		}

		if height > s.height {
			// Taller than the shelf. The last shelf may still grow
			// downward if nothing is below it.
			if i == len(p.shelves)-1 && s.y+height <= maxY {
				s.height = height
				r := Rect{X: s.x, Y: s.y, Width: width, Height: height}
				s.x += width + pad
				p.usedArea += width * height
				return r, true
			}
			continue
		}

		r := Rect{X: s.x, Y: s.y, Width: width, Height: height}
		s.x += width + pad
		p.usedArea += width * height
		return r, true
	}

	// Open a new shelf below the last one.
	newY := border
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		newY = last.y + last.height + pad
	}
	if newY+height > maxY || border+width > maxX {
		return Rect{}, false
	}

	p.shelves = append(p.shelves, shelf{
		y:      newY,
		height: height,
		x:      border + width + pad,
	})
	p.usedArea += width * height

	return Rect{X: border, Y: newY, Width: width, Height: height}, true
}

// Reset discards all placements, making the entire area available again.
func (p *Packer) Reset() {
	p.shelves = p.shelves[:0]
	p.usedArea = 0
}

// UsedArea returns the cumulative unpadded area of placed rectangles.
func (p *Packer) UsedArea() int {
	return p.usedArea
}

// Config returns the packer's configuration.
func (p *Packer) Config() PackerConfig {
	return p.config
}
