package atlas

import (
	"github.com/gogpu/wgpu/hal"
)

// FontID identifies a loaded font face. It is assigned by the caller's font
// database and is opaque to the cache.
type FontID uint64

// GlyphID is the glyph index within a font.
type GlyphID uint16

// GlyphKey uniquely identifies one rasterization of a glyph.
type GlyphKey struct {
	// Font is the owning font face.
	Font FontID

	// Glyph is the glyph index within the font.
	Glyph GlyphID

	// Size is the font size in pixels.
	Size uint32

	// SubX and SubY are the quantized subpixel positions the glyph was
	// rasterized at (see Quantize).
	SubX Bin
	SubY Bin
}

// svgKey identifies one rasterization of a vector graphic. The same source
// rasterizes differently per requested size, so the size is part of the key.
type svgKey struct {
	hash   string
	width  int
	height int
}

// Placement is the cached result of routing a bitmap into an atlas.
type Placement struct {
	// Rect is the placed region in the owning atlas. Only meaningful when
	// Packed is true.
	Rect Rect

	// Packed reports whether the atlas had room. When false the caller must
	// skip drawing this entry for the frame; the next CheckUsage cycle makes
	// room and a later lookup will retry placement.
	Packed bool

	// Left and Top are the rasterizer-supplied drawing-origin offsets.
	Left int
	Top  int

	// Colored reports which atlas holds the bitmap: the color atlas when
	// true, the mask atlas otherwise.
	Colored bool
}

// Image is a rasterized bitmap returned by an image rasterizer callback.
// Data is tightly packed RGBA, 4 bytes per pixel.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// GlyphContent classifies the pixel data a glyph rasterizer produced.
type GlyphContent int

const (
	// GlyphContentMask is a plain grayscale coverage mask, 1 byte per pixel.
	GlyphContentMask GlyphContent = iota

	// GlyphContentSubpixelMask is a subpixel-antialiased mask, 4 bytes per
	// pixel.
	GlyphContentSubpixelMask

	// GlyphContentColor is a full-color bitmap (color emoji), 4 bytes per
	// pixel.
	GlyphContentColor
)

// GlyphImage is a rasterized glyph returned by a glyph rasterizer callback.
type GlyphImage struct {
	// Content classifies Data and selects the destination atlas.
	Content GlyphContent

	// Width and Height are the bitmap dimensions in pixels.
	Width  int
	Height int

	// Left and Top are the drawing-origin offsets of the bitmap relative to
	// the glyph origin.
	Left int
	Top  int

	// Data is the tightly packed pixel data in Content's stride.
	Data []byte
}

// CacheConfig holds configuration for GlyphCache.
type CacheConfig struct {
	// Size is the initial width and height of both atlases.
	// Default: 1024
	Size int

	// MaxUsage is the utilization fraction above which CheckUsage performs a
	// soft clear to reclaim fragmented space.
	// Default: 0.7
	MaxUsage float64
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:     1024,
		MaxUsage: 0.7,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	// Hits is the number of lookups answered from the tables.
	Hits uint64

	// Misses is the number of lookups that invoked a rasterizer.
	Misses uint64

	// Clears is the number of soft clears (same size, placements wiped).
	Clears uint64

	// Grows is the number of growth events (both atlases reallocated).
	Grows uint64
}

// GlyphCache deduplicates rasterization work across three content sources
// (glyphs, vector graphics, images), routes the resulting bitmaps into a
// mask atlas or a color atlas, and owns the growth and eviction policy for
// both atlases together.
//
// Eviction is always whole-cache: the three lookup tables and both atlases
// are wiped in lockstep, never partially. GlyphCache follows the single
// threaded frame protocol described in the package documentation.
type GlyphCache struct {
	size int

	mask  *Atlas
	color *Atlas

	glyphs map[GlyphKey]Placement
	svgs   map[svgKey]Placement
	images map[string]Placement

	config CacheConfig
	stats  CacheStats
}

// NewGlyphCache creates a cache with default configuration.
func NewGlyphCache(device hal.Device) (*GlyphCache, error) {
	return NewGlyphCacheWithConfig(device, DefaultCacheConfig())
}

// NewGlyphCacheWithConfig creates a cache with the given configuration.
// Zero-valued fields fall back to their defaults.
func NewGlyphCacheWithConfig(device hal.Device, config CacheConfig) (*GlyphCache, error) {
	if config.Size <= 0 {
		config.Size = 1024
	}
	if config.MaxUsage <= 0 {
		config.MaxUsage = 0.7
	}

	mask, err := New(device, ContentMask, config.Size, config.Size)
	if err != nil {
		return nil, err
	}
	color, err := New(device, ContentColor, config.Size, config.Size)
	if err != nil {
		mask.Destroy(device)
		return nil, err
	}

	return &GlyphCache{
		size:   config.Size,
		mask:   mask,
		color:  color,
		glyphs: make(map[GlyphKey]Placement),
		svgs:   make(map[svgKey]Placement),
		images: make(map[string]Placement),
		config: config,
	}, nil
}

// GetImageMask returns the placement for an image identified by its content
// hash. On a miss the rasterizer callback runs once and the resulting bitmap
// is routed to the color atlas; the result is memoized even when packing
// failed, until the next clear.
func (c *GlyphCache) GetImageMask(hash []byte, image func() Image) Placement {
	if info, ok := c.images[string(hash)]; ok {
		c.stats.Hits++
		return info
	}
	c.stats.Misses++

	img := image()
	rect, packed := c.color.AddRegion(img.Data, img.Width, img.Height)
	info := Placement{
		Rect:    rect,
		Packed:  packed,
		Colored: true,
	}
	c.images[string(hash)] = info

	return info
}

// GetSVGMask returns the placement for a vector graphic identified by its
// content hash and target size. Lookups sharing a hash but differing in size
// never collide. On a miss the rasterizer callback runs once and must return
// tightly packed RGBA bytes sized width x height.
func (c *GlyphCache) GetSVGMask(hash []byte, width, height int, image func() []byte) Placement {
	key := svgKey{hash: string(hash), width: width, height: height}
	if info, ok := c.svgs[key]; ok {
		c.stats.Hits++
		return info
	}
	c.stats.Misses++

	data := image()
	rect, packed := c.color.AddRegion(data, width, height)
	info := Placement{
		Rect:    rect,
		Packed:  packed,
		Colored: true,
	}
	c.svgs[key] = info

	return info
}

// GetGlyphMask returns the placement for a glyph rasterization. On a miss the
// rasterizer callback runs once; plain coverage masks go to the mask atlas,
// subpixel and color content to the color atlas.
func (c *GlyphCache) GetGlyphMask(key GlyphKey, image func() GlyphImage) Placement {
	if info, ok := c.glyphs[key]; ok {
		c.stats.Hits++
		return info
	}
	c.stats.Misses++

	img := image()
	var rect Rect
	var packed bool
	if img.Content == GlyphContentMask {
		rect, packed = c.mask.AddRegion(img.Data, img.Width, img.Height)
	} else {
		rect, packed = c.color.AddRegion(img.Data, img.Width, img.Height)
	}
	info := Placement{
		Rect:    rect,
		Packed:  packed,
		Left:    img.Left,
		Top:     img.Top,
		Colored: img.Content != GlyphContentMask,
	}
	c.glyphs[key] = info

	return info
}

// Update flushes both atlases' queued uploads into the encoder. It must be
// called once per frame, after all lookups for that frame and before the
// encoder is finished and submitted.
func (c *GlyphCache) Update(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	if err := c.mask.Update(device, queue, encoder); err != nil {
		return err
	}
	return c.color.Update(device, queue, encoder)
}

// CheckUsage applies the growth and eviction policy. Call it at most once per
// frame, after that frame's lookups.
//
// When any requested bitmap's largest side has exceeded half the current
// atlas size, both atlases are reallocated at twice that side and the whole
// cache is cleared; CheckUsage then returns true and every previously issued
// Placement is invalid. Otherwise, when either atlas's usage exceeds the
// configured maximum, the cache is soft-cleared at its current size and
// CheckUsage returns false. Otherwise it is a no-op.
func (c *GlyphCache) CheckUsage(device hal.Device) (bool, error) {
	required := 2 * max(c.mask.maxSeen, c.color.maxSeen)
	if required > c.size {
		c.size = required
		if err := c.mask.Resize(device, c.size, c.size); err != nil {
			return false, err
		}
		if err := c.color.Resize(device, c.size, c.size); err != nil {
			return false, err
		}
		c.Clear()
		c.stats.Grows++
		slogger().Debug("atlas: cache grown",
			"size", c.size,
			"maskMaxSeen", c.mask.maxSeen,
			"colorMaxSeen", c.color.maxSeen)
		return true, nil
	}

	maskUsage, colorUsage := c.mask.Usage(), c.color.Usage()
	if maskUsage > c.config.MaxUsage || colorUsage > c.config.MaxUsage {
		c.Clear()
		c.stats.Clears++
		slogger().Debug("atlas: cache soft-cleared",
			"maskUsage", maskUsage,
			"colorUsage", colorUsage)
		return false, nil
	}

	return false, nil
}

// Clear wipes both atlases and all three lookup tables together. No lookup
// can observe a partially cleared cache.
func (c *GlyphCache) Clear() {
	c.mask.Clear()
	c.color.Clear()
	clear(c.glyphs)
	clear(c.svgs)
	clear(c.images)
}

// Destroy releases both atlases' GPU resources.
func (c *GlyphCache) Destroy(device hal.Device) {
	c.mask.Destroy(device)
	c.color.Destroy(device)
}

// MaskAtlas returns the single-channel atlas holding coverage masks.
func (c *GlyphCache) MaskAtlas() *Atlas { return c.mask }

// ColorAtlas returns the RGBA atlas holding colored and subpixel content.
func (c *GlyphCache) ColorAtlas() *Atlas { return c.color }

// Size returns the current width and height of both atlases.
func (c *GlyphCache) Size() int { return c.size }

// Stats returns a copy of the cache statistics.
func (c *GlyphCache) Stats() CacheStats { return c.stats }
