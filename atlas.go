package atlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Atlas errors.
var (
	// ErrInvalidDimensions is returned when atlas dimensions are not positive.
	ErrInvalidDimensions = errors.New("atlas: invalid atlas dimensions")

	// ErrNilDevice is returned when a GPU operation is attempted without a device.
	ErrNilDevice = errors.New("atlas: device is nil")

	// ErrNilEncoder is returned when Update is called without a command encoder.
	ErrNilEncoder = errors.New("atlas: command encoder is nil")
)

// RectPadding is the gap, in pixels, kept between packed regions and between
// regions and the atlas border. It prevents texture-filtering bleed between
// adjacent bitmaps.
const RectPadding = 6

// copyPitchAlignment is the row alignment required by buffer-to-texture
// copies. WebGPU (and DX12) require BytesPerRow aligned to 256 bytes.
const copyPitchAlignment = 256

// alignRowBytes rounds a tightly packed row size up to copyPitchAlignment.
func alignRowBytes(rowBytes int) int {
	return (rowBytes + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// Content selects the pixel format of an Atlas. It is fixed for the lifetime
// of the atlas texture and changes only through full reallocation in Resize.
type Content int

const (
	// ContentMask stores single-channel 8-bit coverage bitmaps.
	ContentMask Content = iota

	// ContentColor stores four-channel RGBA bitmaps (color emoji, rasterized
	// vector graphics, subpixel-rendered text).
	ContentColor
)

// String returns a human-readable name for the content kind.
func (c Content) String() string {
	switch c {
	case ContentMask:
		return "Mask"
	case ContentColor:
		return "Color"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// BytesPerPixel returns the pixel stride for the content kind.
func (c Content) BytesPerPixel() int {
	if c == ContentColor {
		return 4
	}
	return 1
}

// Format returns the wgpu texture format for the content kind.
func (c Content) Format() gputypes.TextureFormat {
	if c == ContentColor {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatR8Unorm
}

// label returns the debug label used for the atlas texture.
func (c Content) label() string {
	if c == ContentColor {
		return "atlas_color"
	}
	return "atlas_mask"
}

// pendingImage is a region accepted by AddRegion whose pixels have not yet
// been flushed to the GPU. Data is tightly packed in the atlas's pixel stride.
type pendingImage struct {
	rect Rect
	data []byte
}

// Atlas owns one GPU texture and a packer tracking its free space. Regions
// accepted by AddRegion are queued and uploaded on the next Update, batched
// into the caller's command encoder so a frame with many new bitmaps costs a
// single submission.
//
// Atlas follows gogpu's frame protocol and is not safe for concurrent use.
type Atlas struct {
	content Content
	width   int
	height  int

	packer  *Packer
	pending []pendingImage

	texture hal.Texture
	view    hal.TextureView

	areaUsed     int
	maxSeen      int
	pendingClear bool

	// staging buffers recorded into the previous Update's encoder; released
	// on the next Update, after the caller has submitted that frame.
	staging []hal.Buffer
}

func packerConfig(width, height int) PackerConfig {
	return PackerConfig{
		Width:            width,
		Height:           height,
		BorderPadding:    RectPadding,
		RectanglePadding: RectPadding,
	}
}

// New creates an atlas with the given content kind and dimensions. The GPU
// texture is allocated immediately; its contents are undefined until the
// first Update.
func New(device hal.Device, content Content, width, height int) (*Atlas, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	a := &Atlas{
		content: content,
		width:   width,
		height:  height,
		packer:  NewPacker(packerConfig(width, height)),
	}
	if err := a.createTexture(device); err != nil {
		return nil, err
	}
	return a, nil
}

// createTexture allocates the atlas texture and its default view.
func (a *Atlas) createTexture(device hal.Device) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: a.content.label(),
		Size: hal.Extent3D{
			Width:              uint32(a.width),
			Height:             uint32(a.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        a.content.Format(),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create atlas texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         a.content.label() + "_view",
		Format:        a.content.Format(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("create atlas texture view: %w", err)
	}

	a.texture = tex
	a.view = view
	return nil
}

// AddRegion attempts to place a width x height bitmap. On success the pixel
// data (tightly packed, in the atlas's pixel stride) is queued for the next
// Update and the placed rectangle is returned. ok is false when the atlas has
// no free space of sufficient size; the attempt has no other side effect
// beyond updating the largest-dimension tracker read by GlyphCache.CheckUsage.
func (a *Atlas) AddRegion(data []byte, width, height int) (Rect, bool) {
	// Track the largest requested side even for failed placements, so a
	// bitmap too big for the current atlas still drives the growth decision.
	if m := max(width, height); m > a.maxSeen {
		a.maxSeen = m
	}

	rect, ok := a.packer.Pack(width, height)
	if !ok {
		slogger().Debug("atlas: packing exhausted",
			"content", a.content.String(),
			"width", width, "height", height,
			"usage", a.Usage())
		return Rect{}, false
	}

	a.pending = append(a.pending, pendingImage{
		rect: rect,
		data: append([]byte(nil), data...),
	})
	if width > 0 && height > 0 {
		a.areaUsed += (rect.Width + RectPadding) * (rect.Height + RectPadding)
	}
	return rect, true
}

// Update flushes all queued work into the encoder: first the deferred
// zero-fill if Clear was called since the last Update, then one
// buffer-to-texture copy per accepted region, in acceptance order. The
// zero-fill must be recorded before the region copies so freshly placed
// pixels are never clobbered by the clear.
//
// Update must be called exactly once per frame, after all AddRegion calls
// for that frame and before the encoder is finished and submitted.
func (a *Atlas) Update(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	if device == nil {
		return ErrNilDevice
	}
	if encoder == nil {
		return ErrNilEncoder
	}

	a.releaseStaging(device)

	if a.pendingClear {
		if err := a.recordZeroFill(device, queue, encoder); err != nil {
			return err
		}
		a.pendingClear = false
	}

	for i := range a.pending {
		if err := a.recordUpload(device, queue, encoder, &a.pending[i]); err != nil {
			return err
		}
	}
	a.pending = a.pending[:0]

	return nil
}

// recordZeroFill records a full-atlas copy from a zeroed staging buffer.
func (a *Atlas) recordZeroFill(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	rowBytes := alignRowBytes(a.width * a.content.BytesPerPixel())
	size := uint64(rowBytes) * uint64(a.height)

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "atlas_clear_staging",
		Size:  size,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create clear staging buffer: %w", err)
	}
	a.staging = append(a.staging, buf)
	queue.WriteBuffer(buf, 0, make([]byte, size))

	encoder.CopyBufferToTexture(buf, a.texture, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rowBytes),
			RowsPerImage: uint32(a.height),
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  a.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{
			Width:              uint32(a.width),
			Height:             uint32(a.height),
			DepthOrArrayLayers: 1,
		},
	}})
	return nil
}

// recordUpload re-pads one region's rows to the copy pitch alignment and
// records its buffer-to-texture copy at the region's origin.
func (a *Atlas) recordUpload(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder, img *pendingImage) error {
	if img.rect.Width == 0 || img.rect.Height == 0 {
		return nil
	}

	rowBytes := img.rect.Width * a.content.BytesPerPixel()
	aligned := alignRowBytes(rowBytes)

	padded := img.data
	if aligned != rowBytes {
		padded = make([]byte, aligned*img.rect.Height)
		for row := 0; row < img.rect.Height; row++ {
			copy(padded[row*aligned:row*aligned+rowBytes], img.data[row*rowBytes:(row+1)*rowBytes])
		}
	}

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "atlas_staging",
		Size:  uint64(len(padded)),
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	a.staging = append(a.staging, buf)
	queue.WriteBuffer(buf, 0, padded)

	encoder.CopyBufferToTexture(buf, a.texture, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(aligned),
			RowsPerImage: uint32(img.rect.Height),
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  a.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(img.rect.X), Y: uint32(img.rect.Y), Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{
			Width:              uint32(img.rect.Width),
			Height:             uint32(img.rect.Height),
			DepthOrArrayLayers: 1,
		},
	}})
	return nil
}

// releaseStaging destroys the staging buffers recorded last frame.
func (a *Atlas) releaseStaging(device hal.Device) {
	for _, buf := range a.staging {
		device.DestroyBuffer(buf)
	}
	a.staging = a.staging[:0]
}

// Resize discards the atlas texture and allocates a new one at the given
// dimensions, then clears the packing state. Every rectangle previously
// returned by AddRegion is invalid after Resize; the owner must drop any
// cache entries referencing them.
func (a *Atlas) Resize(device hal.Device, width, height int) error {
	if device == nil {
		return ErrNilDevice
	}
	if width <= 0 || height <= 0 {
		return ErrInvalidDimensions
	}

	device.DestroyTextureView(a.view)
	device.DestroyTexture(a.texture)

	a.width = width
	a.height = height
	a.packer = NewPacker(packerConfig(width, height))
	if err := a.createTexture(device); err != nil {
		return err
	}

	a.Clear()
	return nil
}

// Clear resets the packing state and discards queued uploads. The texture
// pixels are wiped lazily: the next Update records a full-atlas zero-fill
// before any new region copies. The largest-dimension tracker is deliberately
// kept, so growth decisions see requests from before the clear.
func (a *Atlas) Clear() {
	a.packer.Reset()
	a.areaUsed = 0
	a.pending = a.pending[:0]
	a.pendingClear = true
}

// Usage returns the fraction of the atlas area consumed by accepted regions,
// counting padding. It can slightly exceed 1 since padded areas overlap the
// border; treat it as an overcommit estimate.
func (a *Atlas) Usage() float64 {
	return float64(a.areaUsed) / float64(a.width*a.height)
}

// Destroy releases the atlas GPU resources. The atlas must not be used
// afterwards.
func (a *Atlas) Destroy(device hal.Device) {
	a.releaseStaging(device)
	if a.view != nil {
		device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.texture != nil {
		device.DestroyTexture(a.texture)
		a.texture = nil
	}
	a.pending = nil
}

// Texture returns the atlas texture for binding.
func (a *Atlas) Texture() hal.Texture { return a.texture }

// View returns the atlas texture's default view.
func (a *Atlas) View() hal.TextureView { return a.view }

// Width returns the atlas width in pixels.
func (a *Atlas) Width() int { return a.width }

// Height returns the atlas height in pixels.
func (a *Atlas) Height() int { return a.height }

// Content returns the atlas content kind.
func (a *Atlas) Content() Content { return a.content }
