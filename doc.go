// Package atlas packs many small rasterized bitmaps (font glyphs, rasterized
// vector graphics, decoded images) into a small number of large GPU textures,
// so a renderer can draw arbitrary text and inline graphics with minimal
// texture-binding changes.
//
// The package has two layers:
//
//   - Atlas: a single GPU texture of fixed pixel format plus a 2-D packer.
//     Regions are placed with AddRegion and their pixels are flushed to the
//     GPU once per frame by Update, batched through one command encoder.
//   - GlyphCache: two atlases (a single-channel mask atlas and an RGBA color
//     atlas) behind content-keyed memoization tables. Rasterization callbacks
//     run at most once per distinct key; CheckUsage decides when the atlases
//     must grow or be cleared wholesale.
//
// # Frame protocol
//
// All lookups and mutations for a frame happen on one goroutine, followed by
// exactly one Update call, followed by submission of the command buffer:
//
//	info := cache.GetGlyphMask(key, rasterize)
//	if info.Packed {
//	    // draw using info.Rect, info.Left, info.Top
//	}
//	cache.Update(device, queue, encoder)
//	// ... EndEncoding, Submit ...
//	grew, err := cache.CheckUsage(device)
//
// When CheckUsage reports growth (or performs a soft clear), every previously
// returned Placement is stale and consumers must re-fetch on the next frame.
//
// # Failure model
//
// The only recoverable failure in steady state is packing exhaustion,
// reported as Placement.Packed == false (or ok == false from AddRegion).
// It is not an error: callers skip drawing the entry for the frame and the
// next CheckUsage cycle makes room.
//
// GPU resources are supplied by the caller as gogpu/wgpu HAL handles
// (hal.Device, hal.Queue, hal.CommandEncoder); this package only allocates
// textures and staging buffers and records buffer-to-texture copies.
package atlas
