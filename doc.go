// Package tiff reads and writes the Tagged Image File Format and its
// 64-bit BigTIFF extension.
//
// A TIFF file is a header followed by a graph of Image File Directories
// (IFDs); each IFD is an ordered list of tag entries that either carry a
// small inline value or point to an out-of-line payload (pixel strips or
// tiles, strings, rationals, nested IFDs). This package exposes three
// pieces that stay deliberately separate:
//
//   - IFDReader / IFDWriter, the directory and value codec,
//   - Cursor, the writer's forward-only offset and alignment bookkeeping,
//   - Pipeline and the photometric Middleware implementations that turn
//     decompressed strip/tile bytes into a typed PixelBuffer.
//
// Everything here is single-threaded per session: one open file, one IFD
// build, or one decode traversal is driven by a single goroutine that may
// block at I/O boundaries and nowhere else. Independent sessions over
// independent backing stores may run concurrently.
package tiff
