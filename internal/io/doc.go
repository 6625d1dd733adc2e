// Package ioutils provides file system and filename utilities.
//
// This package contains functions for:
//   - Filename sanitization for cross-platform compatibility
//   - Batch-scoped filename de-duplication
//   - Atomic file writes and copies
//   - Free disk space checks
//
// # Filename Sanitization
//
// Use SanitizeFileName to replace characters that are illegal in file names:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # De-duplication
//
// A NameTable hands out names that are unique within one batch, compared
// case-insensitively:
//
//	table := ioutils.NewNameTable()
//	table.Reserve("photo.jpg") // "photo.jpg"
//	table.Reserve("Photo.JPG") // "Photo (2).JPG"
//
// UniqueFileNames applies a fresh table to a whole list:
//
//	names := ioutils.UniqueFileNames([]string{"x.png", "x.png"}) // ["x.png", "x (2).png"]
//
// # File Operations
//
//	// Write a stream to disk via a ".part" file and rename
//	err := ioutils.WriteFileAtomic(ctx, "/downloads/a.zip", reader)
//
//	// Copy a file
//	err := ioutils.CopyFile(ctx, "/tmp/blob", "/downloads/a.zip")
package ioutils
