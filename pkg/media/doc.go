// Package media holds the pure naming rules of the archive: which media
// entries are kept, which extension they get, and where they land on disk.
package media
