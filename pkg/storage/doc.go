// Package storage writes archived media to disk.
//
// The archive has no index of its own. Whether an item has been archived is
// answered by Exists, which looks for a regular file at the item's target
// path. Save makes that check trustworthy by writing to a temporary
// "<path>.<uuid>.part" sibling and renaming it into place only after every
// byte has been written.
//
// Usage:
//
//	manager, err := storage.NewManager("/archive")
//	if err != nil {
//	    return err
//	}
//
//	if !manager.Exists(path) {
//	    if _, err := manager.Save(bytes.NewReader(data), path); err != nil {
//	        return err
//	    }
//	}
package storage
