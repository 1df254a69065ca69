// Package metadata records completed downloads. An optional JSON Lines
// manifest gets one line per saved file; it is an audit trail only and is
// never consulted to decide what to download.
package metadata
