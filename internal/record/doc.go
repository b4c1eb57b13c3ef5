// Package record defines the two record kinds managed by chlog: a pending Change
// and a frozen Release.
//
// This package implements:
//   - Change validation (all four fields required) and display formatting
//   - Release version rendering, bumping, and artifact filename parsing
//   - Version ordering, both semantic and the legacy string ordering
//
// Everything here is a pure function over in-memory values; persistence lives in
// the store, tracker, and release packages.
package record
