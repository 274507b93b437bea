// Package conversation provides the append-only, ordered record of
// turns per session.
//
// Items are immutable once appended: the Store interface exposes no
// update or delete operation, and both implementations return deep
// copies so callers cannot mutate stored history through a reference.
// The ordered item list is the authoritative conversation history fed
// to downstream inference.
package conversation
