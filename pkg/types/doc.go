// Package types defines the Store, Session, and Table interfaces, the
// manuscript and annotation entity types, and the standard error values for
// the KHATT annotation core.
package types
