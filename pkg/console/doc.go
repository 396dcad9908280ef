// Package console captures what the process writes to its standard output
// and standard error.
//
// While enabled, a Capture replaces the target *os.File variables (os.Stdout
// and os.Stderr by default) with pipe writers. Everything written is copied to
// the original file first and then split into Lines kept in a bounded buffer
// and pushed to subscribers. Only writes that go through the swapped variables
// are seen; code holding its own reference to the original file, or writing
// to the file descriptors directly, bypasses the capture.
//
// Sequence numbers restart at 1 on every Enable and each enable opens a new
// Window, so readers can tell capture sessions apart.
package console
