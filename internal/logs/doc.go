// Package logs reads the Lyricast log file for `lyricast logs`.
//
// Last returns the trailing lines with bounded memory, ReadFrom continues
// from a byte offset, and Follow polls for appended lines until its context
// ends. Only complete lines are returned; a partially written final line is
// left for the next read. A file that shrinks below the saved offset is
// treated as rotated and read from the start.
package logs
