// Package textutil cleans user-supplied names before they reach the
// filesystem.
package textutil
