// Package fsops implements the filesystem collaborators of a build: wiping
// the destination root and copying a glob-selected file set into it.
package fsops
