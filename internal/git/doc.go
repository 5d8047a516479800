// Package git inspects the source-control state of a build's source root.
//
// The inspector answers the three questions build provenance needs: the
// current branch name, the abbreviated HEAD hash and the number of commits
// reachable from HEAD. A directory that is not inside a repository, or a
// repository without commits, has no source-control info; that is not an
// error.
package git
