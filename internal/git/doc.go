// Package git checks whether a plaintext export is exposed to git.
//
// An export written inside a work tree should be ignored and must never
// be tracked; otherwise a single "git add ." commits every secret in the
// vault in clear text.
package git
