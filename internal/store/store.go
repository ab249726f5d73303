// Package store persists the to-do hierarchy: users own projects, projects
// contain groups, groups contain tasks, tasks contain subtasks. Two backends
// implement the same contract and are chosen at process start.
package store

import "errors"

var (
	// ErrNotFound is returned for any lookup of an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned by CreateUser on a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
)
