// Package conversation keeps chat histories in process memory, partitioned by
// context key.
//
// A conversation always starts with the system turn it was seeded with. Turns
// are appended, never edited; Reset drops everything except system turns.
package conversation

import "errors"

var ErrNotFound = errors.New("conversation not found")
