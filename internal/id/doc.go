// Package id generates the identifiers replayd stamps on its
// artifacts.
//
// Two forms cover the two places an ID is needed:
//
//   - Short: 16 hex characters, assigned to each recorded transaction.
//     Kept deliberately small because these end up in cassette files
//     and log lines.
//   - ULID: 26 characters, millisecond timestamp followed by random
//     bits. Auto-generated cassette file names embed one so a
//     directory of recordings lists in creation order.
//
// Both draw from crypto/rand.
package id
