// Package cassette provides the transaction model and file format for
// recorded HTTP traffic.
//
// This package defines the core data structures shared by record and
// playback:
//   - Transaction: An immutable captured request/response pair
//   - RecordedRequest / RecordedResponse: The captured wire details
//   - Store: An ordered FIFO queue of transactions with push-front undo
//   - ReadFile / WriteFile: The durable cassette serializer
//
// Ordering:
//
// A cassette is an ordered sequence. Record mode appends transactions at
// the tail in completion order; playback drains them strictly from the
// head. The Store never searches: PopFront and PushFront exist so a
// playback engine can speculatively consume the head and restore it when
// a match fails.
//
// File Format:
//
// Cassettes are a top-level array, one element per transaction, stored as
// JSON or YAML depending on file extension (.yaml/.yml for YAML,
// otherwise JSON):
//
//	- id: 1f0a9c2d74b3e681
//	  recordedAt: 2026-03-11T09:14:02Z
//	  request:
//	    method: GET
//	    url: https://api.example.com/users?page=1
//	    headers:
//	      Accept: [application/json]
//	  response:
//	    statusCode: 200
//	    status: 200 OK
//	    headers:
//	      Content-Type: [application/json]
//	    body: '[]'
//
// Bodies are written as plain text when they are valid UTF-8 and as
// base64 (!!binary in YAML) otherwise, so round trips are byte-exact for
// binary payloads.
package cassette
