package cassette

import "sync"

// Store is an ordered queue of transactions with FIFO semantics.
// Playback drains it strictly from the head as requests arrive; record
// appends strictly at the tail as responses complete. A Store is owned
// by a single session for its lifetime and is never shared across
// sessions.
type Store struct {
	mu   sync.RWMutex
	txns []*Transaction
}

// NewStore creates an empty transaction store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the store contents wholesale with the given ordered
// sequence. Used once at playback startup.
func (s *Store) Load(txns []*Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txns = make([]*Transaction, len(txns))
	copy(s.txns, txns)
}

// PopFront removes and returns the head transaction. The boolean is
// false when the store is exhausted; exhaustion is not an error by
// itself.
func (s *Store) PopFront() (*Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.txns) == 0 {
		return nil, false
	}
	t := s.txns[0]
	s.txns = s.txns[1:]
	return t, true
}

// PushFront reinserts a transaction at the head, undoing a speculative
// pop so it remains the next expected transaction.
func (s *Store) PushFront(t *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txns = append([]*Transaction{t}, s.txns...)
}

// PushBack appends a transaction at the tail (record mode, completion
// order).
func (s *Store) PushBack(t *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txns = append(s.txns, t)
}

// Snapshot returns a copy of the current ordered contents for flushing
// to durable storage. The returned slice is the caller's to keep; the
// transactions themselves are shared and must not be mutated.
func (s *Store) Snapshot() []*Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// Len returns the number of queued transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txns)
}
