package service

import "sync"

// invoiceLocks serializes payment processing per invoice id. Entries are
// dropped once no goroutine holds or waits on them.
type invoiceLocks struct {
	mu    sync.Mutex
	locks map[int64]*invoiceLock
}

type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

func newInvoiceLocks() *invoiceLocks {
	return &invoiceLocks{locks: make(map[int64]*invoiceLock)}
}

// Lock blocks until the invoice is free and returns its unlock func
func (l *invoiceLocks) Lock(invoiceID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[invoiceID]
	if !ok {
		entry = &invoiceLock{}
		l.locks[invoiceID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, invoiceID)
		}
		l.mu.Unlock()
	}
}

func (l *invoiceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
