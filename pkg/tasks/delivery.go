package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeliveryState represents where a notification sits in its lifecycle.
// Legal transitions: pending -> sending -> {sent | retrying | abandoned},
// retrying -> sending. Sent and abandoned are terminal.
type DeliveryState string

const (
	StatePending   DeliveryState = "pending"
	StateSending   DeliveryState = "sending"
	StateSent      DeliveryState = "sent"
	StateRetrying  DeliveryState = "retrying"
	StateAbandoned DeliveryState = "abandoned"
)

// Terminal reports whether the state admits no further transitions.
func (s DeliveryState) Terminal() bool {
	return s == StateSent || s == StateAbandoned
}

// Delivery is the record of one notification task: which review triggered
// it, who it goes to, and how delivery went.
type Delivery struct {
	ID          uuid.UUID     `json:"id"`
	ReviewerID  uuid.UUID     `json:"reviewer_id"`
	BookID      uuid.UUID     `json:"book_id"`
	Recipient   string        `json:"recipient,omitempty"`
	State       DeliveryState `json:"state"`
	Attempts    int           `json:"attempts"`
	LastError   string        `json:"last_error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// DeliveryLog keeps recent delivery records in memory for inspection.
// Bounded; oldest records are evicted when full.
type DeliveryLog struct {
	entries    map[uuid.UUID]*Delivery
	mutex      sync.RWMutex
	maxEntries int
}

// NewDeliveryLog creates a new delivery log
func NewDeliveryLog(maxEntries int) *DeliveryLog {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &DeliveryLog{
		entries:    make(map[uuid.UUID]*Delivery),
		maxEntries: maxEntries,
	}
}

// Add records a delivery
func (l *DeliveryLog) Add(d *Delivery) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if len(l.entries) >= l.maxEntries {
		l.evictOldest()
	}

	l.entries[d.ID] = d
}

// Get retrieves a delivery by ID
func (l *DeliveryLog) Get(id uuid.UUID) (*Delivery, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	d, exists := l.entries[id]
	return d, exists
}

// Update replaces a delivery record
func (l *DeliveryLog) Update(d *Delivery) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries[d.ID] = d
}

// GetByBook retrieves deliveries triggered by reviews of a book
func (l *DeliveryLog) GetByBook(bookID uuid.UUID) []*Delivery {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var result []*Delivery
	for _, d := range l.entries {
		if d.BookID == bookID {
			result = append(result, d)
		}
	}
	return result
}

// evictOldest removes the oldest 10% of entries
func (l *DeliveryLog) evictOldest() {
	entries := make([]*Delivery, 0, len(l.entries))
	for _, d := range l.entries {
		entries = append(entries, d)
	}

	// Sort by created_at ascending
	for i := 0; i < len(entries)-1; i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].CreatedAt.After(entries[j].CreatedAt) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}

	evictCount := len(entries) / 10
	if evictCount == 0 {
		evictCount = 1
	}

	for i := 0; i < evictCount && i < len(entries); i++ {
		delete(l.entries, entries[i].ID)
	}
}

// GetStats returns aggregate delivery statistics
func (l *DeliveryLog) GetStats() DeliveryStats {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	stats := DeliveryStats{}

	for _, d := range l.entries {
		stats.Total++
		switch d.State {
		case StateSent:
			stats.Sent++
		case StateAbandoned:
			stats.Abandoned++
		case StateRetrying:
			stats.Retrying++
		case StatePending, StateSending:
			stats.InFlight++
		}
		stats.TotalAttempts += d.Attempts
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Sent) / float64(stats.Total)
	}

	return stats
}

// DeliveryStats represents aggregate delivery statistics
type DeliveryStats struct {
	Total         int     `json:"total"`
	Sent          int     `json:"sent"`
	Abandoned     int     `json:"abandoned"`
	Retrying      int     `json:"retrying"`
	InFlight      int     `json:"in_flight"`
	TotalAttempts int     `json:"total_attempts"`
	SuccessRate   float64 `json:"success_rate"`
}
