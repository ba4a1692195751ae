package domain

// DefaultHistoryCapacity is the number of extraction records a ledger retains
// unless configured otherwise: the latest run and the one before it.
const DefaultHistoryCapacity = 2

// LedgerState describes how full a ledger is.
type LedgerState string

const (
	LedgerEmpty   LedgerState = "empty"
	LedgerPartial LedgerState = "partial"
	LedgerFull    LedgerState = "full"
)

// Ledger is the bounded in-memory history of recent extraction records.
// Records are kept oldest to newest; pushing into a full ledger evicts the oldest.
// A Ledger is owned by a single session and is not safe for concurrent use.
type Ledger struct {
	capacity int
	records  []ExtractionRecord
}

// NewLedger creates an empty ledger. Capacities below 1 fall back to DefaultHistoryCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &Ledger{
		capacity: capacity,
		records:  make([]ExtractionRecord, 0, capacity),
	}
}

// Push inserts record as the newest entry, discarding the oldest when full.
func (l *Ledger) Push(record ExtractionRecord) {
	if len(l.records) == l.capacity {
		copy(l.records, l.records[1:])
		l.records = l.records[:len(l.records)-1]
	}
	l.records = append(l.records, record.Clone())
}

// Latest returns the newest record.
func (l *Ledger) Latest() (ExtractionRecord, bool) {
	return l.fromNewest(0)
}

// Previous returns the record pushed before the latest one.
func (l *Ledger) Previous() (ExtractionRecord, bool) {
	return l.fromNewest(1)
}

// Records returns a copy of the retained records, newest first.
func (l *Ledger) Records() []ExtractionRecord {
	out := make([]ExtractionRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i].Clone())
	}
	return out
}

// Len reports how many records are retained.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Capacity reports the maximum number of retained records.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// State reports whether the ledger is empty, partially filled or full.
func (l *Ledger) State() LedgerState {
	switch len(l.records) {
	case 0:
		return LedgerEmpty
	case l.capacity:
		return LedgerFull
	default:
		return LedgerPartial
	}
}

func (l *Ledger) fromNewest(offset int) (ExtractionRecord, bool) {
	idx := len(l.records) - 1 - offset
	if idx < 0 {
		return ExtractionRecord{}, false
	}
	return l.records[idx].Clone(), true
}
