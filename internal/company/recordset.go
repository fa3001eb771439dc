package company

import "encoding/json"

// RecordSet maps company name to record, remembering discovery order.
// It never holds more than its cap.
type RecordSet struct {
	cap   int
	order []string
	byKey map[string]Record
}

// NewRecordSet creates an empty set holding at most capacity records.
func NewRecordSet(capacity int) *RecordSet {
	if capacity < 0 {
		capacity = 0
	}
	return &RecordSet{
		cap:   capacity,
		byKey: make(map[string]Record),
	}
}

// Add inserts r unless its name is already present or the set is full.
// The first record under a name wins.
func (s *RecordSet) Add(r Record) bool {
	if s.Full() || s.Has(r.Name) {
		return false
	}
	s.order = append(s.order, r.Name)
	s.byKey[r.Name] = r
	return true
}

func (s *RecordSet) Has(name string) bool {
	_, ok := s.byKey[name]
	return ok
}

func (s *RecordSet) Get(name string) (Record, bool) {
	r, ok := s.byKey[name]
	return r, ok
}

func (s *RecordSet) Len() int { return len(s.order) }

func (s *RecordSet) Cap() int { return s.cap }

func (s *RecordSet) Full() bool { return len(s.order) >= s.cap }

// Records returns the records in insertion order.
func (s *RecordSet) Records() []Record {
	out := make([]Record, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byKey[name])
	}
	return out
}

// MarshalJSON encodes the set as an ordered array of records.
func (s *RecordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Records())
}
