package flagstore

import "github.com/edgeflag/flagcore/model"

// change describes one committed mutation, queued while the write
// lock is held and fired only after it is released.
type change struct {
	key      string
	record   *model.FlagRecord
	isDelete bool
}

// PutSnapshot atomically replaces the entire store contents. The new
// map is built unlocked by the caller (DecodePayload already ran
// before this call), and is swapped in under a single write-lock
// critical section. Listeners fire for every key whose value or
// presence changed relative to the previous contents.
func (s *Store) PutSnapshot(payload map[string]model.FlagRecord) {
	next := make(map[string]*model.FlagRecord, len(payload))
	for key, rec := range payload {
		rec := rec
		rec.Key = key
		next[key] = &rec
	}

	s.mu.Lock()
	prev := s.records
	s.records = next
	s.mu.Unlock()

	changes := diffSnapshot(prev, next)
	for _, c := range changes {
		s.notify(c.key, c.record, c.isDelete)
	}
}

func diffSnapshot(prev, next map[string]*model.FlagRecord) []change {
	var changes []change
	for key, newRec := range next {
		oldRec, existed := prev[key]
		if !existed || !sameValue(oldRec, newRec) {
			changes = append(changes, change{key: key, record: newRec})
		}
	}
	for key := range prev {
		if _, stillPresent := next[key]; !stillPresent {
			changes = append(changes, change{key: key, record: nil, isDelete: true})
		}
	}
	return changes
}

func sameValue(a, b *model.FlagRecord) bool {
	return a.Version == b.Version && string(a.Value.Raw) == string(b.Value.Raw)
}

// ApplyPatch upserts each entry in payload, skipping any entry whose
// current record has a strictly greater version (a stale patch).
// Non-stale entries replace the current record and fire listeners
// with isDelete=false.
func (s *Store) ApplyPatch(payload map[string]model.FlagRecord) {
	for key, incoming := range payload {
		incoming := incoming
		incoming.Key = key

		s.mu.Lock()
		current, exists := s.records[key]
		if exists && current.Version > incoming.Version {
			s.mu.Unlock()
			continue // stale update: skip silently, no listener fired
		}
		s.records[key] = &incoming
		s.mu.Unlock()

		s.notify(key, &incoming, false)
	}
}

// ApplyDelete removes each entry in payload using the same strict
// version check as ApplyPatch, then fires listeners with
// isDelete=true.
func (s *Store) ApplyDelete(payload map[string]model.FlagRecord) {
	for key, incoming := range payload {
		s.mu.Lock()
		current, exists := s.records[key]
		if !exists {
			s.mu.Unlock()
			continue
		}
		if current.Version > incoming.Version {
			s.mu.Unlock()
			continue // stale update
		}
		delete(s.records, key)
		s.mu.Unlock()

		s.notify(key, nil, true)
	}
}
