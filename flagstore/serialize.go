package flagstore

import "github.com/edgeflag/flagcore/model"

// Serialize produces a payload equivalent to a server "put" of the
// current contents, suitable for PersistenceTransport.Save.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.RLock()
	snapshot := make(map[string]model.FlagRecord, len(s.records))
	for key, rec := range s.records {
		snapshot[key] = *rec
	}
	s.mu.RUnlock()

	return model.EncodePayload(snapshot)
}

// Restore is defined as PutSnapshot of a decoded payload, used to
// warm-start a client from persisted state. Because it reuses
// PutSnapshot semantics, it fires listeners for every flag in the
// restored snapshot — intentional for warm start, so any listener
// registered before Restore observes the warm-started values exactly
// as it would observe a live "put".
func (s *Store) Restore(payload []byte) error {
	decoded, err := model.DecodePayload(payload)
	if err != nil {
		return err
	}
	s.PutSnapshot(decoded)
	return nil
}
