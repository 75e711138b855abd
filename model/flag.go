package model

import "encoding/json"

// Reason explains how a variation was produced or why a fallback was
// used. Kind is always present; Detail carries the "errorKind" of an
// error reason built by ErrorReason. DecodePayload keeps only Kind
// from a server-supplied reason: other fields such as "ruleIndex" are
// not decoded, and Detail is not serialized.
type Reason struct {
	Kind   string         `json:"kind"`
	Detail map[string]any `json:"-"`
}

// Error reason kinds used by the variation-detail taxonomy.
const (
	ReasonKindError = "ERROR"
)

// Error kinds nested under a Reason{Kind: ReasonKindError}.
const (
	ErrorKindClientNotSpecified = "CLIENT_NOT_SPECIFIED"
	ErrorKindFlagNotSpecified   = "FLAG_NOT_SPECIFIED"
	ErrorKindFlagNotFound       = "FLAG_NOT_FOUND"
	ErrorKindWrongType          = "WRONG_TYPE"
)

// ErrorReason builds a Reason{kind: ERROR, errorKind: ...} pair.
func ErrorReason(errorKind string) *Reason {
	return &Reason{Kind: ReasonKindError, Detail: map[string]any{"errorKind": errorKind}}
}

// FlagRecord is a single versioned flag. Once constructed it is never
// mutated — flagstore.Store treats replacement as "build a new record,
// swap the pointer", which is what lets Store.Get hand out a pointer
// that stays valid for a reader even after the store moves on, instead
// of the reference-counting a mutable-record design would otherwise
// need.
type FlagRecord struct {
	Key       string  `json:"-"`
	Value     Value   `json:"value"`
	Version   int     `json:"version"`
	Variation *int    `json:"variation,omitempty"`
	Reason    *Reason `json:"reason,omitempty"`
}

// flagRecordWire is the JSON shape of one entry in a put/patch/delete
// payload map.
type flagRecordWire struct {
	Value     json.RawMessage `json:"value"`
	Version   int             `json:"version"`
	Variation *int            `json:"variation,omitempty"`
	Reason    *reasonWire     `json:"reason,omitempty"`
}

type reasonWire struct {
	Kind  string         `json:"kind"`
	Extra map[string]any `json:"-"`
}

// DecodePayload decodes a "put"/"patch"/"delete" payload (a JSON
// object mapping flag key to flag record) into the internal
// representation used by flagstore.Store. JSON decoding itself is an
// explicitly out-of-scope external collaborator; this
// function is the thin boundary where that collaborator's output
// becomes the core's FlagRecord type.
func DecodePayload(payload []byte) (map[string]FlagRecord, error) {
	var wire map[string]flagRecordWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	out := make(map[string]FlagRecord, len(wire))
	for key, w := range wire {
		rec := FlagRecord{
			Key:       key,
			Value:     ValueFromJSON(w.Value),
			Version:   w.Version,
			Variation: w.Variation,
		}
		if w.Reason != nil {
			rec.Reason = &Reason{Kind: w.Reason.Kind}
		}
		out[key] = rec
	}
	return out, nil
}

// EncodePayload is the inverse of DecodePayload, used by
// flagstore.Store.Serialize to produce a payload equivalent to a
// server "put" of the current contents.
func EncodePayload(records map[string]FlagRecord) ([]byte, error) {
	wire := make(map[string]flagRecordWire, len(records))
	for key, rec := range records {
		w := flagRecordWire{
			Value:     rec.Value.AsJSON(),
			Version:   rec.Version,
			Variation: rec.Variation,
		}
		if rec.Reason != nil {
			w.Reason = &reasonWire{Kind: rec.Reason.Kind}
		}
		wire[key] = w
	}
	return json.Marshal(wire)
}
