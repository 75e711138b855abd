package model

// User identifies the subject flags are evaluated for. The core treats
// it as an opaque, read-only value shared across worker goroutines
// under client.SharedContext's lock; redaction of PrivateAttributeNames
// is the event buffer's concern, not the core's.
type User struct {
	Key                   string
	Attributes            map[string]any
	Anonymous             bool
	PrivateAttributeNames []string
}

// EvaluationEvent is the payload client.Client hands to the configured
// EventBuffer.EnqueueEvaluation after every variation lookup, so the
// external event-batch builder can record it. Construction and
// flushing of the batch itself is out of core scope; this
// struct is the contract boundary.
type EvaluationEvent struct {
	FlagKey      string
	Value        Value
	Variation    *int
	Reason       *Reason
	Default      Value
	User         User
	FlagVersion  *int
}

// TrackEvent describes a custom analytics event. client.Client's Track
// methods do not build one; they pass name, data and metric straight
// to EventBuffer.EnqueueTrack.
type TrackEvent struct {
	Name       string
	Data       any
	HasMetric  bool
	MetricValue float64
	User       User
}
