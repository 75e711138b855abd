// Package variation is the typed public surface callers actually use:
// Bool/Int/Double/Text/JSON and their Detail forms, each resolving a
// flag against a client.Client's store and falling back to the
// caller's default whenever the client is nil, the key is empty, the
// flag is missing, or the stored value doesn't match the requested
// type.
package variation

import (
	"encoding/json"

	"github.com/edgeflag/flagcore/client"
	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
)

// Detail is the result of a *Detail variation call: the resolved (or
// fallback) value, the variation index (-1 on any error), and the
// reason the value was produced.
type Detail struct {
	Value          any
	VariationIndex int
	Reason         model.Reason
}

func errDetail(errorKind string) (int, model.Reason) {
	return -1, *model.ErrorReason(errorKind)
}

// lookup resolves key against c's store, applying the
// CLIENT_NOT_SPECIFIED / FLAG_NOT_SPECIFIED / FLAG_NOT_FOUND part of
// the error taxonomy. The wrong-type check is left to each typed
// accessor since it depends on the requested kind.
func lookup(c *client.Client, key string) (*model.FlagRecord, int, model.Reason, bool) {
	if c == nil {
		idx, reason := errDetail(model.ErrorKindClientNotSpecified)
		return nil, idx, reason, false
	}
	if key == "" {
		idx, reason := errDetail(model.ErrorKindFlagNotSpecified)
		return nil, idx, reason, false
	}
	rec, ok := c.Store().Get(key)
	if !ok {
		idx, reason := errDetail(model.ErrorKindFlagNotFound)
		return nil, idx, reason, false
	}
	return rec, 0, model.Reason{}, true
}

func recordEvaluation(c *client.Client, key string, value, def model.Value, variation *int, reason *model.Reason) {
	if c == nil {
		return
	}
	c.EnqueueEvaluation(model.EvaluationEvent{
		FlagKey:   key,
		Value:     value,
		Variation: variation,
		Reason:    reason,
		Default:   def,
		User:      c.CurrentUser(),
	})
}

func warnInvalidArgument(key string) {
	if key == "" {
		logger.Warnw("variation: called with no flag key", logger.FieldFlagKey, key)
	}
}

// Bool resolves key as a boolean, returning fallback on any error.
func Bool(c *client.Client, key string, fallback bool) bool {
	d := BoolDetail(c, key, fallback)
	b, _ := d.Value.(bool)
	if d.Reason.Kind == model.ReasonKindError {
		return fallback
	}
	return b
}

// BoolDetail resolves key as a boolean with full reason detail.
func BoolDetail(c *client.Client, key string, fallback bool) Detail {
	warnInvalidArgument(key)
	rec, idx, reason, ok := lookup(c, key)
	if !ok {
		recordEvaluation(c, key, model.NullValue(), model.BoolValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: idx, Reason: reason}
	}

	b, isBool := rec.Value.AsBool()
	if !isBool {
		_, reason := errDetail(model.ErrorKindWrongType)
		recordEvaluation(c, key, rec.Value, model.BoolValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: -1, Reason: reason}
	}

	out := resultReason(rec)
	recordEvaluation(c, key, rec.Value, model.BoolValue(fallback), rec.Variation, out)
	return Detail{Value: b, VariationIndex: variationIndex(rec), Reason: reasonOrZero(out)}
}

// Int resolves key as an integer (truncating any stored float),
// returning fallback on any error.
func Int(c *client.Client, key string, fallback int) int {
	d := IntDetail(c, key, fallback)
	if d.Reason.Kind == model.ReasonKindError {
		return fallback
	}
	n, _ := d.Value.(int)
	return n
}

// IntDetail resolves key as an integer with full reason detail.
func IntDetail(c *client.Client, key string, fallback int) Detail {
	warnInvalidArgument(key)
	rec, idx, reason, ok := lookup(c, key)
	if !ok {
		recordEvaluation(c, key, model.NullValue(), model.NumberValue(float64(fallback)), nil, &reason)
		return Detail{Value: fallback, VariationIndex: idx, Reason: reason}
	}

	n, isNumber := rec.Value.AsNumber()
	if !isNumber {
		_, reason := errDetail(model.ErrorKindWrongType)
		recordEvaluation(c, key, rec.Value, model.NumberValue(float64(fallback)), nil, &reason)
		return Detail{Value: fallback, VariationIndex: -1, Reason: reason}
	}

	out := resultReason(rec)
	recordEvaluation(c, key, rec.Value, model.NumberValue(float64(fallback)), rec.Variation, out)
	return Detail{Value: int(n), VariationIndex: variationIndex(rec), Reason: reasonOrZero(out)}
}

// Double resolves key as a float64, returning fallback on any error.
func Double(c *client.Client, key string, fallback float64) float64 {
	d := DoubleDetail(c, key, fallback)
	if d.Reason.Kind == model.ReasonKindError {
		return fallback
	}
	n, _ := d.Value.(float64)
	return n
}

// DoubleDetail resolves key as a float64 with full reason detail.
func DoubleDetail(c *client.Client, key string, fallback float64) Detail {
	warnInvalidArgument(key)
	rec, idx, reason, ok := lookup(c, key)
	if !ok {
		recordEvaluation(c, key, model.NullValue(), model.NumberValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: idx, Reason: reason}
	}

	n, isNumber := rec.Value.AsNumber()
	if !isNumber {
		_, reason := errDetail(model.ErrorKindWrongType)
		recordEvaluation(c, key, rec.Value, model.NumberValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: -1, Reason: reason}
	}

	out := resultReason(rec)
	recordEvaluation(c, key, rec.Value, model.NumberValue(fallback), rec.Variation, out)
	return Detail{Value: n, VariationIndex: variationIndex(rec), Reason: reasonOrZero(out)}
}

// Text resolves key as a string, returning fallback on any error.
func Text(c *client.Client, key string, fallback string) string {
	d := TextDetail(c, key, fallback)
	if d.Reason.Kind == model.ReasonKindError {
		return fallback
	}
	s, _ := d.Value.(string)
	return s
}

// TextDetail resolves key as a string with full reason detail.
func TextDetail(c *client.Client, key string, fallback string) Detail {
	warnInvalidArgument(key)
	rec, idx, reason, ok := lookup(c, key)
	if !ok {
		recordEvaluation(c, key, model.NullValue(), model.StringValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: idx, Reason: reason}
	}

	s, isString := rec.Value.AsString()
	if !isString {
		_, reason := errDetail(model.ErrorKindWrongType)
		recordEvaluation(c, key, rec.Value, model.StringValue(fallback), nil, &reason)
		return Detail{Value: fallback, VariationIndex: -1, Reason: reason}
	}

	out := resultReason(rec)
	recordEvaluation(c, key, rec.Value, model.StringValue(fallback), rec.Variation, out)
	return Detail{Value: s, VariationIndex: variationIndex(rec), Reason: reasonOrZero(out)}
}

// JSON resolves key as raw JSON, returning fallback (already
// marshaled) on any error. JSON variations have no wrong-type check:
// any stored value qualifies.
func JSON(c *client.Client, key string, fallback json.RawMessage) json.RawMessage {
	d := JSONDetail(c, key, fallback)
	if d.Reason.Kind == model.ReasonKindError {
		return fallback
	}
	raw, _ := d.Value.(json.RawMessage)
	return raw
}

// JSONDetail resolves key as raw JSON with full reason detail.
func JSONDetail(c *client.Client, key string, fallback json.RawMessage) Detail {
	warnInvalidArgument(key)
	rec, idx, reason, ok := lookup(c, key)
	if !ok {
		recordEvaluation(c, key, model.NullValue(), model.Value{Kind: model.KindObject, Raw: fallback}, nil, &reason)
		return Detail{Value: fallback, VariationIndex: idx, Reason: reason}
	}

	out := resultReason(rec)
	recordEvaluation(c, key, rec.Value, model.Value{Kind: model.KindObject, Raw: fallback}, rec.Variation, out)
	return Detail{Value: rec.Value.AsJSON(), VariationIndex: variationIndex(rec), Reason: reasonOrZero(out)}
}

// resultReason duplicates the stored record's reason for a successful
// lookup, or nil if the record carries none.
func resultReason(rec *model.FlagRecord) *model.Reason {
	if rec.Reason == nil {
		return nil
	}
	dup := *rec.Reason
	return &dup
}

func reasonOrZero(r *model.Reason) model.Reason {
	if r == nil {
		return model.Reason{}
	}
	return *r
}

// variationIndex copies the stored record's variation index, or -1 if
// the record carries none — matching the "otherwise ... variation
// index is copied from the stored record" fallthrough.
func variationIndex(rec *model.FlagRecord) int {
	if rec.Variation == nil {
		return -1
	}
	return *rec.Variation
}
