package variation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflag/flagcore/client"
	"github.com/edgeflag/flagcore/config"
	"github.com/edgeflag/flagcore/eventbuffer"
	"github.com/edgeflag/flagcore/flagstore"
	"github.com/edgeflag/flagcore/model"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	shared := client.NewSharedContext(model.User{Key: "user-1"}, config.Config{
		PollingIntervalMillis:           30000,
		EventsFlushIntervalMillis:       30000,
		BackgroundPollingIntervalMillis: 3600000,
		Offline:                         true,
	})
	c := client.New("default", shared, flagstore.New(), eventbuffer.New(), client.Transports{})
	t.Cleanup(func() {
		_ = c.Close(context.Background())
	})
	return c
}

// Scenario 5: type mismatch in detail.
func TestBoolDetail_WrongType(t *testing.T) {
	c := newTestClient(t)
	decoded, err := model.DecodePayload([]byte(`{"beta":{"value":"s","version":1}}`))
	require.NoError(t, err)
	c.Store().PutSnapshot(decoded)

	d := BoolDetail(c, "beta", false)
	assert.Equal(t, false, d.Value)
	assert.Equal(t, -1, d.VariationIndex)
	assert.Equal(t, model.ReasonKindError, d.Reason.Kind)
	assert.Equal(t, model.ErrorKindWrongType, d.Reason.Detail["errorKind"])

	assert.False(t, Bool(c, "beta", false))
}

func TestBoolDetail_ClientNotSpecified(t *testing.T) {
	d := BoolDetail(nil, "beta", true)
	assert.Equal(t, true, d.Value)
	assert.Equal(t, -1, d.VariationIndex)
	assert.Equal(t, model.ErrorKindClientNotSpecified, d.Reason.Detail["errorKind"])
}

func TestBoolDetail_FlagNotSpecified(t *testing.T) {
	c := newTestClient(t)
	d := BoolDetail(c, "", true)
	assert.Equal(t, true, d.Value)
	assert.Equal(t, -1, d.VariationIndex)
	assert.Equal(t, model.ErrorKindFlagNotSpecified, d.Reason.Detail["errorKind"])
}

func TestBoolDetail_FlagNotFound(t *testing.T) {
	c := newTestClient(t)
	d := BoolDetail(c, "missing", true)
	assert.Equal(t, true, d.Value)
	assert.Equal(t, -1, d.VariationIndex)
	assert.Equal(t, model.ErrorKindFlagNotFound, d.Reason.Detail["errorKind"])
}

func TestTextDetail_Success(t *testing.T) {
	c := newTestClient(t)
	decoded, err := model.DecodePayload([]byte(`{"greeting":{"value":"hi","version":3,"variation":1}}`))
	require.NoError(t, err)
	c.Store().PutSnapshot(decoded)

	d := TextDetail(c, "greeting", "fallback")
	assert.Equal(t, "hi", d.Value)
	assert.Equal(t, 1, d.VariationIndex)
	assert.Equal(t, "", d.Reason.Kind)

	assert.Equal(t, "hi", Text(c, "greeting", "fallback"))
}

func TestIntDetail_TruncatesFloat(t *testing.T) {
	c := newTestClient(t)
	decoded, err := model.DecodePayload([]byte(`{"limit":{"value":7.9,"version":1}}`))
	require.NoError(t, err)
	c.Store().PutSnapshot(decoded)

	assert.Equal(t, 7, Int(c, "limit", 0))
}

func TestJSONDetail_PassesThroughAnyShape(t *testing.T) {
	c := newTestClient(t)
	decoded, err := model.DecodePayload([]byte(`{"cfg":{"value":{"a":1},"version":1}}`))
	require.NoError(t, err)
	c.Store().PutSnapshot(decoded)

	d := JSONDetail(c, "cfg", []byte(`{}`))
	assert.JSONEq(t, `{"a":1}`, string(d.Value.(json.RawMessage)))
}
