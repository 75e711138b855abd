package errors

// Sentinel error kinds from the core's error taxonomy, for callers to
// wrap with errors.Wrap/WithDetail and recover with errors.Is. The
// workers in this module act on response codes directly and neither
// return nor wrap these values.
var (
	// ErrAuthFailure: response 401/403 from any worker. Transitions
	// the client to Failed; no retry.
	ErrAuthFailure = New("auth failure")

	// ErrTransportTransient: response -1 (local/network failure).
	ErrTransportTransient = New("transient transport failure")

	// ErrTransportRejection: any other non-2xx response.
	ErrTransportRejection = New("transport rejection")

	// ErrParseFailure: a streamed patch/delete payload failed to decode.
	ErrParseFailure = New("stream payload parse failure")

	// ErrStaleUpdate: a patch/delete failed the strict version check.
	ErrStaleUpdate = New("stale update")

	// ErrTypeMismatch: requested variation type does not match the
	// stored value's type.
	ErrTypeMismatch = New("variation type mismatch")

	// ErrNotFound: the requested flag key has no record in the store.
	ErrNotFound = New("flag not found")

	// ErrInvalidArgument: a null client, null key, or malformed
	// argument was passed to a public call.
	ErrInvalidArgument = New("invalid argument")

	// ErrClosed: a public call was made on a client after Close.
	ErrClosed = New("client is closed")
)
