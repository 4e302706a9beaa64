package receiver

import "fmt"

// RequestErrorKind enumerates the from_request parse-time failure kinds.
type RequestErrorKind string

const (
	MissingHeader         RequestErrorKind = "missing header"
	InvalidContentType    RequestErrorKind = "invalid content type"
	InvalidContentLength  RequestErrorKind = "invalid content length"
	ContentLengthTooLarge RequestErrorKind = "content length too large"
	Decode                RequestErrorKind = "decode"
)

// RequestError is returned while parsing and decoding an inbound payjoin
// request, before any broadcastability/ownership/seen check runs.
type RequestError struct {
	Kind RequestErrorKind
	Err  error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payjoin: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("payjoin: %s", e.Kind)
}

func (e *RequestError) Unwrap() error { return e.Err }

func newRequestError(kind RequestErrorKind, err error) *RequestError {
	return &RequestError{Kind: kind, Err: err}
}

// CheckErrorKind enumerates the phase-transition guard-rejection kinds.
type CheckErrorKind string

const (
	TxUnbroadcastable CheckErrorKind = "transaction unbroadcastable"
	TxinAlreadySeen   CheckErrorKind = "txin already seen"
	TxinOwned         CheckErrorKind = "txin owned"
	MissingPrevout    CheckErrorKind = "missing prevout"
)

// CheckError is returned when a phase transition's guard is not (or cannot
// be) discharged.
type CheckError struct {
	Kind CheckErrorKind
	Err  error
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payjoin: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("payjoin: %s", e.Kind)
}

func (e *CheckError) Unwrap() error { return e.Err }

func newCheckError(kind CheckErrorKind, err error) *CheckError {
	return &CheckError{Kind: kind, Err: err}
}

// GuardNotDischargedError is returned by a phase's TryNext when the caller
// attempts to advance before calling the corresponding discharge method.
// It is a programmer error, not a protocol rejection: the whole point of
// the phase types is that this can only happen by explicitly ignoring the
// discharge method's return contract.
type GuardNotDischargedError struct {
	Phase string
}

func (e *GuardNotDischargedError) Error() string {
	return fmt.Sprintf("payjoin: %s guard not discharged before advancing", e.Phase)
}
