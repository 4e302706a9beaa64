package sender

// Request is the outbound HTTP-shaped payload a sender must transmit to the
// receiver's payjoin endpoint.
type Request struct {
	// URL is the full endpoint URL, including the payjoin query parameters.
	URL string

	// Body is the base64-encoded consensus serialization of the sanitized
	// original PSBT. Callers must send it with Content-Type: text/plain and
	// Content-Length: len(Body).
	Body []byte
}
