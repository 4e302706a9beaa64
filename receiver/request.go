// Package receiver implements the receiver-side phased intake of a payjoin
// proposal: from raw request bytes through broadcastability, non-ownership,
// and prevout-novelty checks to a proposal ready for counter-construction.
package receiver

import (
	"io"
	"strconv"

	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/dan/payjoin/psbtutil"
)

// maxContentLength is the 4MB block-size ceiling after base64 expansion.
const maxContentLength = 4_000_000 * 4 / 3

// Headers exposes the subset of request headers the intake parser needs.
// A *http.Header from net/http satisfies this via textproto canonicalization
// of the same two keys.
type Headers interface {
	Get(key string) string
}

// FromRequest parses and decodes an inbound payjoin request body into a
// Validated phase value. The content-type header must be text/plain; the
// content-length header must parse as a non-negative integer not exceeding
// the block-size ceiling; the body is read through a reader capped at that
// length before base64 and PSBT decoding.
func FromRequest(body io.Reader, headers Headers) (*Validated, error) {
	contentType := headers.Get("Content-Type")
	if contentType == "" {
		return nil, newRequestError(MissingHeader, nil)
	}
	if contentType != "text/plain" {
		return nil, newRequestError(InvalidContentType, nil)
	}

	contentLengthHeader := headers.Get("Content-Length")
	if contentLengthHeader == "" {
		return nil, newRequestError(MissingHeader, nil)
	}
	contentLength, err := strconv.ParseUint(contentLengthHeader, 10, 64)
	if err != nil {
		return nil, newRequestError(InvalidContentLength, err)
	}
	if contentLength > maxContentLength {
		return nil, newRequestError(ContentLengthTooLarge, nil)
	}

	limited := io.LimitReader(body, int64(contentLength))
	decoded, err := psbt.NewFromRawBytes(limited, true)
	if err != nil {
		return nil, newRequestError(Decode, err)
	}

	view, err := psbtutil.NewView(decoded)
	if err != nil {
		return nil, newRequestError(Decode, err)
	}

	return &Validated{packet: decoded, view: view}, nil
}
