// Package bip21 parses the narrow BIP21 URI surface the payjoin sender
// builder consumes: an address, an amount, a payjoin endpoint, and an
// optional output-substitution flag.
package bip21

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

const scheme = "bitcoin:"

// URI is a parsed "bitcoin:<address>?amount=...&pj=...[&pjos=0|1]" URI.
type URI struct {
	Address                   btcutil.Address
	Amount                    btcutil.Amount
	Endpoint                  string
	DisableOutputSubstitution bool
}

// DuplicateKeyError is returned when a query key appears more than once.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("bip21: duplicate key %q", e.Key)
}

// BadSchemeError is returned when the URI does not start with "bitcoin:" or
// a pj= value does not start with http:// or https://.
type BadSchemeError struct {
	Value string
}

func (e *BadSchemeError) Error() string {
	return fmt.Sprintf("bip21: bad scheme in %q", e.Value)
}

// PjNotPresentError is returned when the URI carries neither a pj= endpoint
// nor a pjos= flag: it is a plain BIP21 URI, not a payjoin one.
type PjNotPresentError struct{}

func (e *PjNotPresentError) Error() string { return "bip21: no pj parameter present" }

// MissingAmountError is returned when pj= is present without amount=.
type MissingAmountError struct{}

func (e *MissingAmountError) Error() string { return "bip21: pj present without amount" }

// MissingEndpointError is returned when amount= and pjos= are present
// without pj=.
type MissingEndpointError struct{}

func (e *MissingEndpointError) Error() string { return "bip21: amount/pjos present without pj" }

// ParseURI parses a BIP21 payjoin URI. The scheme component is
// case-insensitive per BIP21; the query string is case-sensitive.
func ParseURI(s string, params *chaincfg.Params) (*URI, error) {
	if len(s) < len(scheme) || !strings.EqualFold(s[:len(scheme)], scheme) {
		return nil, &BadSchemeError{Value: s}
	}
	rest := s[len(scheme):]

	qPos := strings.IndexByte(rest, '?')
	if qPos < 0 {
		return nil, &PjNotPresentError{}
	}

	addr, err := btcutil.DecodeAddress(rest[:qPos], params)
	if err != nil {
		return nil, fmt.Errorf("bip21: invalid address: %w", err)
	}

	var amount *btcutil.Amount
	var endpoint *string
	var pjos *bool

	for _, kv := range strings.Split(rest[qPos+1:], "&") {
		switch {
		case strings.HasPrefix(kv, "amount="):
			if amount != nil {
				return nil, &DuplicateKeyError{Key: "amount"}
			}
			f, err := strconv.ParseFloat(kv[len("amount="):], 64)
			if err != nil {
				return nil, fmt.Errorf("bip21: invalid amount: %w", err)
			}
			amt, err := btcutil.NewAmount(f)
			if err != nil {
				return nil, fmt.Errorf("bip21: invalid amount: %w", err)
			}
			amount = &amt

		case strings.HasPrefix(kv, "pjos="):
			if pjos != nil {
				return nil, &DuplicateKeyError{Key: "pjos"}
			}
			var disabled bool
			switch kv[len("pjos="):] {
			case "0":
				disabled = true
			case "1":
				disabled = false
			default:
				return nil, &BadSchemeError{Value: kv}
			}
			pjos = &disabled

		case strings.HasPrefix(kv, "pj="):
			if endpoint != nil {
				return nil, &DuplicateKeyError{Key: "pj"}
			}
			value := kv[len("pj="):]
			if !strings.HasPrefix(value, "https://") && !strings.HasPrefix(value, "http://") {
				return nil, &BadSchemeError{Value: value}
			}
			endpoint = &value
		}
	}

	switch {
	case endpoint == nil && pjos == nil:
		return nil, &PjNotPresentError{}
	case amount != nil && endpoint != nil:
		disabled := false
		if pjos != nil {
			disabled = *pjos
		}
		return &URI{
			Address:                   addr,
			Amount:                    *amount,
			Endpoint:                  *endpoint,
			DisableOutputSubstitution: disabled,
		}, nil
	case amount == nil && endpoint != nil:
		return nil, &MissingAmountError{}
	case endpoint == nil:
		return nil, &MissingEndpointError{}
	default:
		return nil, &MissingEndpointError{}
	}
}
