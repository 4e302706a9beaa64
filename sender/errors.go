package sender

import "fmt"

// CreateRequestError is the error family returned while building a Request
// and Context from an original PSBT and a parsed payjoin URI.
type CreateRequestError struct {
	Kind CreateRequestErrorKind
	Err  error
}

func (e *CreateRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payjoin: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("payjoin: %s", e.Kind)
}

func (e *CreateRequestError) Unwrap() error { return e.Err }

// CreateRequestErrorKind enumerates the creation-time failure kinds.
type CreateRequestErrorKind string

const (
	InvalidOriginalInput                   CreateRequestErrorKind = "invalid original input"
	NoInputs                               CreateRequestErrorKind = "no inputs"
	NoOutputs                              CreateRequestErrorKind = "no outputs"
	MissingPayeeOutput                     CreateRequestErrorKind = "missing payee output"
	PayeeValueNotEqual                     CreateRequestErrorKind = "payee value not equal to URI amount"
	MultiplePayeeOutputs                   CreateRequestErrorKind = "multiple payee outputs"
	AmbiguousChangeOutput                  CreateRequestErrorKind = "ambiguous change output"
	ChangeIndexOutOfBounds                 CreateRequestErrorKind = "change index out of bounds"
	ChangeIndexPointsAtPayee               CreateRequestErrorKind = "change index points at payee"
	FeeOutputValueLowerThanFeeContribution CreateRequestErrorKind = "fee output value lower than fee contribution"
)

func newCreateRequestError(kind CreateRequestErrorKind, err error) *CreateRequestError {
	return &CreateRequestError{Kind: kind, Err: err}
}

// ValidationErrorKind enumerates the process_response failure kinds.
type ValidationErrorKind string

const (
	Decode                                ValidationErrorKind = "decode"
	InvalidProposedInput                  ValidationErrorKind = "invalid proposed input"
	VersionsDontMatch                     ValidationErrorKind = "versions don't match"
	LockTimesDontMatch                    ValidationErrorKind = "lock times don't match"
	SenderTxinSequenceChanged             ValidationErrorKind = "sender txin sequence changed"
	SenderTxinContainsNonWitnessUtxo      ValidationErrorKind = "sender txin contains non-witness utxo"
	SenderTxinContainsWitnessUtxo         ValidationErrorKind = "sender txin contains witness utxo"
	SenderTxinContainsFinalScriptSig      ValidationErrorKind = "sender txin contains final scriptSig"
	SenderTxinContainsFinalScriptWitness  ValidationErrorKind = "sender txin contains final script witness"
	TxInContainsKeyPaths                  ValidationErrorKind = "txin contains key paths"
	ContainsPartialSigs                   ValidationErrorKind = "txin contains partial sigs"
	ReceiverTxinMissingUtxoInfo           ValidationErrorKind = "receiver txin missing utxo info"
	MixedSequence                         ValidationErrorKind = "mixed sequence"
	MixedInputTypes                       ValidationErrorKind = "mixed input types"
	MissingOrShuffledInputs               ValidationErrorKind = "missing or shuffled inputs"
	TxOutContainsKeyPaths                 ValidationErrorKind = "txout contains key paths"
	DisallowedOutputSubstitution          ValidationErrorKind = "disallowed output substitution"
	OutputValueDecreased                  ValidationErrorKind = "output value decreased"
	MissingOrShuffledOutputs              ValidationErrorKind = "missing or shuffled outputs"
	Inflation                             ValidationErrorKind = "inflation"
	AbsoluteFeeDecreased                  ValidationErrorKind = "absolute fee decreased"
	PayeeTookContributedFee               ValidationErrorKind = "payee took contributed fee"
	FeeContributionExceedsMaximum         ValidationErrorKind = "fee contribution exceeds maximum"
	FeeContributionPaysOutputSizeIncrease ValidationErrorKind = "fee contribution pays output size increase"
)

// ValidationError is the error family returned from Context.ProcessResponse.
type ValidationError struct {
	Kind     ValidationErrorKind
	Err      error
	Proposed interface{}
	Original interface{}
}

func (e *ValidationError) Error() string {
	if e.Proposed != nil || e.Original != nil {
		return fmt.Sprintf("payjoin: %s: proposed=%v original=%v", e.Kind, e.Proposed, e.Original)
	}
	if e.Err != nil {
		return fmt.Sprintf("payjoin: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("payjoin: %s", e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(kind ValidationErrorKind) *ValidationError {
	return &ValidationError{Kind: kind}
}

func newValidationErrorWithCause(kind ValidationErrorKind, err error) *ValidationError {
	return &ValidationError{Kind: kind, Err: err}
}

func newMismatchError(kind ValidationErrorKind, proposed, original interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Proposed: proposed, Original: original}
}
