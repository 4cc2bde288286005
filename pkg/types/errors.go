package types

import "errors"

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindValidation
	KindState
	KindEncoding
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindEncoding:
		return "encoding"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

var (
	// Authorization
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUnauthorizedGateway   = errors.New("unauthorized gateway")
	ErrUnauthorizedAuthority = errors.New("unauthorized tss authority")
	ErrInvalidSignature      = errors.New("invalid signature")

	// Validation
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidChainId         = errors.New("invalid chain id")
	ErrInvalidAddress         = errors.New("invalid address")
	ErrAssetNotSupported      = errors.New("asset not supported")
	ErrWrongDepositPath       = errors.New("wrong deposit path")
	ErrInsufficientDepositFee = errors.New("insufficient deposit fee")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrAssetAlreadyExists     = errors.New("asset already exists")
	ErrNativeAssetExists      = errors.New("native asset already registered")
	ErrAssetNotFound          = errors.New("asset not found")
	ErrInvalidMessage         = errors.New("invalid message")

	// State
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")
	ErrPaused             = errors.New("bridge is paused")
	ErrStaleDelivery      = errors.New("stale or replayed delivery")

	// Encoding
	ErrInvalidDataFormat = errors.New("invalid data format")
	ErrUnknownAction     = errors.New("unknown action")
	ErrTruncated         = errors.New("truncated message")
	ErrEncoding          = errors.New("encoding error")

	// External
	ErrGatewayCall = errors.New("gateway call failed")
	ErrStore       = errors.New("store write failed")
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUnauthorized, KindAuthorization},
	{ErrUnauthorizedGateway, KindAuthorization},
	{ErrUnauthorizedAuthority, KindAuthorization},
	{ErrInvalidSignature, KindAuthorization},
	{ErrInvalidAmount, KindValidation},
	{ErrInvalidChainId, KindValidation},
	{ErrInvalidAddress, KindValidation},
	{ErrAssetNotSupported, KindValidation},
	{ErrWrongDepositPath, KindValidation},
	{ErrInsufficientDepositFee, KindValidation},
	{ErrInsufficientBalance, KindValidation},
	{ErrAssetAlreadyExists, KindValidation},
	{ErrNativeAssetExists, KindValidation},
	{ErrAssetNotFound, KindValidation},
	{ErrInvalidMessage, KindValidation},
	{ErrAlreadyInitialized, KindState},
	{ErrNotInitialized, KindState},
	{ErrPaused, KindState},
	{ErrStaleDelivery, KindState},
	{ErrInvalidDataFormat, KindEncoding},
	{ErrUnknownAction, KindEncoding},
	{ErrTruncated, KindEncoding},
	{ErrEncoding, KindEncoding},
	{ErrGatewayCall, KindExternal},
	{ErrStore, KindExternal},
}

// KindOf classifies err by the first sentinel it wraps.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindUnknown
}
