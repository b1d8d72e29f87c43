package collectible

import "errors"

var (
	ErrUnauthorized        = errors.New("collectible: unauthorized")
	ErrPaused              = errors.New("collectible: contract paused")
	ErrNotPaused           = errors.New("collectible: contract not paused")
	ErrInsufficientPayment = errors.New("collectible: insufficient payment")
	ErrSelfDonation        = errors.New("collectible: self donation")
	ErrAlreadyExists       = errors.New("collectible: already exists")
	ErrNotFound            = errors.New("collectible: not found")
	ErrClosed              = errors.New("collectible: raffle closed")
	ErrInsufficientBalance = errors.New("collectible: insufficient balance")
	ErrInsufficientFunds   = errors.New("collectible: insufficient funds")
	ErrArithmeticOverflow  = errors.New("collectible: arithmetic overflow")
	ErrInvalidAmount       = errors.New("collectible: invalid amount")
	ErrInvalidTerms        = errors.New("collectible: invalid terms")
	ErrInvalidAccount      = errors.New("collectible: invalid account")
)

var reasons = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrPaused, "paused"},
	{ErrNotPaused, "not_paused"},
	{ErrInsufficientPayment, "insufficient_payment"},
	{ErrSelfDonation, "self_donation"},
	{ErrAlreadyExists, "already_exists"},
	{ErrNotFound, "not_found"},
	{ErrClosed, "closed"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrArithmeticOverflow, "arithmetic_overflow"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidTerms, "invalid_terms"},
	{ErrInvalidAccount, "invalid_account"},
}

// Reason returns the stable reason code of err, "internal" for failures
// outside the engine taxonomy and "" for nil.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "internal"
}
