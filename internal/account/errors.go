package account

import (
	"errors"

	"github.com/steveyegge/luckywheel/internal/role"
)

var (
	// ErrValidation indicates malformed input such as an empty or too-short field.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateUsername indicates the username is taken, ignoring case.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrDuplicateEmail indicates the email is taken, ignoring case.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrEmailInUse indicates a social login for an email owned by a password account.
	ErrEmailInUse = errors.New("email already used by another account")

	// ErrInvalidCredentials indicates a failed login. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrForbidden indicates a mutation of the root admin or a caller without admin rights.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the named account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientBalance indicates a spin with nothing left to spend.
	ErrInsufficientBalance = errors.New("no spins left")

	// ErrNoSession indicates an operation that needs a logged-in account.
	ErrNoSession = errors.New("not logged in")
)

// Stable error codes for machine-readable output.
const (
	CodeOK                  = "OK"
	CodeValidation          = "VALIDATION_ERROR"
	CodeDuplicateUsername   = "DUPLICATE_USERNAME"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeEmailInUse          = "EMAIL_IN_USE"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNoSession           = "NO_SESSION"
	CodeInternal            = "INTERNAL_ERROR"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrValidation, CodeValidation},
	{role.ErrUnknownRole, CodeValidation},
	{ErrDuplicateUsername, CodeDuplicateUsername},
	{ErrDuplicateEmail, CodeDuplicateEmail},
	{ErrEmailInUse, CodeEmailInUse},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrForbidden, CodeForbidden},
	{ErrNotFound, CodeNotFound},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrNoSession, CodeNoSession},
}

// Code maps err to a stable code. Unrecognised errors are CodeInternal.
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// Result is the outcome of an account operation as shown to a caller.
type Result struct {
	Success   bool        `json:"success"`
	Code      string      `json:"code"`
	Message   string      `json:"message,omitempty"`
	User      *PublicUser `json:"user,omitempty"`
	Returning bool        `json:"returning,omitempty"`
}

// ResultOf builds a Result from an operation's return values.
func ResultOf(u *UserRecord, returning bool, err error) Result {
	if err != nil {
		return Result{Code: Code(err), Message: err.Error()}
	}
	res := Result{Success: true, Code: CodeOK, Returning: returning}
	if u != nil {
		pub := u.Public()
		res.User = &pub
	}
	return res
}
