// Package errors provides structured application errors for the moneybook API.
// Service-layer failures are expressed as AppError values so handlers can
// produce consistent responses without leaking internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrGroupAuth          = &AppError{Code: "GROUP_AUTH", Message: "Caller lacks the required role in this group", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrItemNotFound   = &AppError{Code: "ITEM_NOT_FOUND", Message: "Item not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
	ErrWrongPassword     = &AppError{Code: "WRONG_PASSWORD", Message: "Current password is incorrect", StatusCode: http.StatusBadRequest}
)

// Group & membership errors.
var (
	ErrGroupMaxCount       = &AppError{Code: "GROUP_MAX_COUNT", Message: "Maximum number of owned groups reached", StatusCode: http.StatusConflict}
	ErrGroupDeleteActive   = &AppError{Code: "GROUP_DELETE_ACTIVE", Message: "Cannot delete the currently active group", StatusCode: http.StatusConflict}
	ErrGroupDeleteLast     = &AppError{Code: "GROUP_DELETE_LAST", Message: "Cannot delete the last owned group", StatusCode: http.StatusConflict}
	ErrGroupDeleteHasFlows = &AppError{Code: "GROUP_DELETE_HAS_FLOWS", Message: "Group has books with recorded flows", StatusCode: http.StatusConflict}
	ErrInviteUserMissing   = &AppError{Code: "INVITE_USER_MISSING", Message: "Invited user does not exist", StatusCode: http.StatusNotFound}
	ErrInviteExists        = &AppError{Code: "INVITE_EXISTS", Message: "User already has a role in this group", StatusCode: http.StatusConflict}
	ErrRemoveOwner         = &AppError{Code: "REMOVE_OWNER", Message: "The group owner cannot be removed", StatusCode: http.StatusConflict}
	ErrNoOwnedGroup        = &AppError{Code: "NO_OWNED_GROUP", Message: "User owns no group to fall back to", StatusCode: http.StatusConflict}
)

// Book, account and classification errors.
var (
	ErrBookHasFlows      = &AppError{Code: "BOOK_HAS_FLOWS", Message: "Book has recorded flows", StatusCode: http.StatusConflict}
	ErrBookIsDefault     = &AppError{Code: "BOOK_IS_DEFAULT", Message: "Cannot delete the group's default book", StatusCode: http.StatusConflict}
	ErrBookNotInGroup    = &AppError{Code: "BOOK_NOT_IN_GROUP", Message: "Book does not belong to this group", StatusCode: http.StatusBadRequest}
	ErrBookDisabled      = &AppError{Code: "BOOK_DISABLED", Message: "Book is disabled", StatusCode: http.StatusBadRequest}
	ErrAccountNotInBook  = &AppError{Code: "ACCOUNT_NOT_IN_BOOK", Message: "Account does not belong to this book", StatusCode: http.StatusBadRequest}
	ErrAccountHasFlows   = &AppError{Code: "ACCOUNT_HAS_FLOWS", Message: "Account has recorded flows", StatusCode: http.StatusConflict}
	ErrCurrencyUnknown   = &AppError{Code: "CURRENCY_UNKNOWN", Message: "Unknown currency code", StatusCode: http.StatusBadRequest}
	ErrTemplateNotFound  = &AppError{Code: "TEMPLATE_NOT_FOUND", Message: "Book template not found", StatusCode: http.StatusNotFound}
	ErrEntityHasChildren = &AppError{Code: "ENTITY_HAS_CHILDREN", Message: "Entity has child entries", StatusCode: http.StatusConflict}
	ErrEntityInUse       = &AppError{Code: "ENTITY_IN_USE", Message: "Entity is referenced by recorded flows", StatusCode: http.StatusConflict}
	ErrSelfParent        = &AppError{Code: "SELF_PARENT", Message: "An entity cannot be its own parent", StatusCode: http.StatusBadRequest}
)

// Balance flow errors.
var (
	ErrFlowSameAccount    = &AppError{Code: "FLOW_SAME_ACCOUNT", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrFlowNoCategories   = &AppError{Code: "FLOW_NO_CATEGORIES", Message: "Expense and income flows need at least one category", StatusCode: http.StatusBadRequest}
	ErrFlowAlreadyConfirm = &AppError{Code: "FLOW_ALREADY_CONFIRMED", Message: "Flow is already confirmed", StatusCode: http.StatusConflict}
	ErrAccountDisabled    = &AppError{Code: "ACCOUNT_DISABLED", Message: "Account is disabled for this operation", StatusCode: http.StatusBadRequest}
)

// Note day errors.
var (
	ErrNoteDayFinished = &AppError{Code: "NOTE_DAY_FINISHED", Message: "Note day has no further runs", StatusCode: http.StatusConflict}
)
