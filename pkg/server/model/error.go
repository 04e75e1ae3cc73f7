package model

import (
	"github.com/pkg/errors"
)

// KV errors
var (
	// ErrKVTxnFailed is returned when etcd transaction failed.
	ErrKVTxnFailed = errors.New("etcd transaction failed")
	// ErrKVTooManyTxnOps is returned when the number of operations in a transaction exceeds the limit.
	ErrKVTooManyTxnOps = errors.New("too many txn operations")
	// ErrKVCompacted is returned when the requested revision has been compacted.
	ErrKVCompacted = errors.New("requested revision has been compacted")
	// ErrKVDataModified is returned when the data has been modified when doing transaction.
	ErrKVDataModified = errors.New("data has been modified")
)

// ID allocation errors
var (
	// ErrIDCollision is returned when the allocated id is already taken by another record.
	ErrIDCollision = errors.New("id collision")
	// ErrInvalidCounter is returned when the persisted counter cannot be decoded.
	ErrInvalidCounter = errors.New("invalid id counter")
)

// Request errors
var (
	// ErrInvalidArgument is returned when a required field is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated is returned when the caller has no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCode is returned when a verification code is missing, expired, already used or wrong.
	ErrInvalidCode = errors.New("invalid or expired code")
)

// Resource errors
var (
	// ErrDiscountNotFound is returned when the discount is not found.
	ErrDiscountNotFound = errors.New("discount not found")
	// ErrDiscountInUse is returned when deleting a discount referenced by bookings.
	ErrDiscountInUse = errors.New("discount has associated bookings")

	// ErrIssueNotFound is returned when the issue is not found.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrRoomTypeNotFound is returned when the room type is not found.
	ErrRoomTypeNotFound = errors.New("room type not found")

	// ErrHotelNotFound is returned when the hotel is not found.
	ErrHotelNotFound = errors.New("hotel not found")
	// ErrHotelInUse is returned when deleting a hotel referenced by room types.
	ErrHotelInUse = errors.New("hotel has associated room types")

	// ErrUserNotFound is returned when the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists is returned when the email is used by another account.
	ErrEmailAlreadyExists = errors.New("email already in use")
)
