package domain

import "errors"

var (
	ErrNotFound      = errors.New("listing not found")
	ErrImageNotFound = errors.New("listing image not found")
	ErrForbidden     = errors.New("user not authorized to perform this action")
	ErrListingClosed = errors.New("listing is closed")

	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrEmptyOwner    = errors.New("owner id must not be empty")
	ErrInvalidType   = errors.New("listing type must be buy or sell")
	ErrInvalidStatus = errors.New("unknown listing status")
	ErrNotAnImage    = errors.New("attachment is not a supported image")
)
