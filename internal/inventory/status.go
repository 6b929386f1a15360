package inventory

import (
	"errors"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Status is the load state of the list.
type Status int

// Status values. Empty is the initial state; any state moves to Error on a
// failed store call and back to Loading on retry.
const (
	StatusEmpty Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type op int

const (
	opFetch op = iota
	opAdd
	opEdit
	opRemove
	opImport
	opValidate
)

func (o op) String() string {
	return [...]string{"fetch", "add", "edit", "remove", "import", "validate"}[o]
}

// User-visible messages.
const (
	MsgOffline      = "Client is offline. Please check your internet connection."
	MsgFetchFailed  = "Failed to fetch inventory. Please try again later."
	MsgAddFailed    = "Failed to add item. Please try again later."
	MsgEditFailed   = "Failed to update item. Please try again later."
	MsgRemoveFailed = "Failed to remove item. Please try again later."
	MsgImportFailed = "Failed to import items. Please try again later."
)

// messageFor converts an operation failure into the message shown to the
// user.
func messageFor(o op, err error) string {
	if errors.Is(err, types.ErrOffline) {
		return MsgOffline
	}
	if types.IsValidation(err) {
		msg := strings.TrimPrefix(err.Error(), types.ErrValidation.Error()+": ")
		return "Invalid item: " + msg + "."
	}
	switch o {
	case opAdd:
		return MsgAddFailed
	case opEdit:
		return MsgEditFailed
	case opRemove:
		return MsgRemoveFailed
	case opImport:
		return MsgImportFailed
	default:
		return MsgFetchFailed
	}
}
