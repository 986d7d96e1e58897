package storage

import "fmt"

// Kind identifies the taxonomy of errors the ECS core can raise. Replace
// and Patch report a missing component with plain errors that carry no
// Kind, and CommandBuffer.Flush discards the errors of the operations it
// replays.
type Kind uint8

const (
	// KindNone is the zero value; never returned by a failing operation.
	KindNone Kind = iota
	// KindOutOfEntities is raised when EntityAllocator exhausts the
	// 32-bit index space.
	KindOutOfEntities
	// KindTooManyTypes is raised when the TypeId counter would exceed
	// MaxComponentTypes.
	KindTooManyTypes
	// KindAlreadyPresent is raised by add<T>(e, ...) when has<T>(e).
	KindAlreadyPresent
	// KindNotAlive is raised by mutators invoked on a dead entity.
	KindNotAlive
	// KindOwnershipConflict is raised creating an OwningGroup that would
	// own a component type already owned by another group.
	KindOwnershipConflict
	// KindPolicyMismatch is raised by UseStorage[T] after a store with a
	// different storage policy already exists for T.
	KindPolicyMismatch
	// KindBadMagic is raised by the snapshot loader on header magic
	// mismatch (a footer mismatch is KindBadFooter).
	KindBadMagic
	// KindBadVersion is raised by the snapshot loader on an unsupported
	// wire-format version byte.
	KindBadVersion
	// KindTruncated is raised by the snapshot loader when the stream ends
	// before a well-formed block or footer is read.
	KindTruncated
	// KindBadFooter is raised by the snapshot loader when the footer
	// magic does not match after the component blocks are read.
	KindBadFooter
)

func (k Kind) String() string {
	switch k {
	case KindOutOfEntities:
		return "OutOfEntities"
	case KindTooManyTypes:
		return "TooManyTypes"
	case KindAlreadyPresent:
		return "AlreadyPresent"
	case KindNotAlive:
		return "NotAlive"
	case KindOwnershipConflict:
		return "OwnershipConflict"
	case KindPolicyMismatch:
		return "PolicyMismatch"
	case KindBadMagic:
		return "BadMagic"
	case KindBadVersion:
		return "BadVersion"
	case KindTruncated:
		return "Truncated"
	case KindBadFooter:
		return "BadFooter"
	default:
		return "None"
	}
}

// Error is the concrete error type raised by the core. It carries no hidden
// context beyond the Kind, the offending entity (if any) and a short detail
// string, matching the taxonomy in spec §7.
type Error struct {
	Kind   Kind
	Entity Entity
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is allows errors.Is(err, storage.NewError(KindNotAlive, ...)) style
// comparisons to match on Kind alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// NewError builds an *Error with the given kind and detail message.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// NewEntityError builds an *Error scoped to a specific entity.
func NewEntityError(kind Kind, e Entity, detail string) *Error {
	return &Error{Kind: kind, Entity: e, Detail: detail}
}

// sentinel errors usable with errors.Is for callers that don't need the
// offending entity.
var (
	ErrOutOfEntities     = NewError(KindOutOfEntities, "entity index space exhausted")
	ErrTooManyTypes      = NewError(KindTooManyTypes, "component type count exceeds MaxComponentTypes")
	ErrAlreadyPresent    = NewError(KindAlreadyPresent, "component already present")
	ErrNotAlive          = NewError(KindNotAlive, "entity is not alive")
	ErrOwnershipConflict = NewError(KindOwnershipConflict, "component type already owned by another group")
	ErrPolicyMismatch    = NewError(KindPolicyMismatch, "storage policy mismatch")
	ErrBadMagic          = NewError(KindBadMagic, "bad magic number")
	ErrBadVersion        = NewError(KindBadVersion, "unsupported snapshot version")
	ErrTruncated         = NewError(KindTruncated, "snapshot stream truncated")
	ErrBadFooter         = NewError(KindBadFooter, "snapshot footer mismatch")
)
