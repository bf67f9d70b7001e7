package resource

import (
	"time"

	"gitlab.com/tozd/go/errors"
)

// ChangeKind classifies how a resource differs from the previously
// published state.
type ChangeKind string

const (
	ChangeNone    ChangeKind = ""
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// String returns the wire name of the change kind.
func (c ChangeKind) String() string {
	return string(c)
}

// ParseChangeKind converts a wire name into a ChangeKind. The empty
// string maps to ChangeNone.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch ChangeKind(s) {
	case ChangeNone, ChangeCreated, ChangeUpdated, ChangeDeleted:
		return ChangeKind(s), nil
	}
	return ChangeNone, errors.Errorf("unknown change kind: %q", s)
}

// Resource describes one published file. Identity is the URI: within a
// document and within one reconstructed state snapshot URIs are unique.
type Resource struct {
	URI          string
	Length       int64
	LastModified time.Time
	MD5          string
	MimeType     string

	// Change and ChangeTime are set on changelist entries only.
	Change     ChangeKind
	ChangeTime time.Time

	// At, Completed, From and Until describe the validity window of an
	// index member: snapshot members carry At/Completed, change log
	// members carry From/Until.
	At        time.Time
	Completed time.Time
	From      time.Time
	Until     time.Time

	// Capability names the document kind an entry points at. Used on
	// capabilitylist and description entries only.
	Capability string
}
