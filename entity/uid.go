// Package entity implements the persistent-identity and load/save/remove
// state machine layered on top of dataobject.ModuleDataObject: Uid
// (entity identity), EntityObject (identity + messaging), and Model (the
// full persistence lifecycle).
package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// Kind distinguishes the four flavors of identity this core hands out.
type Kind int

const (
	// KindInvalid is the zero value — never a valid identity.
	KindInvalid Kind = iota
	// KindPersistent identifies a row that exists in the backing store:
	// (entity-code, database-id, integer id).
	KindPersistent
	// KindTemporary identifies a not-yet-saved entity:
	// (entity-code, database-id, random string).
	KindTemporary
	// KindGeneral carries an arbitrary key/data tuple with no backing
	// entity kind at all — used by diagnostics and tests that need a
	// stable identity without a real persisted row.
	KindGeneral
	// KindCoreEntity marks identities reserved for framework-internal
	// bookkeeping, e.g. dispatch.CallbackManager registry keys.
	KindCoreEntity
)

func (k Kind) String() string {
	switch k {
	case KindPersistent:
		return "persistent"
	case KindTemporary:
		return "temporary"
	case KindGeneral:
		return "general"
	case KindCoreEntity:
		return "core-entity"
	default:
		return "invalid"
	}
}

// Uid is the packed identity of one entity instance. The zero value is
// invalid.
type Uid struct {
	kind       Kind
	entityCode string
	databaseID string
	intID      int64
	strID      string
}

// Invalid is the zero-value Uid.
var Invalid Uid

// NewPersistent returns a persistent identity: (entityCode, databaseID, id).
func NewPersistent(entityCode, databaseID string, id int64) Uid {
	return Uid{kind: KindPersistent, entityCode: entityCode, databaseID: databaseID, intID: id}
}

// NewTemporary returns a fresh temporary identity: (entityCode,
// databaseID, random string). Two calls never collide in practice — the
// random component is 16 bytes of crypto/rand hex-encoded.
func NewTemporary(entityCode, databaseID string) Uid {
	return Uid{kind: KindTemporary, entityCode: entityCode, databaseID: databaseID, strID: randomToken()}
}

// NewGeneral returns a general-purpose identity carrying key and data
// with no backing entity kind.
func NewGeneral(key, data string) Uid {
	return Uid{kind: KindGeneral, entityCode: key, strID: data}
}

// NewCoreEntity returns a core-entity identity used for framework-internal
// bookkeeping, e.g. a dispatch.CallbackManager registration key.
func NewCoreEntity(name string) Uid {
	return Uid{kind: KindCoreEntity, entityCode: name}
}

func randomToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Kind reports which of the four identity flavors u is.
func (u Uid) Kind() Kind { return u.kind }

// EntityCode reports the entity kind code (persistent/temporary), or the
// key component (general), or the name (core-entity).
func (u Uid) EntityCode() string { return u.entityCode }

// DatabaseID reports the backing database identifier, meaningful only
// for persistent and temporary identities.
func (u Uid) DatabaseID() string { return u.databaseID }

// IntID reports the integer row id, meaningful only for persistent
// identities.
func (u Uid) IntID() int64 { return u.intID }

// StrID reports the random token (temporary) or data component (general).
func (u Uid) StrID() string { return u.strID }

// IsValid reports whether u is anything other than the zero value.
func (u Uid) IsValid() bool { return u.kind != KindInvalid }

// String renders a human-readable identity, not intended to round-trip.
func (u Uid) String() string {
	switch u.kind {
	case KindPersistent:
		return fmt.Sprintf("%s@%s#%d", u.entityCode, u.databaseID, u.intID)
	case KindTemporary:
		return fmt.Sprintf("%s@%s~%s", u.entityCode, u.databaseID, u.strID)
	case KindGeneral:
		return fmt.Sprintf("general:%s/%s", u.entityCode, u.strID)
	case KindCoreEntity:
		return fmt.Sprintf("core:%s", u.entityCode)
	default:
		return "invalid"
	}
}

// PackedKey returns a cache key combining kind, entity code, database id,
// and row id into a single uint64, suitable as a map key for the
// core-wide identity cache from spec.md §3. The source packs four
// integer-sized fields into one 64-bit word; entityCode/databaseID here
// are strings, so PackedKey folds them through FNV-1a instead of bit
//-shifting, trading exactness for a stable, collision-resistant key over
// arbitrary entity codes.
func (u Uid) PackedKey() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{byte(u.kind)})
	_, _ = h.Write([]byte(u.entityCode))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(u.databaseID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(u.strID))
	_, _ = fmt.Fprintf(h, "%d", u.intID)
	return h.Sum64()
}

// Equal reports whether u and other name the same identity.
func (u Uid) Equal(other Uid) bool {
	return u.kind == other.kind &&
		u.entityCode == other.entityCode &&
		u.databaseID == other.databaseID &&
		u.intID == other.intID &&
		u.strID == other.strID
}
