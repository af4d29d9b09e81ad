package subsystem

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// MaxNamespaces is the fixed capacity of the subsystem's namespace
// collection.
const MaxNamespaces = 4

// NamespaceID identifies a namespace. 0 is reserved and never assigned.
type NamespaceID uint32

// BroadcastNamespaceID is the reserved NSID (0xFFFFFFFF) meaning "every
// namespace" on commands that accept it. Identify Namespace (CNS 0x00)
// answers it with an Internal Error completion, and the Namespace
// Identification Descriptor list (CNS 0x03) rejects it with Invalid Field.
const BroadcastNamespaceID NamespaceID = math.MaxUint32

// BlockOrder is the log2 of the LBA size in bytes (9 => 512B, 12 => 4096B).
type BlockOrder uint8

// NamespaceIDDescriptorType identifies the kind of value carried by a
// namespace identifier descriptor (Identify CNS 0x03).
type NamespaceIDDescriptorType uint8

const (
	NidtUUID NamespaceIDDescriptorType = 0x03
	NidtCSI  NamespaceIDDescriptorType = 0x04
)

// NamespaceIDDescriptor is one tagged entry of a namespace's
// identifier descriptor list, wire-encoded as
// [nidt:8][nidl:8][reserved:16][value...].
type NamespaceIDDescriptor struct {
	Type  NamespaceIDDescriptorType
	Value []byte
}

// Namespace is an allocated block-addressable namespace.
type Namespace struct {
	ID         NamespaceID
	Size       uint64 // in logical blocks
	Capacity   uint64 // in logical blocks
	Used       uint64 // in logical blocks
	BlockOrder BlockOrder
	UUID       [16]byte
	// Nids holds this namespace's identifier descriptor list: a
	// UUID descriptor and a command-set-identifier descriptor
	// (NVM command set, CSI=0x00), backing Identify CNS 0x03.
	Nids [2]NamespaceIDDescriptor
}

// NewNamespace builds a namespace with size == capacity and zero
// utilization, deriving its UUID deterministically from the subsystem's
// instance seed and the namespace identifier.
func NewNamespace(id NamespaceID, size uint64, order BlockOrder, seed [16]byte) Namespace {
	uid := DeriveNamespaceUUID(seed, id)
	return Namespace{
		ID:         id,
		Size:       size,
		Capacity:   size,
		BlockOrder: order,
		UUID:       uid,
		Nids: [2]NamespaceIDDescriptor{
			{Type: NidtUUID, Value: append([]byte(nil), uid[:]...)},
			{Type: NidtCSI, Value: []byte{0x00}},
		},
	}
}

// DeriveNamespaceUUID computes a namespace's UUID as the leading 16
// bytes of HMAC-SHA256(seed, nsid) with the version and variant bits set
// as for a random (version 4) UUID, so identical (seed, nsid) inputs
// yield the same UUID across restarts.
func DeriveNamespaceUUID(seed [16]byte, nsid NamespaceID) [16]byte {
	mac := hmac.New(sha256.New, seed[:])
	var nsidBytes [4]byte
	binary.BigEndian.PutUint32(nsidBytes[:], uint32(nsid))
	mac.Write(nsidBytes[:])
	sum := mac.Sum(nil)

	var id16 [16]byte
	copy(id16[:], sum[:16])
	id16[6] = id16[6]&0x0f | 0x40 // version 4
	id16[8] = id16[8]&0x3f | 0x80 // RFC 4122 variant
	return id16
}

// String renders a namespace's UUID in its canonical hyphenated form
// for logging, via google/uuid rather than hand-rolled hex formatting.
func (n Namespace) String() string {
	return uuid.UUID(n.UUID).String()
}
