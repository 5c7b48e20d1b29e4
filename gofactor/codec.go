package gofactor

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// AppendLSM appends a canonical binary encoding of fz to out, returning it as
// a FactorizationLSM: an alternating uvarint sequence of primes and powers.
func (fz Factorization) AppendLSM(out []byte) FactorizationLSM {
	var scrap [binary.MaxVarintLen64]byte

	for _, Fi := range fz {
		n := binary.PutUvarint(scrap[:], Fi.Prime)
		out = append(out, scrap[:n]...)
		n = binary.PutUvarint(scrap[:], uint64(Fi.Power))
		out = append(out, scrap[:n]...)
	}

	return out
}

// InitFromLSM assigns this Factorization from a binary encoding made from AppendLSM()
func (fz *Factorization) InitFromLSM(lsm FactorizationLSM) error {
	out := (*fz)[:0]

	for pos := 0; pos < len(lsm); {
		prime, n := binary.Uvarint(lsm[pos:])
		if n <= 0 {
			return ErrUnmarshal
		}
		pos += n

		power, n := binary.Uvarint(lsm[pos:])
		if n <= 0 || power == 0 || power > math.MaxUint32 {
			return ErrUnmarshal
		}
		pos += n

		out = append(out, PrimePower{
			Prime: prime,
			Power: uint32(power),
		})
	}

	*fz = out
	return nil
}

// EntryKeySz is the byte length of a catalog entry key.
const EntryKeySz = 9

// AppendEntryKey appends the catalog key for n: its bit length followed by
// the value in big-endian order, so keys sort by width class then by value.
func AppendEntryKey(key []byte, n uint64) []byte {
	return append(key,
		byte(bits.Len64(n)), // MSB is the bit-length class
		byte(n>>56),
		byte(n>>48),
		byte(n>>40),
		byte(n>>32),
		byte(n>>24),
		byte(n>>16),
		byte(n>>8),
		byte(n),
	)
}

// ReadEntryKey decodes a key made by AppendEntryKey.
func ReadEntryKey(key []byte) (uint64, error) {
	if len(key) < EntryKeySz {
		return 0, ErrUnmarshal
	}
	n := (uint64(key[1]) << 56) |
		(uint64(key[2]) << 48) |
		(uint64(key[3]) << 40) |
		(uint64(key[4]) << 32) |
		(uint64(key[5]) << 24) |
		(uint64(key[6]) << 16) |
		(uint64(key[7]) << 8) |
		(uint64(key[8]))
	if byte(bits.Len64(n)) != key[0] {
		return 0, ErrUnmarshal
	}
	return n, nil
}
