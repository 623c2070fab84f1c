package chirashi

import "fmt"

// maskType is a bitmask used to represent a set of component types.
type maskType [maskWords]uint64

// has checks if the mask has a specific component ID.
func (self maskType) has(id ComponentID) bool {
	word := int(id / bitsPerWord)
	if word >= maskWords {
		return false
	}
	bit := id % bitsPerWord
	return (self[word] & (1 << bit)) != 0
}

// setMask adds a component ID to the mask.
func setMask(m maskType, id ComponentID) maskType {
	word := int(id / bitsPerWord)
	if word >= maskWords {
		panic(fmt.Sprintf("component ID %d exceeds maximum (%d)", id, maxComponentTypes))
	}
	bit := id % bitsPerWord
	nm := m
	nm[word] |= (1 << bit)
	return nm
}

// unsetMask removes a component ID from the mask.
func unsetMask(m maskType, id ComponentID) maskType {
	word := int(id / bitsPerWord)
	if word >= maskWords {
		return m
	}
	bit := id % bitsPerWord
	nm := m
	nm[word] &^= (1 << bit)
	return nm
}

// orMask performs a bitwise OR between two masks.
func orMask(m1, m2 maskType) maskType {
	var nm maskType
	for i := 0; i < maskWords; i++ {
		nm[i] = m1[i] | m2[i]
	}
	return nm
}

// makeMask creates a mask from a slice of component IDs.
func makeMask(ids []ComponentID) maskType {
	var m maskType
	for _, id := range ids {
		word := int(id / bitsPerWord)
		bit := id % bitsPerWord
		m[word] |= (1 << bit)
	}
	return m
}

// includesAll checks if a mask contains all the bits of another mask.
func includesAll(m, include maskType) bool {
	for i := 0; i < maskWords; i++ {
		if (m[i] & include[i]) != include[i] {
			return false
		}
	}
	return true
}

// intersects checks if a mask has any bits in common with another mask.
func intersects(m, exclude maskType) bool {
	for i := 0; i < maskWords; i++ {
		if (m[i] & exclude[i]) != 0 {
			return true
		}
	}
	return false
}

// isEmptyMask reports whether no bits are set.
func isEmptyMask(m maskType) bool {
	return m[0]|m[1]|m[2]|m[3] == 0
}

// maskIDs appends the component IDs set in m to dst, in ascending order.
// Ascending ID order is the canonical signature order everywhere in the
// storage layer.
func maskIDs(m maskType, dst []ComponentID) []ComponentID {
	for word := 0; word < maskWords; word++ {
		w := m[word]
		baseID := ComponentID(word * bitsPerWord)
		for bit := uint(0); bit < bitsPerWord; bit++ {
			if (w & (1 << bit)) != 0 {
				dst = append(dst, baseID+ComponentID(bit))
			}
		}
	}
	return dst
}
