package collection

import (
	"fmt"
	"maps"
)

// IDField is the identity field of a Record.
const IDField = "id"

// Record is a schemaless entity. Its identity is the string form of its
// "id" field, so the numeric id 1 and the string id "1" are the same.
type Record map[string]any

func (r Record) EntityID() string {
	id, ok := r[IDField]
	if !ok || id == nil {
		return ""
	}
	return fmt.Sprint(id)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Sizer is anything with a length, e.g. a Store.
type Sizer interface {
	Len() int
}

// HasAny reports whether at least one of the collections is not empty.
func HasAny(collections ...Sizer) bool {
	for _, c := range collections {
		if c.Len() > 0 {
			return true
		}
	}
	return false
}
