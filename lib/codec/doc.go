// Package codec provides the serializers turning values into the persisted
// representation stored in a medium.
//
// Available Implementations:
//
//   - JSON (NewJSONCodec): the default. Persisted values stay readable by
//     other programs sharing the medium. Only values surviving a JSON round
//     trip are restored unchanged (e.g. untyped numbers come back as float64).
//
//   - GOB (NewGOBCodec): Go's binary format. Faster for large typed values,
//     but only readable by Go programs using the same types.
//
// The reactive layer compares representations to decide whether an external
// change is new, so equal values should encode equally. JSON sorts map keys;
// gob does not, so values containing maps should use JSON.
package codec
