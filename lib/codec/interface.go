package codec

import "fmt"

// ICodec converts values to and from their persisted representation.
type ICodec interface {
	// Name returns the configuration name of the codec.
	Name() string
	// Marshal serializes v.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes b into the value pointed to by v.
	Unmarshal(b []byte, v any) error
}

// ByName returns the codec registered under name ("json" or "gob").
func ByName(name string) (ICodec, error) {
	switch name {
	case "json", "":
		return NewJSONCodec(), nil
	case "gob":
		return NewGOBCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", name)
	}
}
