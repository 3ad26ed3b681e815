package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		first := Classify(errors.New("boom"), CodeUnknown)
		second := Classify(first, CodeUnknown)

		assert.Same(t, first, second)
		assert.Equal(t, "boom", second.Msg)
		assert.Equal(t, CodeUnknown, second.Code)
	})

	t.Run("Reclassify", func(t *testing.T) {
		cause := errors.New("disk full")
		first := Classify(cause, CodeUnknown)
		second := Classify(first, CodeStorageUnavailable)

		assert.NotSame(t, first, second)
		assert.Equal(t, CodeStorageUnavailable, second.Code)
		assert.Equal(t, "disk full", second.Msg)
		assert.ErrorIs(t, second, cause)
	})

	t.Run("WrappedClassified", func(t *testing.T) {
		inner := New(CodeDomain, "no such entity")
		wrapped := fmt.Errorf("edit: %w", inner)

		assert.Same(t, inner, Classify(wrapped, CodeDomain))
		assert.Equal(t, CodeDomain, CodeOf(wrapped))
	})

	t.Run("String", func(t *testing.T) {
		e := Classify("plain text", CodeSerialization)
		assert.Equal(t, "plain text", e.Msg)
		assert.Nil(t, e.Original)
	})

	t.Run("NilClassified", func(t *testing.T) {
		var typedNil *Error

		e := Classify(typedNil, CodeDomain)
		require.NotNil(t, e)
		assert.Equal(t, CodeDomain, e.Code)
		assert.Equal(t, DefaultMessage, e.Msg)

		wrapped := fmt.Errorf("load: %w", typedNil)
		assert.Equal(t, "load: "+DefaultMessage, Classify(wrapped, CodeUnknown).Msg)
		assert.False(t, Is(wrapped))
		assert.Equal(t, CodeUnknown, CodeOf(wrapped))
		assert.NotPanics(t, func() { Rethrow(wrapped) })
	})

	t.Run("Opaque", func(t *testing.T) {
		e := Classify(42, CodeUnknown)
		assert.Equal(t, DefaultMessage, e.Msg)
		assert.Equal(t, 42, e.Original)
		assert.Nil(t, e.Unwrap())
	})
}

func TestErrorFormat(t *testing.T) {
	e := Newf(CodeStorageUnavailable, "quota %d exceeded", 5)

	assert.Equal(t, "quota 5 exceeded", e.Error())
	assert.Equal(t, "quota 5 exceeded", fmt.Sprintf("%v", e))
	assert.Equal(t, "2", fmt.Sprintf("%d", e))
	assert.Contains(t, fmt.Sprintf("%+v", e), "StorageUnavailable (2)")
	assert.Equal(t, "Code(9)", Code(9).String())
}

func TestIsAndRethrow(t *testing.T) {
	assert.True(t, Is(New(CodeDomain, "x")))
	assert.True(t, Is(fmt.Errorf("wrap: %w", New(CodeDomain, "x"))))
	assert.False(t, Is(errors.New("x")))
	assert.False(t, Is("x"))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("x")))

	assert.NotPanics(t, func() { Rethrow(errors.New("plain")) })

	domain := New(CodeDomain, "escape")
	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Same(t, domain, r)
	}()
	Rethrow(domain)
}
