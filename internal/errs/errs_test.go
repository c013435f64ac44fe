package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, NotFound, CodeOf(New(NotFound, "gone")))
	assert.Equal(t, InvalidArgument, CodeOf(New(InvalidArgument, "bad")))
	assert.Equal(t, Internal, CodeOf(errors.New("plain")))
	assert.Equal(t, Internal, CodeOf(nil))

	// Codes survive wrapping with %w.
	wrapped := fmt.Errorf("outer: %w", New(NotFound, "gone"))
	assert.Equal(t, NotFound, CodeOf(wrapped))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(NotFound, "gone")))
	assert.False(t, IsNotFound(New(Internal, "boom")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "gone", MessageOf(New(NotFound, "gone")))

	// Raw errors must not leak into responses.
	assert.Equal(t, "internal error", MessageOf(errors.New("dial tcp: connection refused")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(Internal, "operation failed", cause)

	assert.Equal(t, "operation failed", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorStringFallbacks(t *testing.T) {
	assert.Equal(t, "boom", (&Error{Code: Internal, Err: errors.New("boom")}).Error())
	assert.Equal(t, string(NotFound), (&Error{Code: NotFound}).Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidArgument))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(PermissionDenied))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(AlreadyExists))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("whatever")))
}
