package crmerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading: %w", crmerr.NotFound("GetCustomer", "customer", 7))

	assert.True(t, errors.Is(err, crmerr.ErrNotFound))
	assert.False(t, errors.Is(err, crmerr.ErrPersistence))
	assert.Equal(t, crmerr.KindNotFound, crmerr.KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := crmerr.Wrap(crmerr.KindNetwork, "PUT /tasks/1", errors.New("connection refused"))
	err := crmerr.Wrap(crmerr.KindPersistence, "TransitionTask", cause)

	assert.Equal(t, crmerr.KindPersistence, crmerr.KindOf(err))
	assert.True(t, errors.Is(err, crmerr.ErrNetwork))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, crmerr.KindUnknown, crmerr.KindOf(errors.New("x")))
	assert.Equal(t, crmerr.KindUnknown, crmerr.KindOf(nil))
}

func TestNotice(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{crmerr.InvalidEnum("status", "Done"), `Invalid value: "Done" is not a valid status`},
		{crmerr.NotFound("op", "task", 3), "Not found: task 3 not found"},
		{crmerr.Wrap(crmerr.KindNetwork, "op", errors.New("dial")), "The server could not be reached. Please try again."},
		{crmerr.New(crmerr.KindUnauthorized, "op", ""), "Your session is no longer valid. Please log in again."},
		{crmerr.Wrap(crmerr.KindPersistence, "op", errors.New("status 500")), "The change was not saved: status 500"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, crmerr.Notice(c.err))
	}
	assert.Empty(t, crmerr.Notice(nil))
}
