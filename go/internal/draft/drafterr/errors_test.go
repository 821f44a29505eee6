package drafterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindNotYourTurn, "team %s is not on the clock", "abc")
	wrapped := fmt.Errorf("submit pick: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotYourTurn))
	assert.False(t, errors.Is(wrapped, ErrRosterFull))
	assert.Equal(t, KindNotYourTurn, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindPersistence, cause, "save pick %d", 7)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "connection refused")

	bare := &Error{Kind: KindNotYourTurn, Err: cause}
	assert.Equal(t, "NotYourTurn: connection refused", bare.Error())
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		kind Kind
		want Class
	}{
		{KindPlayerAlreadyDrafted, ClassValidation},
		{KindInsufficientBudget, ClassValidation},
		{KindDraftCompleted, ClassTiming},
		{KindFatal, ClassPersistence},
		{KindSlowConsumer, ClassTransport},
		{Kind("nope"), ClassInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.kind))
		})
	}
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnavailable, KindOf(errors.New("boom")))
}
