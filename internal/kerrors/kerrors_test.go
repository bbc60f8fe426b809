package kerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CarriesCorrelationID(t *testing.T) {
	err := New(KindValidation, "bad url")
	assert.Len(t, err.CorrelationID, 8)
	assert.Contains(t, err.Error(), "bad url")
	assert.Contains(t, err.Error(), err.CorrelationID)
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(kindForTest, "wrapped", cause)
	assert.ErrorIs(t, err, cause)
}

const kindForTest = KindNavigation

func TestIs_MatchesOnKind(t *testing.T) {
	err := New(KindCaptcha, "one")
	sentinel := &Error{Kind: KindCaptcha}
	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, &Error{Kind: KindValidation}))
}

func TestWithCorrelationID_OverridesGenerated(t *testing.T) {
	err := New(KindCacheIO, "x").WithCorrelationID("deadbeef")
	assert.Equal(t, "deadbeef", err.CorrelationID)
	err = err.WithCorrelationID("")
	assert.Equal(t, "deadbeef", err.CorrelationID)
}

func TestWithHint_AppendsOnRetriableLookingFailures(t *testing.T) {
	for _, msg := range []string{
		"navigation failed: status 403",
		"request returned 429",
		"navigation timeout exceeded",
		"access blocked by site",
		"permission denied by upstream",
	} {
		out := WithHint(msg, false, false)
		assert.Contains(t, out, "[HINT:", "message %q should carry a hint", msg)
	}
}

func TestWithHint_SuppressedWhenStealthAlreadyOn(t *testing.T) {
	msg := "navigation failed: status 403"
	assert.Equal(t, msg, WithHint(msg, true, false))
	assert.Equal(t, msg, WithHint(msg, false, true))
}

func TestWithHint_NoTriggerNoHint(t *testing.T) {
	msg := "connection reset by peer"
	assert.Equal(t, msg, WithHint(msg, false, false))
}
