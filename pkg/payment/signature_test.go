package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierRoundTrip(t *testing.T) {
	v := NewVerifier("key_test", "s3cret")
	sig, err := v.Sign("order_1", "pay_1")
	require.NoError(t, err)

	assert.NoError(t, v.Verify("order_1", "pay_1", sig))
	assert.NoError(t, v.Verify("order_1", "pay_1", strings.ToUpper(sig)))
	assert.ErrorIs(t, v.Verify("order_1", "pay_2", sig), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("order_1", "pay_1", ""), ErrInvalidSignature)
}

func TestVerifierWithoutSecret(t *testing.T) {
	v := NewVerifier("key_test", "")
	_, err := v.Sign("order_1", "pay_1")
	assert.Error(t, err)
}

func TestNewOrderID(t *testing.T) {
	a, b := NewOrderID(), NewOrderID()
	assert.True(t, strings.HasPrefix(a, "order_"))
	assert.Len(t, a, len("order_")+20)
	assert.NotEqual(t, a, b)
}
