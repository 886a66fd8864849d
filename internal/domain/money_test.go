package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaridge/duespay/internal/domain"
)

func TestMoneyArithmetic(t *testing.T) {
	assert.Equal(t, domain.Money(150), domain.Money(100).Add(50))
	assert.Equal(t, domain.Money(-50), domain.Money(100).Sub(150))
	assert.Equal(t, domain.Money(3), domain.MinMoney(3, 7))
	assert.Equal(t, domain.Money(3), domain.MinMoney(7, 3))

	assert.True(t, domain.Money(-1).IsNegative())
	assert.True(t, domain.Money(1).IsPositive())
	assert.True(t, domain.Money(0).IsZero())
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "46.00", domain.Money(4600).String())
	assert.Equal(t, "0.05", domain.Money(5).String())
	assert.Equal(t, "-12.50", domain.Money(-1250).String())
}

func TestMoneyFromDecimal(t *testing.T) {
	m, err := domain.MoneyFromDecimal(decimal.RequireFromString("46.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.Money(4600), m)

	m, err = domain.MoneyFromDecimal(decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	assert.Equal(t, domain.Money(1), m)

	// Fractional minor units are rejected, never rounded.
	_, err = domain.MoneyFromDecimal(decimal.RequireFromString("46.005"))
	require.ErrorIs(t, err, domain.ErrFractionalAmount)
}
