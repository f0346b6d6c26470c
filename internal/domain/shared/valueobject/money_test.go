package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyPHPFromFloat(1500.50)
	b := NewMoneyPHPFromFloat(499.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(2000)))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(1001)))

	tripled := b.Multiply(decimal.NewFromInt(3))
	assert.True(t, tripled.Amount().Equal(decimal.NewFromFloat(1498.50)))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	php := NewMoneyPHPFromFloat(100)
	usd, err := NewMoneyFromFloat(100, "USD")
	require.NoError(t, err)

	_, err = php.Add(usd)
	assert.Error(t, err)

	_, err = php.Subtract(usd)
	assert.Error(t, err)
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyPHPFromFloat(4500.75)

	data, err := m.MarshalJSON()
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Zero(t *testing.T) {
	z := ZeroPHP()
	assert.True(t, z.IsZero())
	assert.False(t, z.IsPositive())
	assert.Equal(t, PHP, z.Currency())
}
