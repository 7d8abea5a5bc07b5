package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemRequest_Validate(t *testing.T) {
	d := decimal.RequireFromString
	r := &RedeemRequest{Total: d("100"), Paid: d("20"), Hold: d("30"), Available: d("50")}
	assert.True(t, r.Balanced())
	assert.NoError(t, r.Validate())

	r.Hold = d("31")
	assert.False(t, r.Balanced())
	assert.ErrorIs(t, r.Validate(), ErrUnbalancedRedeem)

	neg := &RedeemRequest{Total: d("10"), Paid: d("0"), Hold: d("20"), Available: d("-10")}
	assert.True(t, neg.Balanced())
	assert.ErrorIs(t, neg.Validate(), ErrUnbalancedRedeem)
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"a.png", "b.png"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a.png","b.png"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["x"]`)))
	assert.Equal(t, StringList{"x"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
	assert.Error(t, l.Scan(42))
}
