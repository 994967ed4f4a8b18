package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFormatsWithTwoDigits(t *testing.T) {
	assert.Equal(t, "10.00", MustMoney("10").String())
	assert.Equal(t, "0.30", MustMoney("0.1").Add(MustMoney("0.2")).String())
	assert.Equal(t, "2.35", MustMoney("2.345").String())
	assert.Equal(t, "0.00", Money{}.String())
	assert.Equal(t, "37.50", MustMoney("12.50").Mul(3).String())

	b, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{MustMoney("10")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"10.00"}`, string(b))
}

func TestMoneyUnmarshalAcceptsStringAndNumber(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"19.5"`), &m))
	assert.Equal(t, "19.50", m.String())
	require.NoError(t, json.Unmarshal([]byte(`7`), &m))
	assert.Equal(t, "7.00", m.String())
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}

func TestMoneyScan(t *testing.T) {
	cases := []struct {
		src  any
		want string
	}{
		{"12.30", "12.30"},
		{[]byte("4.5"), "4.50"},
		{int64(10), "10.00"},
		{float64(2.25), "2.25"},
		{nil, "0.00"},
	}
	for _, tc := range cases {
		var m Money
		require.NoError(t, m.Scan(tc.src))
		assert.Equal(t, tc.want, m.String())
	}

	var m Money
	assert.Error(t, m.Scan(true))

	v, err := MustMoney("3").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.00", v)
}

func TestLowStock(t *testing.T) {
	cases := []struct {
		stock, min int
		low        bool
	}{
		{5, 10, true},
		{10, 10, true},
		{11, 10, false},
		{0, 0, true},
	}
	for _, tc := range cases {
		p := Product{StockLevel: tc.stock, MinStockLevel: tc.min}
		assert.Equal(t, tc.low, p.IsLowStock(), "stock=%d min=%d", tc.stock, tc.min)
	}
}

func TestOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, st)
	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)

	assert.True(t, OrderPending.CountsTowardsTotals())
	assert.True(t, OrderCompleted.CountsTowardsTotals())
	assert.False(t, OrderCancelled.CountsTowardsTotals())

	assert.True(t, OrderCompleted.Known())
	assert.False(t, OrderStatus("shipped").Known())
	assert.NotPanics(t, func() {
		assert.False(t, OrderStatus("shipped").CountsTowardsTotals())
		assert.False(t, OrderStatus("").CountsTowardsTotals())
	})
}

func TestDeliveryTransitions(t *testing.T) {
	_, err := ParseDeliveryStatus("lost")
	assert.Error(t, err)

	assert.True(t, DeliveryPending.CanTransitionTo(DeliveryInTransit))
	assert.True(t, DeliveryInTransit.CanTransitionTo(DeliveryReceived))
	assert.True(t, DeliveryPending.CanTransitionTo(DeliveryCancelled))
	assert.True(t, DeliveryReceived.CanTransitionTo(DeliveryReceived))
	assert.False(t, DeliveryReceived.CanTransitionTo(DeliveryPending))
	assert.False(t, DeliveryCancelled.CanTransitionTo(DeliveryReceived))

	lost := DeliveryStatus("lost")
	assert.False(t, lost.Known())
	assert.NotPanics(t, func() {
		assert.True(t, lost.Final())
		assert.False(t, lost.CanTransitionTo(DeliveryReceived))
		assert.True(t, lost.CanTransitionTo(lost))
	})
}

func TestVatRateActiveOn(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	r := VatRate{ValidFrom: from, ValidTo: &to}

	assert.False(t, r.ActiveOn(from.AddDate(0, 0, -1)))
	assert.True(t, r.ActiveOn(from))
	assert.True(t, r.ActiveOn(to))
	assert.False(t, r.ActiveOn(to.AddDate(0, 0, 1)))

	r.ValidTo = nil
	assert.True(t, r.ActiveOn(to.AddDate(5, 0, 0)))
}

func TestOrderItemNet(t *testing.T) {
	item := OrderItem{Quantity: 4, Price: MustMoney("2.50")}
	assert.Equal(t, "10.00", item.Net().String())
	assert.Equal(t, "2024-03", PeriodOf(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
}
