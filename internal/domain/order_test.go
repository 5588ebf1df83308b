package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Phone:     "+233200000000",
		Street:    "1 Ring Road",
		City:      "Accra",
		State:     "Greater Accra",
		Zipcode:   "00233",
		Country:   "Ghana",
	}
}

func validOrder() *Order {
	return &Order{
		ID:               "o1",
		Items:            []LineItem{{ProductID: "p1", Name: "Tee", PriceCents: 5000, Quantity: 2, Size: "M"}},
		ShippingAddress:  validAddress(),
		SubtotalCents:    10000,
		DeliveryFeeCents: 0,
		TotalCents:       10000,
		PaymentStatus:    PaymentPending,
		OrderStatus:      StatusPlaced,
	}
}

func TestOrderValidate(t *testing.T) {
	require.NoError(t, validOrder().Validate())

	o := validOrder()
	o.TotalCents = 9999
	require.ErrorIs(t, o.Validate(), ErrTotalMismatch)

	o = validOrder()
	o.SubtotalCents = 5000
	o.TotalCents = 5000
	require.ErrorIs(t, o.Validate(), ErrTotalMismatch)

	o = validOrder()
	o.Items[0].Quantity = 0
	require.ErrorIs(t, o.Validate(), ErrInvalidInput)

	o = validOrder()
	o.ShippingAddress.City = " "
	err := o.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "city")

	o = validOrder()
	o.Items = nil
	require.ErrorIs(t, o.Validate(), ErrInvalidInput)
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, raw := range []string{"", "packing", "Cancelled", "Out For Delivery"} {
		_, err := ParseOrderStatus(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestAdvanceStatusForwardOnly(t *testing.T) {
	o := validOrder()
	err := o.AdvanceStatus(StatusPacking)
	require.ErrorIs(t, err, ErrInvalidTransition, "unpaid orders cannot progress")

	o.PaymentStatus = PaymentPaid
	require.NoError(t, o.AdvanceStatus(StatusPacking))
	require.NoError(t, o.AdvanceStatus(StatusOutForDelivery))
	assert.Equal(t, StatusOutForDelivery, o.OrderStatus)

	require.ErrorIs(t, o.AdvanceStatus(StatusShipped), ErrInvalidTransition)
	require.ErrorIs(t, o.AdvanceStatus(StatusOutForDelivery), ErrInvalidTransition)
	require.ErrorIs(t, o.AdvanceStatus(OrderStatus("Lost")), ErrInvalidInput)
	require.NoError(t, o.AdvanceStatus(StatusDelivered))
}

func TestStockLinesAggregatesSizes(t *testing.T) {
	items := []LineItem{
		{ProductID: "a", Size: "M", Quantity: 2},
		{ProductID: "b", Size: "S", Quantity: 1},
		{ProductID: "a", Size: "L", Quantity: 3},
	}
	assert.Equal(t, []StockLine{{ProductID: "a", Quantity: 5}, {ProductID: "b", Quantity: 1}}, StockLinesFor(items))
}

func TestStockErrorMatchesSentinel(t *testing.T) {
	err := error(&StockError{ProductID: "p1", Name: "Tee", Requested: 2, Available: 1})
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "insufficient stock for Tee", err.Error())
}

func TestBelongsTo(t *testing.T) {
	o := validOrder()
	assert.False(t, o.BelongsTo("u1"))
	owner := "u1"
	o.CustomerID = &owner
	assert.True(t, o.BelongsTo("u1"))
	assert.False(t, o.BelongsTo("u2"))
	assert.False(t, o.BelongsTo(""))
}
