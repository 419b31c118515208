package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	got  []ReservationConfirmedEvent
	fail error
}

func (f *fakeSender) SendConfirmation(_ context.Context, ev ReservationConfirmedEvent) error {
	if f.fail != nil {
		return f.fail
	}
	f.got = append(f.got, ev)
	return nil
}

func TestHandleDelivery(t *testing.T) {
	ev := ReservationConfirmedEvent{
		ReservationID: 41,
		Code:          "abc-123",
		CustomerName:  "Ana Torres",
		CustomerEmail: "ana@example.com",
		DateTime:      "2026-09-15 10:00",
		ServiceType:   "Lavado premium",
		TotalPrice:    95000,
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	s := &fakeSender{}
	require.NoError(t, handleDelivery(context.Background(), body, s))
	require.Len(t, s.got, 1)
	assert.Equal(t, ev, s.got[0])
}

func TestHandleDeliveryBadPayload(t *testing.T) {
	s := &fakeSender{}
	err := handleDelivery(context.Background(), []byte("{not json"), s)
	require.Error(t, err)
	assert.Empty(t, s.got)
}

func TestHandleDeliverySenderFailurePropagates(t *testing.T) {
	body, _ := json.Marshal(ReservationConfirmedEvent{ReservationID: 1, CustomerEmail: "x@example.com"})
	s := &fakeSender{fail: errors.New("smtp down")}
	err := handleDelivery(context.Background(), body, s)
	require.Error(t, err)
}
