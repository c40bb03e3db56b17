package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var occurred = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func TestFormatReservationLine(t *testing.T) {
	body, err := json.Marshal(ReservationEvent{
		ReservationID:    "r-1",
		Code:             "K7QX2M",
		FlightID:         "f-1",
		Status:           "PendingPayment",
		PaymentStatus:    "Pending",
		TotalAmountCents: 20000,
		SeatIDs:          []string{"s-1", "s-2"},
		Passengers:       2,
		OccurredAt:       occurred,
	})
	require.NoError(t, err)

	line, err := formatAuditLine(KeyReservationCreated, body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "[2026-03-01T09:30:00Z] reservation.created"))
	assert.Contains(t, line, "code=K7QX2M")
	assert.Contains(t, line, "total=20000 cents")
	assert.Contains(t, line, "seats=[s-1,s-2]")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestFormatFlightLine(t *testing.T) {
	body, err := json.Marshal(FlightEvent{
		FlightID:    "f-1",
		FlightNo:    "LH4821",
		Status:      "Delayed",
		DepartureAt: occurred.Add(time.Hour),
		ArrivalAt:   occurred.Add(3 * time.Hour),
		OccurredAt:  occurred,
	})
	require.NoError(t, err)

	line, err := formatAuditLine(KeyFlightDelayed, body)
	require.NoError(t, err)
	assert.Contains(t, line, "flight.delayed")
	assert.Contains(t, line, "flight_no=LH4821")
	assert.Contains(t, line, "departure=2026-03-01T10:30:00Z")
}

func TestFormatRejectsBadInput(t *testing.T) {
	_, err := formatAuditLine("payment.settled", []byte(`{}`))
	assert.Error(t, err)
	_, err = formatAuditLine(KeyReservationCancelled, []byte(`not json`))
	assert.Error(t, err)
}

func TestAppendAuditCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	body, _ := json.Marshal(ReservationEvent{ReservationID: "r-9", OccurredAt: occurred})

	require.NoError(t, appendAudit(dir, KeyReservationCancelled, body))
	require.NoError(t, appendAudit(dir, KeyReservationCancelled, body))

	data, err := os.ReadFile(filepath.Join(dir, AuditLogFile))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "reservation_id=r-9"))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), KeyFlightCreated, FlightEvent{}))
}
