package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/airline-reservation/internal/config"
)

// AuditLogFile is the file, under the configured directory, that the audit
// consumer appends to.
const AuditLogFile = "reservations.log"

// StartAuditConsumer binds a durable queue to every routing key of the
// exchange and appends one line per event to the audit log.  It reconnects
// with exponential backoff and returns only when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, cfg config.QueueConfig, log *slog.Logger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Warn("audit consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("audit consumer: consume loop ended, reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.QueueConfig, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit consumer: set QoS failed", "err", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare(cfg.AuditQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendAudit(cfg.AuditLogDir, d.RoutingKey, d.Body); err != nil {
			log.Error("audit consumer: handle message failed", "key", d.RoutingKey, "err", err)
			// reject without requeue to avoid a hot loop on a poison message
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendAudit(dir, key string, body []byte) error {
	line, err := formatAuditLine(key, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// formatAuditLine renders one event as a single human-readable line.
func formatAuditLine(key string, body []byte) (string, error) {
	switch {
	case strings.HasPrefix(key, "reservation."):
		var ev ReservationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", key, err)
		}
		seats := "[" + strings.Join(ev.SeatIDs, ",") + "]"
		return fmt.Sprintf("[%s] %s | reservation_id=%s | code=%s | flight_id=%s | status=%s | payment=%s | passengers=%d | total=%d cents | seats=%s\n",
			ev.OccurredAt.UTC().Format(time.RFC3339), key, ev.ReservationID, ev.Code, ev.FlightID,
			ev.Status, ev.PaymentStatus, ev.Passengers, ev.TotalAmountCents, seats), nil
	case strings.HasPrefix(key, "flight."):
		var ev FlightEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", key, err)
		}
		return fmt.Sprintf("[%s] %s | flight_id=%s | flight_no=%s | status=%s | departure=%s | arrival=%s | seats=%d\n",
			ev.OccurredAt.UTC().Format(time.RFC3339), key, ev.FlightID, ev.FlightNo, ev.Status,
			ev.DepartureAt.UTC().Format(time.RFC3339), ev.ArrivalAt.UTC().Format(time.RFC3339), ev.Seats), nil
	default:
		return "", fmt.Errorf("unknown routing key %q", key)
	}
}
