package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/food_delivery/orders-service/internal/domain"
	"github.com/fjod/food_delivery/orders-service/internal/repository"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	Topic   = "checkout-completed"
	GroupID = "orders-service"
)

// errSkip marks messages that can never be turned into an order.
var errSkip = errors.New("skip message")

type eventItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// CheckoutCompletedEvent is published once a customer pays for a cart.
// The order number defaults to the checkout id, so redelivery of the same
// checkout never creates a second order.
type CheckoutCompletedEvent struct {
	CheckoutID  string          `json:"checkout_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	UserID      string          `json:"user_id"`
	Items       []eventItem     `json:"items"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

// messageReader fetches without committing so an offset only moves once
// the order is stored or the message is known to be unusable.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	repo   OrderCreator
	reader messageReader
	log    *slog.Logger
	retry  time.Duration
}

func NewConsumer(repo OrderCreator, log *slog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(repo, reader, log)
}

func newConsumer(repo OrderCreator, reader messageReader, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{repo: repo, reader: reader, log: log, retry: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", slog.Any("err", err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.ErrorContext(ctx, "error fetching message", slog.Any("err", err))
		c.wait(ctx)
		return
	}

	if !c.handle(ctx, m) {
		return
	}
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.log.ErrorContext(ctx, "error committing message",
			slog.Int64("offset", m.Offset), slog.Any("err", err))
	}
}

// handle stores the order carried by m. It retries storage errors until
// ctx is done and reports false in that case, leaving m uncommitted.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	order, err := orderFromMessage(m)
	if err != nil {
		c.log.WarnContext(ctx, "dropping checkout event",
			slog.Int64("offset", m.Offset), slog.Any("err", err))
		return true
	}

	for {
		err := c.repo.CreateOrder(ctx, order)
		if err == nil {
			c.log.InfoContext(ctx, "order created",
				slog.String("number", order.Number),
				slog.String("user_id", order.UserID),
				slog.String("total_price", order.TotalPrice.String()))
			return true
		}
		if errors.Is(err, repository.ErrDuplicateOrder) {
			c.log.InfoContext(ctx, "order already exists, skipping", slog.String("number", order.Number))
			return true
		}
		c.log.ErrorContext(ctx, "failed to create order, retrying",
			slog.String("number", order.Number), slog.Any("err", err))
		if !c.wait(ctx) {
			return false
		}
	}
}

// wait sleeps for the retry interval and reports whether ctx is still live.
func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retry):
		return true
	}
}

func orderFromMessage(m kafka.Message) (*domain.Order, error) {
	var event CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return nil, fmt.Errorf("%w: parse event: %w", errSkip, err)
	}

	number := strings.TrimSpace(event.OrderNumber)
	if number == "" {
		id, err := uuid.Parse(event.CheckoutID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid checkout_id %q: %w", errSkip, event.CheckoutID, err)
		}
		number = id.String()
	}
	if strings.TrimSpace(event.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", errSkip)
	}
	if event.TotalPrice.IsNegative() {
		return nil, fmt.Errorf("%w: negative total_price", errSkip)
	}

	items := make([]domain.OrderItem, 0, len(event.Items))
	for _, item := range event.Items {
		if item.Quantity <= 0 {
			continue
		}
		items = append(items, domain.OrderItem{Title: item.Title, Quantity: item.Quantity})
	}

	return &domain.Order{
		Number:     number,
		UserID:     event.UserID,
		Items:      items,
		TotalPrice: event.TotalPrice,
		Status:     domain.OrderStatusProcessing,
	}, nil
}
