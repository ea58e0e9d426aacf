//go:build integration

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/card-credits/internal/models"
)

func setupRabbitMQ(ctx context.Context, t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TEST_RABBITMQ_URL"); url != "" {
		return url
	}

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestRabbitMQ_PublishAndConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	conn, err := Connect(setupRabbitMQ(ctx, t), 10, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, "credits", []QueueConfig{
		{QueueName: "credits.purchases", RoutingKey: "credits.purchase.confirmed"},
		{QueueName: "credits.events", RoutingKey: "credits.*"},
	})
	require.NoError(t, err)
	defer ch.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		received []models.PurchaseConfirmation
	)
	wg.Add(2)
	handler := func(_ context.Context, body []byte) error {
		var msg models.PurchaseConfirmation
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil
		}
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		wg.Done()
		return nil
	}

	waitDone, err := ConsumerMessage(ctx, ch, "credits.purchases", handler, newNoopLogger())
	require.NoError(t, err)

	for _, id := range []string{"pay-1", "pay-2"} {
		err := PublishMessage(ch, "credits", "credits.purchase.confirmed", models.PurchaseConfirmation{
			AccountID: "acc-1", PackageID: "starter", PaymentID: id,
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for messages to be processed")
	}
	cancel()
	waitDone()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.ElementsMatch(t, []string{"pay-1", "pay-2"}, []string{received[0].PaymentID, received[1].PaymentID})
}

func TestRabbitMQ_EventPublisherRoutesByType(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	conn, err := Connect(setupRabbitMQ(ctx, t), 10, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, "credits-events-test", []QueueConfig{
		{QueueName: "used-only", RoutingKey: RoutingKeyUsed},
	})
	require.NoError(t, err)
	defer ch.Close()

	pub := NewEventPublisher(ch, "credits-events-test")
	require.NoError(t, pub.Publish(ctx, models.LedgerEvent{Type: models.TransactionPurchase, AccountID: "a", Amount: 100}))
	require.NoError(t, pub.Publish(ctx, models.LedgerEvent{Type: models.TransactionUsage, AccountID: "a", Amount: -1}))

	deliveries, err := ch.Consume("used-only", "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got models.LedgerEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, models.TransactionUsage, got.Type)
		assert.Equal(t, int64(-1), got.Amount)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for usage event")
	}
}

func TestRabbitMQ_HandlerErrorRequeues(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	conn, err := Connect(setupRabbitMQ(ctx, t), 10, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, "credits-nack-test", []QueueConfig{{QueueName: "nack-test", RoutingKey: "rk"}})
	require.NoError(t, err)
	defer ch.Close()

	var (
		mu       sync.Mutex
		attempts int
	)
	secondAttempt := make(chan struct{})
	handler := func(_ context.Context, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return fmt.Errorf("storage unavailable")
		}
		if attempts == 2 {
			close(secondAttempt)
		}
		return nil
	}

	_, err = ConsumerMessage(ctx, ch, "nack-test", handler, newNoopLogger())
	require.NoError(t, err)

	require.NoError(t, ch.Publish("credits-nack-test", "rk", false, false, amqp.Publishing{Body: []byte("msg")}))

	select {
	case <-secondAttempt:
	case <-time.After(10 * time.Second):
		t.Fatal("message was not redelivered after nack")
	}
}

func TestRabbitMQ_RejectedMessageIsDeadLettered(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	conn, err := Connect(setupRabbitMQ(ctx, t), 10, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, "credits-dlx-test", PurchaseQueues("dlx-test", "rk"))
	require.NoError(t, err)
	defer ch.Close()

	var (
		mu       sync.Mutex
		attempts int
	)
	handler := func(_ context.Context, _ []byte) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return fmt.Errorf("unknown account: %w", ErrReject)
	}

	_, err = ConsumerMessage(ctx, ch, "dlx-test", handler, newNoopLogger())
	require.NoError(t, err)

	require.NoError(t, ch.Publish("credits-dlx-test", "rk", false, false, amqp.Publishing{Body: []byte("bad")}))

	deadCh, err := conn.Channel()
	require.NoError(t, err)
	defer deadCh.Close()
	deliveries, err := deadCh.Consume(DeadLetterQueue("dlx-test"), "dead-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.Equal(t, "bad", string(d.Body))
	case <-time.After(10 * time.Second):
		t.Fatal("rejected message did not reach dead letter queue")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
}
