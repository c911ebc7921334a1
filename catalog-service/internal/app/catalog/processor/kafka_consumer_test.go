package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository/mocks"
	"tgshop/catalog-service/internal/app/catalog/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeReader отдает заранее заданные сообщения, затем блокируется до отмены контекста
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) state() ([]int64, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...), len(r.messages), r.closed
}

func shopEventMessage(t *testing.T, offset int64, event entity.ShopEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: "shop_events", Offset: offset, Value: data}
}

// ===================== NewKafkaConsumer Tests =====================

func TestNewKafkaConsumer(t *testing.T) {
	// Arrange
	handler := new(mocks.MockShopEventHandler)

	// Act
	consumer := NewKafkaConsumer([]string{"localhost:9092"}, "shop_events", "test-group", 1, 10e6, handler)

	// Assert
	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "shop_events", consumer.topic)
	assert.NotNil(t, consumer.stopChan)
	assert.NotNil(t, consumer.doneChan)

	consumer.reader.Close()
}

// ===================== processMessage Tests =====================

func TestKafkaConsumer_ProcessMessage_Success(t *testing.T) {
	// Arrange
	handler := new(mocks.MockShopEventHandler)
	consumer := newKafkaConsumer(&fakeReader{}, "shop_events", "test-group", handler)
	ctx := context.Background()

	msg := shopEventMessage(t, 1, entity.ShopEvent{
		EventType:   entity.ShopEventActivated,
		ShopID:      3,
		OwnerUserID: 42,
		Timestamp:   time.Now(),
	})

	handler.On("HandleShopEvent", ctx, mock.MatchedBy(func(e *entity.ShopEvent) bool {
		return e.ShopID == 3 && e.OwnerUserID == 42 && e.EventType == entity.ShopEventActivated
	})).Return(nil)

	// Act
	err := consumer.processMessage(ctx, msg)

	// Assert
	assert.NoError(t, err)
	handler.AssertExpectations(t)
}

func TestKafkaConsumer_ProcessMessage_InvalidJSON(t *testing.T) {
	handler := new(mocks.MockShopEventHandler)
	consumer := newKafkaConsumer(&fakeReader{}, "shop_events", "test-group", handler)

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("not json")})

	assert.ErrorIs(t, err, errMalformedEvent)
	assert.True(t, isPermanent(err))
	handler.AssertNotCalled(t, "HandleShopEvent", mock.Anything, mock.Anything)
}

func TestKafkaConsumer_ProcessMessage_MissingIDs(t *testing.T) {
	handler := new(mocks.MockShopEventHandler)
	consumer := newKafkaConsumer(&fakeReader{}, "shop_events", "test-group", handler)

	err := consumer.processMessage(context.Background(), shopEventMessage(t, 1, entity.ShopEvent{EventType: entity.ShopEventActivated}))

	assert.ErrorIs(t, err, errMalformedEvent)
}

func TestKafkaConsumer_ProcessMessage_HandlerError(t *testing.T) {
	handler := new(mocks.MockShopEventHandler)
	consumer := newKafkaConsumer(&fakeReader{}, "shop_events", "test-group", handler)
	handler.On("HandleShopEvent", mock.Anything, mock.Anything).Return(errors.New("database is down"))

	err := consumer.processMessage(context.Background(), shopEventMessage(t, 1, entity.ShopEvent{
		EventType: entity.ShopEventActivated, ShopID: 3, OwnerUserID: 42,
	}))

	assert.Error(t, err)
	assert.False(t, isPermanent(err))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, isPermanent(errMalformedEvent))
	assert.True(t, isPermanent(service.ErrUnknownShopEvent))
	assert.True(t, isPermanent(service.ErrShopNotFound))
	assert.False(t, isPermanent(context.DeadlineExceeded))
}

// ===================== consume Loop Tests =====================

func TestKafkaConsumer_Consume_CommitsHandledAndPermanent(t *testing.T) {
	// Arrange
	handler := new(mocks.MockShopEventHandler)
	reader := &fakeReader{messages: []kafka.Message{
		shopEventMessage(t, 10, entity.ShopEvent{EventType: entity.ShopEventActivated, ShopID: 3, OwnerUserID: 42}),
		{Offset: 11, Value: []byte("garbage")},
		shopEventMessage(t, 12, entity.ShopEvent{EventType: entity.ShopEventDeactivated, ShopID: 4, OwnerUserID: 42}),
		shopEventMessage(t, 13, entity.ShopEvent{EventType: entity.ShopEventActivated, ShopID: 5, OwnerUserID: 42}),
	}}
	consumer := newKafkaConsumer(reader, "shop_events", "test-group", handler)

	handler.On("HandleShopEvent", mock.Anything, mock.MatchedBy(func(e *entity.ShopEvent) bool { return e.ShopID == 3 })).Return(nil)
	handler.On("HandleShopEvent", mock.Anything, mock.MatchedBy(func(e *entity.ShopEvent) bool { return e.ShopID == 4 })).Return(service.ErrShopNotFound)
	handler.On("HandleShopEvent", mock.Anything, mock.MatchedBy(func(e *entity.ShopEvent) bool { return e.ShopID == 5 })).Return(errors.New("database is down"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Act
	consumer.Start(ctx)
	assert.Eventually(t, func() bool {
		_, pending, _ := reader.state()
		return pending == 0
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()
	consumer.Stop()

	// Assert - временная ошибка (offset 13) не коммитится
	committed, _, closed := reader.state()
	assert.Equal(t, []int64{10, 11, 12}, committed)
	assert.True(t, closed)
	handler.AssertNumberOfCalls(t, "HandleShopEvent", 3)
}

func TestKafkaConsumer_Stop_WithoutMessages(t *testing.T) {
	handler := new(mocks.MockShopEventHandler)
	reader := &fakeReader{}
	consumer := newKafkaConsumer(reader, "shop_events", "test-group", handler)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)
	cancel()
	consumer.Stop()

	_, _, closed := reader.state()
	assert.True(t, closed)
}
