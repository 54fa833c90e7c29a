package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	archivedomain "github.com/enerhub/edi_services/internal/archive_service/domain"
	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, bundle *domain.Bundle, messages []*domain.OutgoingMessage,
	format core.DocumentFormat) ([]byte, string, error) {
	args := m.Called(ctx, bundle, messages, format)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Upload(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

func (m *MockFileStorage) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type peekTestComponents struct {
	service  *PeekDequeueService
	mockPool pgxmock.PgxPoolIface
	queues   *MockActorMessageQueueRepository
	bundles  *MockBundleRepository
	messages *MockOutgoingMessageRepository
	renderer *MockRenderer
	storage  *MockFileStorage
	archive  *MockArchiveWriter
}

func setupPeekTest(t *testing.T, measurementsEnabled bool) peekTestComponents {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queues := new(MockActorMessageQueueRepository)
	bundles := new(MockBundleRepository)
	messages := new(MockOutgoingMessageRepository)
	rend := new(MockRenderer)
	storage := new(MockFileStorage)
	archive := new(MockArchiveWriter)

	service := NewPeekDequeueService(mockPool, queues, bundles, messages,
		rend, storage, archive, measurementsEnabled, logger)
	return peekTestComponents{
		service: service, mockPool: mockPool, queues: queues, bundles: bundles,
		messages: messages, renderer: rend, storage: storage, archive: archive,
	}
}

var peekActor = core.Actor{Number: "5790001330552", Role: core.RoleEnergySupplier}

func closedBundle(queueID uuid.UUID) *domain.Bundle {
	now := time.Now().UTC().Add(-time.Hour)
	closedAt := now.Add(time.Minute)
	return &domain.Bundle{
		ID:              uuid.New(),
		QueueID:         queueID,
		MessageID:       uuid.New(),
		DocumentType:    core.DocTypeNotifyAggregatedMeasureData,
		BusinessReason:  core.ReasonBalanceFixing,
		MessageCount:    2,
		MaxMessageCount: 2000,
		CreatedAt:       now,
		ClosedAt:        &closedAt,
	}
}

func TestPeekDequeueService_PeekEmptyMailbox(t *testing.T) {
	comps := setupPeekTest(t, true)
	comps.mockPool.ExpectBegin()
	comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
		Return(nil, nil).Once()

	result, err := comps.service.Peek(context.Background(), peekActor, core.CategoryAggregations, core.FormatCIMJson)
	require.NoError(t, err)
	assert.Nil(t, result)
	comps.bundles.AssertNotCalled(t, "FindOldestClosed")
}

func TestPeekDequeueService_PeekRendersAndArchivesOnce(t *testing.T) {
	comps := setupPeekTest(t, true)
	queue := &domain.ActorMessageQueue{ID: uuid.New(), ActorNumber: peekActor.Number, ActorRole: peekActor.Role}
	bundle := closedBundle(queue.ID)
	msgs := []*domain.OutgoingMessage{
		{ID: uuid.New(), SenderNumber: "5790001330001", SenderRole: core.RoleMeteredDataAdministrator},
		{ID: uuid.New(), SenderNumber: "5790001330001", SenderRole: core.RoleMeteredDataAdministrator},
	}
	rendered := []byte(`{"messageId":"x"}`)
	storagePath := "5790001330552/2026/03/15/abc"

	comps.mockPool.ExpectBegin()
	comps.mockPool.ExpectCommit()
	comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
		Return(queue, nil).Once()
	comps.bundles.On("FindOldestClosed", mock.Anything, mock.Anything, queue.ID,
		core.CategoryAggregations.DocumentTypes()).Return(bundle, nil).Once()
	comps.messages.On("ListByBundle", mock.Anything, mock.Anything, bundle.ID).
		Return(msgs, nil).Once()
	comps.renderer.On("Render", mock.Anything, bundle, msgs, core.FormatCIMJson).
		Return(rendered, "application/json", nil).Once()
	comps.archive.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(in archivedomain.ArchivedMessageInput) bool {
		return in.MessageID == bundle.MessageID.String() &&
			in.ArchiveType == archivedomain.ArchiveTypeOutgoing &&
			string(in.Document) == string(rendered)
	})).Return(&archivedomain.ArchivedMessage{ID: uuid.New(), StoragePath: storagePath}, nil).Once()
	comps.bundles.On("MarkPeeked", mock.Anything, mock.Anything, bundle.ID, mock.Anything,
		core.FormatCIMJson, storagePath).Return(nil).Once()

	result, err := comps.service.Peek(context.Background(), peekActor, core.CategoryAggregations, core.FormatCIMJson)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, bundle.MessageID, result.MessageID)
	assert.Equal(t, rendered, result.Document)
	assert.Equal(t, "application/json", result.ContentType)
	comps.archive.AssertExpectations(t)
	comps.bundles.AssertExpectations(t)
	comps.storage.AssertNotCalled(t, "Download")
	assert.NoError(t, comps.mockPool.ExpectationsWereMet())
}

func TestPeekDequeueService_RepeatPeekServesStoredDocument(t *testing.T) {
	comps := setupPeekTest(t, true)
	queue := &domain.ActorMessageQueue{ID: uuid.New(), ActorNumber: peekActor.Number, ActorRole: peekActor.Role}
	bundle := closedBundle(queue.ID)
	peekedAt := time.Now().UTC().Add(-time.Minute)
	format := core.FormatCIMXml
	path := "5790001330552/2026/03/15/abc"
	bundle.PeekedAt = &peekedAt
	bundle.DocumentFormat = &format
	bundle.DocumentPath = &path
	stored := []byte("<MarketDocument/>")

	comps.mockPool.ExpectBegin()
	comps.mockPool.ExpectCommit()
	comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
		Return(queue, nil).Once()
	comps.bundles.On("FindOldestClosed", mock.Anything, mock.Anything, queue.ID,
		core.CategoryAggregations.DocumentTypes()).Return(bundle, nil).Once()
	comps.storage.On("Download", mock.Anything, path).Return(stored, nil).Once()

	result, err := comps.service.Peek(context.Background(), peekActor, core.CategoryAggregations, core.FormatCIMJson)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, stored, result.Document)
	assert.Equal(t, "application/xml", result.ContentType, "repeat peek keeps the originally rendered format")
	comps.renderer.AssertNotCalled(t, "Render")
	comps.archive.AssertNotCalled(t, "Append")
	comps.bundles.AssertNotCalled(t, "MarkPeeked")
}

func TestPeekDequeueService_MeasurementPeekDisabledByFlag(t *testing.T) {
	comps := setupPeekTest(t, false)

	result, err := comps.service.Peek(context.Background(), peekActor, core.CategoryMeasureData, core.FormatCIMJson)
	require.NoError(t, err)
	assert.Nil(t, result)
	comps.queues.AssertNotCalled(t, "GetForUpdate")
	assert.NoError(t, comps.mockPool.ExpectationsWereMet(), "no transaction may be opened when the flag is off")
}

func TestPeekDequeueService_Dequeue(t *testing.T) {
	queue := &domain.ActorMessageQueue{ID: uuid.New(), ActorNumber: peekActor.Number, ActorRole: peekActor.Role}

	t.Run("Acknowledged", func(t *testing.T) {
		comps := setupPeekTest(t, true)
		bundle := closedBundle(queue.ID)

		comps.mockPool.ExpectBegin()
		comps.mockPool.ExpectCommit()
		comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
			Return(queue, nil).Once()
		comps.bundles.On("FindByMessageID", mock.Anything, mock.Anything, queue.ID, bundle.MessageID).
			Return(bundle, nil).Once()
		comps.bundles.On("MarkDequeued", mock.Anything, mock.Anything, bundle.ID, mock.Anything).
			Return(true, nil).Once()

		ok, err := comps.service.Dequeue(context.Background(), peekActor, bundle.MessageID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("UnknownMessageID", func(t *testing.T) {
		comps := setupPeekTest(t, true)
		unknown := uuid.New()

		comps.mockPool.ExpectBegin()
		comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
			Return(queue, nil).Once()
		comps.bundles.On("FindByMessageID", mock.Anything, mock.Anything, queue.ID, unknown).
			Return(nil, nil).Once()

		ok, err := comps.service.Dequeue(context.Background(), peekActor, unknown)
		require.NoError(t, err)
		assert.False(t, ok)
		comps.bundles.AssertNotCalled(t, "MarkDequeued")
	})

	t.Run("NeverPeeked", func(t *testing.T) {
		comps := setupPeekTest(t, true)
		bundle := closedBundle(queue.ID)

		comps.mockPool.ExpectBegin()
		comps.mockPool.ExpectCommit()
		comps.queues.On("GetForUpdate", mock.Anything, mock.Anything, peekActor).
			Return(queue, nil).Once()
		comps.bundles.On("FindByMessageID", mock.Anything, mock.Anything, queue.ID, bundle.MessageID).
			Return(bundle, nil).Once()
		comps.bundles.On("MarkDequeued", mock.Anything, mock.Anything, bundle.ID, mock.Anything).
			Return(false, nil).Once()

		ok, err := comps.service.Dequeue(context.Background(), peekActor, bundle.MessageID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", ContentTypeFor(core.FormatCIMJson))
	assert.Equal(t, "application/xml", ContentTypeFor(core.FormatCIMXml))
	assert.Equal(t, "application/octet-stream", ContentTypeFor(core.FormatEbix))
}
