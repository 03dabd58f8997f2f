package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/usecases"
)

func TestAdmin_ListPaginates(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.seedDelivered(entities.StepDocumentSent)
	}
	failed := h.seedDelivered(entities.StepDocumentSent)
	failed.Status = entities.RequestStatusFailed
	h.requests.put(failed)

	reqs, meta, err := h.admin.List(context.Background(), usecases.ListRequestsInput{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
	assert.Equal(t, int64(6), meta.TotalCount)
	assert.Equal(t, 2, meta.TotalPages)

	reqs, meta, err = h.admin.List(context.Background(), usecases.ListRequestsInput{Status: entities.RequestStatusFailed})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, failed.ID, reqs[0].ID)
	assert.Equal(t, 1, meta.Page)

	_, _, err = h.admin.List(context.Background(), usecases.ListRequestsInput{Status: "DONE"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestAdmin_DeleteRemovesBlobFirst(t *testing.T) {
	h := newHarness(t)
	req := h.seedDelivered(entities.StepDocumentSent)
	h.storage.On("DeleteFile", mock.Anything, req.Metadata.FileKey).Return(nil).Once()

	require.NoError(t, h.admin.Delete(context.Background(), req.ID))
	assert.Nil(t, h.requests.get(req.ID))
	h.storage.AssertExpectations(t)

	require.ErrorIs(t, h.admin.Delete(context.Background(), req.ID), domainerrors.ErrNotFound)
}

func TestAdmin_DeleteKeepsRecordWhenBlobDeleteFails(t *testing.T) {
	h := newHarness(t)
	req := h.seedDelivered(entities.StepDocumentSent)
	h.storage.On("DeleteFile", mock.Anything, mock.Anything).Return(domainerrors.ErrStorageUnavailable)

	err := h.admin.Delete(context.Background(), req.ID)
	require.ErrorIs(t, err, domainerrors.ErrStorageUnavailable)
	assert.NotNil(t, h.requests.get(req.ID))
}

func TestAdmin_DeleteWithoutBlob(t *testing.T) {
	h := newHarness(t)
	req := h.seedDelivered(entities.StepDocumentSent)
	req.Metadata.FileKey = ""
	h.requests.put(req)

	require.NoError(t, h.admin.Delete(context.Background(), req.ID))
	h.storage.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything)
}

func TestAdmin_FileURL(t *testing.T) {
	h := newHarness(t)
	req := h.seedDelivered(entities.StepDocumentSent)
	h.storage.On("GetSignedURL", mock.Anything, req.Metadata.FileKey).Return("https://signed", nil)

	url, err := h.admin.FileURL(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed", url)

	req.Metadata.FileKey = ""
	h.requests.put(req)
	_, err = h.admin.FileURL(context.Background(), req.ID)
	require.ErrorIs(t, err, domainerrors.ErrFileNotFound)
}

func TestAdmin_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newHarness(t)
		h.storage.On("Ping", mock.Anything).Return(nil)
		h.seedDelivered(entities.StepProcessing)

		report := h.admin.Health(context.Background())
		assert.Equal(t, usecases.HealthHealthy, report.Status)
		assert.Empty(t, report.Issues)
	})

	t.Run("storage down is unhealthy", func(t *testing.T) {
		h := newHarness(t)
		h.storage.On("Ping", mock.Anything).Return(domainerrors.ErrStorageUnavailable)
		h.cacheErr = errors.New("redis down")

		report := h.admin.Health(context.Background())
		assert.Equal(t, usecases.HealthUnhealthy, report.Status)
		assert.Len(t, report.Issues, 2)
	})

	t.Run("cache down is degraded", func(t *testing.T) {
		h := newHarness(t)
		h.storage.On("Ping", mock.Anything).Return(nil)
		h.cacheErr = errors.New("redis down")

		report := h.admin.Health(context.Background())
		assert.Equal(t, usecases.HealthDegraded, report.Status)
	})

	t.Run("recent failures degrade", func(t *testing.T) {
		h := newHarness(t)
		h.storage.On("Ping", mock.Anything).Return(nil)
		for i := 0; i < 3; i++ {
			req := h.seedDelivered(entities.StepFailed)
			req.Status = entities.RequestStatusFailed
			h.requests.put(req)
		}

		report := h.admin.Health(context.Background())
		assert.Equal(t, usecases.HealthDegraded, report.Status)
		assert.Contains(t, report.Issues[0], "3 requests failed")
	})

	t.Run("stuck processing degrades", func(t *testing.T) {
		h := newHarness(t)
		h.storage.On("Ping", mock.Anything).Return(nil)
		req := h.seedDelivered(entities.StepProcessing)
		req.UpdatedAt = time.Now().Add(-2 * time.Hour)
		h.requests.put(req)

		report := h.admin.Health(context.Background())
		assert.Equal(t, usecases.HealthDegraded, report.Status)
		assert.Contains(t, report.Issues[0], "stuck")

		stuck, err := h.admin.CountStuck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), stuck)
	})
}

func TestAdmin_CompleteDelegates(t *testing.T) {
	h := newHarness(t)
	req := h.seedDelivered(entities.StepProcessing)

	out, err := h.admin.Complete(context.Background(), req.ID, usecases.CompletionInput{Outcome: usecases.OutcomeFailed, Note: "copied"})
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusFailed, out.Status)

	_, err = h.admin.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
