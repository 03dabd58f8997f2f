package usecases_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock StorageGateway
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, content []byte, filename, mimeType string, tags map[string]string) (string, error) {
	args := m.Called(ctx, content, filename, mimeType, tags)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetSignedURL(ctx context.Context, fileKey string) (string, error) {
	args := m.Called(ctx, fileKey)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetFile(ctx context.Context, fileKey string) ([]byte, *gateways.FileInfo, error) {
	args := m.Called(ctx, fileKey)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var info *gateways.FileInfo
	if args.Get(1) != nil {
		info = args.Get(1).(*gateways.FileInfo)
	}
	return args.Get(0).([]byte), info, args.Error(2)
}

func (m *MockStorage) DeleteFile(ctx context.Context, fileKey string) error {
	args := m.Called(ctx, fileKey)
	return args.Error(0)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock BotTransport
type MockBot struct {
	mock.Mock
}

func (m *MockBot) SendDocument(ctx context.Context, content []byte, filename, caption string) (int64, error) {
	args := m.Called(ctx, content, filename, caption)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBot) SendCallback(ctx context.Context, targetMessageID int64, prompt entities.BotPrompt) (int64, error) {
	args := m.Called(ctx, targetMessageID, prompt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	args := m.Called(ctx, callbackID, text)
	return args.Error(0)
}

func (m *MockBot) ReceiveInbound(raw []byte) (*entities.ParsedEvent, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ParsedEvent), args.Error(1)
}

// Mock PaymentGateway
type MockPayment struct {
	mock.Mock
}

func (m *MockPayment) CreateCharge(ctx context.Context, amount, currency string, metadata map[string]string) (*gateways.CreatedCharge, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.CreatedCharge), args.Error(1)
}

func (m *MockPayment) VerifyCharge(ctx context.Context, chargeID string) (entities.ChargeStatus, error) {
	args := m.Called(ctx, chargeID)
	return args.Get(0).(entities.ChargeStatus), args.Error(1)
}

func (m *MockPayment) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	args := m.Called(rawBody, signature)
	return args.Bool(0)
}

func (m *MockPayment) ParseWebhookEvent(rawBody []byte) (*gateways.PaymentEvent, error) {
	args := m.Called(rawBody)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.PaymentEvent), args.Error(1)
}

// fakeRequestRepo is an in-memory store with the same optimistic version
// check as the gorm repository.
type fakeRequestRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]entities.VerificationRequest
	staleNext int
	updates   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: make(map[uuid.UUID]entities.VerificationRequest)}
}

// put stores req as-is, keeping its timestamps
func (r *fakeRequestRepo) put(req *entities.VerificationRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Version == 0 {
		req.Version = 1
	}
	r.rows[req.ID] = *req
}

func (r *fakeRequestRepo) get(id uuid.UUID) *entities.VerificationRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil
	}
	return &row
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *entities.VerificationRequest) error {
	now := time.Now().UTC()
	req.ID = uuid.New()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Version = 1
	r.put(req)
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	if row := r.get(id); row != nil {
		return row, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeRequestRepo) Update(ctx context.Context, req *entities.VerificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[req.ID]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if r.staleNext > 0 {
		r.staleNext--
		return domainerrors.ErrStaleUpdate
	}
	if stored.Version != req.Version {
		return domainerrors.ErrStaleUpdate
	}
	req.Version++
	req.UpdatedAt = time.Now().UTC()
	r.rows[req.ID] = *req
	r.updates++
	return nil
}

func (r *fakeRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domainerrors.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter repositories.VerificationRequestFilter, limit, offset int) ([]*entities.VerificationRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.VerificationRequest
	for _, row := range r.rows {
		row := row
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.TelegramStatus != "" && row.TelegramStatus != filter.TelegramStatus {
			continue
		}
		if filter.OwnerID != nil && row.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []*entities.VerificationRequest{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeRequestRepo) CountFailedSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.Status == entities.RequestStatusFailed && !row.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRequestRepo) CountStuckProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.Status == entities.RequestStatusProcessing && row.UpdatedAt.Before(olderThan) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRequestRepo) ListDeliveryRetryable(ctx context.Context, limit int) ([]*entities.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.VerificationRequest
	for _, row := range r.rows {
		row := row
		if row.Status == entities.RequestStatusPending && row.TelegramStatus == entities.TelegramStatusFailed {
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeChargeRepo struct {
	mu   sync.Mutex
	rows map[string]entities.Charge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{rows: make(map[string]entities.Charge)}
}

func (r *fakeChargeRepo) put(c *entities.Charge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Status == "" {
		c.Status = entities.ChargeStatusPending
	}
	r.rows[c.ID] = *c
}

func (r *fakeChargeRepo) get(id string) *entities.Charge {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil
	}
	return &c
}

func (r *fakeChargeRepo) Create(ctx context.Context, c *entities.Charge) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.put(c)
	return nil
}

func (r *fakeChargeRepo) GetByID(ctx context.Context, id string) (*entities.Charge, error) {
	if c := r.get(id); c != nil {
		return c, nil
	}
	return nil, domainerrors.ErrNotFound
}

func (r *fakeChargeRepo) TransitionStatus(ctx context.Context, id string, from, to entities.ChargeStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	r.rows[id] = c
	return true, nil
}

func (r *fakeChargeRepo) AttachRequest(ctx context.Context, id string, requestID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	c.RequestID = &requestID
	r.rows[id] = c
	return nil
}

func (r *fakeChargeRepo) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*entities.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Charge
	for _, c := range r.rows {
		c := c
		if c.Status == entities.ChargeStatusPending && c.CreatedAt.Before(before) {
			out = append(out, &c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeChargeEventRepo struct {
	mu     sync.Mutex
	events []*entities.ChargeEvent
}

func (r *fakeChargeEventRepo) Create(ctx context.Context, e *entities.ChargeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.New()
	r.events = append(r.events, e)
	return nil
}

func (r *fakeChargeEventRepo) ListByChargeID(ctx context.Context, chargeID string) ([]*entities.ChargeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.ChargeEvent
	for _, e := range r.events {
		if e.ChargeID == chargeID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDedupe struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeDedupe() *fakeDedupe {
	return &fakeDedupe{keys: make(map[string]string)}
}

func (d *fakeDedupe) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[key]; ok {
		return false, nil
	}
	d.keys[key] = "processing"
	return true, nil
}

func (d *fakeDedupe) Complete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[key] = "done"
	return nil
}

func (d *fakeDedupe) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, key)
	return nil
}
