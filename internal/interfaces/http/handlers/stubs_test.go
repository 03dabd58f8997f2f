package handlers

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docucheck.backend/internal/domain/entities"
	"docucheck.backend/internal/interfaces/http/middleware"
	"docucheck.backend/internal/usecases"
	"docucheck.backend/pkg/utils"
)

var testUserID = uuid.MustParse("0190f5c2-7d1e-7c3a-9a4b-3f2e1d0c9b8a")

type documentServiceStub struct {
	submitFn func(ctx context.Context, input usecases.SubmitDocumentInput) (*entities.VerificationRequest, error)
	getFn    func(ctx context.Context, ownerID, id uuid.UUID) (*usecases.DocumentView, error)
}

func (s documentServiceStub) Submit(ctx context.Context, input usecases.SubmitDocumentInput) (*entities.VerificationRequest, error) {
	return s.submitFn(ctx, input)
}

func (s documentServiceStub) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*usecases.DocumentView, error) {
	return s.getFn(ctx, ownerID, id)
}

type chargeServiceStub struct {
	createFn func(ctx context.Context, ownerID uuid.UUID, input usecases.CreateChargeInput) (*entities.Charge, error)
	getFn    func(ctx context.Context, ownerID uuid.UUID, chargeID string) (*entities.Charge, error)
}

func (s chargeServiceStub) CreateCharge(ctx context.Context, ownerID uuid.UUID, input usecases.CreateChargeInput) (*entities.Charge, error) {
	return s.createFn(ctx, ownerID, input)
}

func (s chargeServiceStub) GetCharge(ctx context.Context, ownerID uuid.UUID, chargeID string) (*entities.Charge, error) {
	return s.getFn(ctx, ownerID, chargeID)
}

type webhookServiceStub struct {
	paymentFn func(ctx context.Context, rawBody []byte, signature string) error
	botFn     func(ctx context.Context, rawBody []byte, secretToken string) error
}

func (s webhookServiceStub) HandlePaymentWebhook(ctx context.Context, rawBody []byte, signature string) error {
	return s.paymentFn(ctx, rawBody, signature)
}

func (s webhookServiceStub) HandleBotWebhook(ctx context.Context, rawBody []byte, secretToken string) error {
	return s.botFn(ctx, rawBody, secretToken)
}

type adminServiceStub struct {
	listFn     func(ctx context.Context, input usecases.ListRequestsInput) ([]*entities.VerificationRequest, utils.PaginationMeta, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	completeFn func(ctx context.Context, id uuid.UUID, input usecases.CompletionInput) (*entities.VerificationRequest, error)
	fileURLFn  func(ctx context.Context, id uuid.UUID) (string, error)
	healthFn   func(ctx context.Context) *usecases.HealthReport
}

func (s adminServiceStub) List(ctx context.Context, input usecases.ListRequestsInput) ([]*entities.VerificationRequest, utils.PaginationMeta, error) {
	return s.listFn(ctx, input)
}

func (s adminServiceStub) Get(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	return s.getFn(ctx, id)
}

func (s adminServiceStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s adminServiceStub) Complete(ctx context.Context, id uuid.UUID, input usecases.CompletionInput) (*entities.VerificationRequest, error) {
	return s.completeFn(ctx, id, input)
}

func (s adminServiceStub) FileURL(ctx context.Context, id uuid.UUID) (string, error) {
	return s.fileURLFn(ctx, id)
}

func (s adminServiceStub) Health(ctx context.Context) *usecases.HealthReport {
	return s.healthFn(ctx)
}

type retryServiceStub struct {
	retryFn func(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
}

func (s retryServiceStub) Retry(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	return s.retryFn(ctx, id)
}

// newRouter returns an engine whose requests are authenticated as testUserID
// unless anonymous is set.
func newRouter(anonymous bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if !anonymous {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.UserIDKey, testUserID)
			c.Next()
		})
	}
	return r
}

func serve(r *gin.Engine, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

