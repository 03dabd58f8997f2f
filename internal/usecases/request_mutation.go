package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/repositories"
)

const maxStaleRetries = 3

// errNoChange tells mutateRequest to skip the write
var errNoChange = errors.New("no change")

// mutateRequest re-reads the request and applies fn until the versioned
// update lands. fn returning errNoChange leaves the row untouched.
func mutateRequest(
	ctx context.Context,
	repo repositories.VerificationRequestRepository,
	id uuid.UUID,
	fn func(req *entities.VerificationRequest) error,
) (*entities.VerificationRequest, error) {
	var lastErr error
	for attempt := 0; attempt < maxStaleRetries; attempt++ {
		req, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(req); err != nil {
			if errors.Is(err, errNoChange) {
				return req, nil
			}
			return nil, err
		}
		err = repo.Update(ctx, req)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, domainerrors.ErrStaleUpdate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
