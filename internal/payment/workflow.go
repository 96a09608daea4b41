package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clipscloud-bot/internal/models"
	"clipscloud-bot/internal/store"
)

var (
	// ErrNotAwaiting means a proof arrived for a user who never started the
	// subscribe flow (or whose window expired). The proof is ignored.
	ErrNotAwaiting = errors.New("user is not awaiting payment proof")
	// ErrNotFound is reported to the verifying admin for an unknown user ID.
	ErrNotFound = errors.New("user not found")
)

// Store is the slice of the repository the workflow runs against.
type Store interface {
	UserByTelegramID(telegramID int64) (*models.User, error)
	SaveUser(user *models.User) error
	UsersAwaitingProofBefore(deadline time.Time) ([]models.User, error)
	CreatePaymentRequest(req *models.PaymentRequest) error
	DeletePaymentRequests(telegramID int64) error
}

// Workflow is the per-user proof-verification state machine:
// normal -> awaiting_proof -> proof_submitted -> verified, with a wall-clock
// timeout reverting awaiting_proof back to normal. State lives on the user
// row, so a second user's photo can never be misrouted into another user's
// in-flight proof.
type Workflow struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewWorkflow(st Store, timeout time.Duration) *Workflow {
	return &Workflow{
		store:   st,
		timeout: timeout,
		now:     time.Now,
	}
}

// BeginSubscription arms the awaiting-proof state with its expiry.
func (w *Workflow) BeginSubscription(telegramID int64) error {
	user, err := w.store.UserByTelegramID(telegramID)
	if err != nil {
		return err
	}

	expiresAt := w.now().Add(w.timeout)
	user.PaymentState = models.PaymentStateAwaitingProof
	user.PaymentStateExpiresAt = &expiresAt
	return w.store.SaveUser(user)
}

// SubmitProof records a proof photo for a user in the awaiting-proof state
// and returns the pending request to forward to the admin group. A proof from
// a user in any other state, or past the expiry window, yields ErrNotAwaiting.
func (w *Workflow) SubmitProof(telegramID int64, proofFileID string) (*models.PaymentRequest, error) {
	user, err := w.store.UserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAwaiting
		}
		return nil, err
	}

	if user.PaymentState != models.PaymentStateAwaitingProof {
		return nil, ErrNotAwaiting
	}
	if user.PaymentStateExpiresAt != nil && w.now().After(*user.PaymentStateExpiresAt) {
		user.PaymentState = models.PaymentStateNormal
		user.PaymentStateExpiresAt = nil
		if err := w.store.SaveUser(user); err != nil {
			return nil, err
		}
		return nil, ErrNotAwaiting
	}

	req := &models.PaymentRequest{
		Reference:   uuid.NewString(),
		TelegramID:  telegramID,
		ProofFileID: proofFileID,
		SubmittedAt: w.now(),
	}
	if err := w.store.CreatePaymentRequest(req); err != nil {
		return nil, err
	}

	user.PaymentState = models.PaymentStateProofSubmitted
	user.PaymentStateExpiresAt = nil
	if err := w.store.SaveUser(user); err != nil {
		return nil, err
	}
	return req, nil
}

// Verify grants premium to the user and clears their pending requests. There
// is no reject path: a bad proof is simply never verified and times out.
func (w *Workflow) Verify(telegramID int64) (*models.User, error) {
	user, err := w.store.UserByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.Premium = true
	user.PaymentState = models.PaymentStateNormal
	user.PaymentStateExpiresAt = nil
	if err := w.store.SaveUser(user); err != nil {
		return nil, err
	}
	if err := w.store.DeletePaymentRequests(telegramID); err != nil {
		return nil, err
	}
	return user, nil
}

// ExpireStale reverts users whose awaiting-proof window has passed and
// returns them so the caller can notify each one.
func (w *Workflow) ExpireStale() ([]models.User, error) {
	stale, err := w.store.UsersAwaitingProofBefore(w.now())
	if err != nil {
		return nil, err
	}

	var expired []models.User
	for i := range stale {
		user := stale[i]
		user.PaymentState = models.PaymentStateNormal
		user.PaymentStateExpiresAt = nil
		if err := w.store.SaveUser(&user); err != nil {
			return expired, fmt.Errorf("failed to expire proof state for %d: %w", user.TelegramID, err)
		}
		expired = append(expired, user)
	}
	return expired, nil
}
