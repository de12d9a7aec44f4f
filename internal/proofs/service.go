package proofs

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

const tokenBytes = 32

// ImageInput is one proof image already uploaded to external storage.
type ImageInput struct {
	OrderItemID uuid.UUID
	URL         string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// CreateInput opens a proof approval request against an assignment item.
type CreateInput struct {
	AssignmentID  uuid.UUID
	OrderItemID   uuid.UUID
	ProofType     enums.ProofType
	CustomerEmail string
	CustomerName  *string
	CreatedBy     uuid.UUID
	Images        []ImageInput
}

// ResolveInput is the customer's decision on a proof, keyed by token.
type ResolveInput struct {
	Token    string
	Decision enums.ProofStatus
	Notes    *string
}

// Service runs the proof approval workflow: time-boxed tokens, lazy expiry,
// single resolution, and the production overlay side effect.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ProofApproval, error)
	Resolve(ctx context.Context, input ResolveInput) (*models.ProofApproval, error)
	GetByToken(ctx context.Context, token string) (*models.ProofApproval, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ProofApproval, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProofApproval, error)
	// SweepExpired persists the expired status for overdue pending proofs.
	// Reads never depend on it; EffectiveStatus is authoritative.
	SweepExpired(ctx context.Context) (int64, error)
	ApprovalURL(proof *models.ProofApproval) string
}

// EffectiveStatus evaluates a proof's status at the given instant. A stored
// pending proof past its expiry reads as expired even before any sweep runs.
func EffectiveStatus(proof *models.ProofApproval, now time.Time) enums.ProofStatus {
	if proof.Status == enums.ProofStatusPending && now.After(proof.ExpiresAt) {
		return enums.ProofStatusExpired
	}
	return proof.Status
}

type service struct {
	repo          Repository
	assignments   assignments.Repository
	orders        orders.Repository
	production    production.Service
	notifications notifications.Service
	tokenTTL      time.Duration
	publicBaseURL string
	logg          *logger.Logger
	now           func() time.Time
}

// ServiceParams configure the proof approval workflow.
type ServiceParams struct {
	Repo          Repository
	Assignments   assignments.Repository
	Orders        orders.Repository
	Production    production.Service
	Notifications notifications.Service
	TokenTTL      time.Duration
	PublicBaseURL string
	Logger        *logger.Logger
}

// NewService wires the proof workflow dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "proofs repository required")
	}
	if params.Assignments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "production service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.TokenTTL <= 0 {
		params.TokenTTL = 168 * time.Hour
	}
	return &service{
		repo:          params.Repo,
		assignments:   params.Assignments,
		orders:        params.Orders,
		production:    params.Production,
		notifications: params.Notifications,
		tokenTTL:      params.TokenTTL,
		publicBaseURL: strings.TrimSuffix(params.PublicBaseURL, "/"),
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ProofApproval, error) {
	if !input.ProofType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown proof type %q", input.ProofType)
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	assignment, err := s.assignments.Find(ctx, input.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if assignment.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeAssignmentState,
			"proofs cannot be requested on a %s assignment", assignment.Status).
			WithDetails(map[string]any{"assignment_status": assignment.Status.String()})
	}

	item, err := s.orders.FindItem(ctx, input.OrderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != assignment.OrderID {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
			"item %s does not belong to the assignment's order", item.ID)
	}

	token, err := newApprovalToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate approval token")
	}

	now := s.now().UTC()
	proof := &models.ProofApproval{
		OrderID:       assignment.OrderID,
		OrderItemID:   item.ID,
		AssignmentID:  assignment.ID,
		ProofType:     input.ProofType,
		Status:        enums.ProofStatusPending,
		ApprovalToken: token,
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		CustomerName:  input.CustomerName,
		CreatedBy:     input.CreatedBy,
		SentAt:        &now,
		ExpiresAt:     now.Add(s.tokenTTL),
	}
	for _, img := range input.Images {
		proof.Images = append(proof.Images, models.ProofImage{
			OrderItemID: img.OrderItemID,
			URL:         img.URL,
			FileName:    img.FileName,
			ContentType: img.ContentType,
			SizeBytes:   img.SizeBytes,
		})
	}

	if err := s.repo.Create(ctx, proof); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create proof approval")
	}

	if err := s.production.ApplyProofDecision(ctx, proof.OrderID, proof.AssignmentID, proof.ProofType, enums.ProofStatusPending, nil); err != nil {
		s.logg.Error(ctx, "proofs.production_overlay", err)
	}

	if s.notifications != nil {
		s.notifications.Emit(ctx, notifications.EmitInput{
			Kind:           enums.NotificationKindProofRequested,
			RecipientType:  "customer",
			RecipientEmail: &proof.CustomerEmail,
			Subject:        fmt.Sprintf("Your %s is ready for review", proof.ProofType),
			Payload: types.JSONMap{
				"proof_id":     proof.ID.String(),
				"approval_url": s.ApprovalURL(proof),
				"expires_at":   proof.ExpiresAt.Format(time.RFC3339),
			},
		})
	}
	return proof, nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*models.ProofApproval, error) {
	if !input.Decision.IsDecision() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%q is not a valid proof decision", input.Decision)
	}

	proof, err := s.repo.FindByToken(ctx, strings.TrimSpace(input.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof approval not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof approval")
	}

	if proof.RespondedAt != nil || proof.Status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeResolved, "proof approval already resolved").
			WithDetails(map[string]any{"status": proof.Status.String()})
	}

	now := s.now().UTC()
	if EffectiveStatus(proof, now) == enums.ProofStatusExpired {
		// Stored status stays pending; only the sweep job persists expiry.
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "approval token expired")
	}

	updates := map[string]any{
		"status":       input.Decision,
		"responded_at": now,
	}
	if input.Notes != nil {
		updates["response_notes"] = *input.Notes
	}
	ok, err := s.repo.Resolve(ctx, proof.ID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve proof approval")
	}
	if !ok {
		// Another request landed its decision between the read and the write.
		return nil, pkgerrors.New(pkgerrors.CodeResolved, "proof approval already resolved")
	}

	if err := s.production.ApplyProofDecision(ctx, proof.OrderID, proof.AssignmentID, proof.ProofType, input.Decision, input.Notes); err != nil {
		s.logg.Error(ctx, "proofs.production_overlay", err)
	}

	resolved, err := s.repo.Find(ctx, proof.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload proof approval")
	}

	if s.notifications != nil {
		assignment, err := s.assignments.Find(ctx, proof.AssignmentID)
		if err == nil {
			s.notifications.Emit(ctx, notifications.EmitInput{
				Kind:          enums.NotificationKindProofResolved,
				RecipientType: "vendor",
				RecipientID:   &assignment.VendorID,
				Subject:       fmt.Sprintf("Proof %s was %s", proof.ID, input.Decision),
				Payload: types.JSONMap{
					"proof_id": proof.ID.String(),
					"decision": input.Decision.String(),
				},
			})
		}
	}
	return resolved, nil
}

func (s *service) GetByToken(ctx context.Context, token string) (*models.ProofApproval, error) {
	proof, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof approval not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof approval")
	}
	proof.Status = EffectiveStatus(proof, s.now().UTC())
	return proof, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ProofApproval, error) {
	proof, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof approval not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof approval")
	}
	proof.Status = EffectiveStatus(proof, s.now().UTC())
	return proof, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProofApproval, error) {
	proofs, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list proof approvals")
	}
	now := s.now().UTC()
	for i := range proofs {
		proofs[i].Status = EffectiveStatus(&proofs[i], now)
	}
	return proofs, nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep expired proofs")
	}
	return count, nil
}

func (s *service) ApprovalURL(proof *models.ProofApproval) string {
	if s.publicBaseURL == "" {
		return proof.ApprovalToken
	}
	return fmt.Sprintf("%s/%s", s.publicBaseURL, proof.ApprovalToken)
}

func newApprovalToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
