package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

type createProofRequest struct {
	OrderItemID   string  `json:"order_item_id" validate:"required,uuid"`
	ProofType     string  `json:"proof_type" validate:"required,oneof=design_proof production_proof"`
	CustomerEmail string  `json:"customer_email" validate:"required,email"`
	CustomerName  *string `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	Images        []struct {
		URL         string `json:"url" validate:"required,url"`
		FileName    string `json:"file_name" validate:"required,max=255"`
		ContentType string `json:"content_type" validate:"required,max=100"`
		SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	} `json:"images" validate:"required,min=1,dive"`
}

// CreateProof opens a proof approval request and mints its customer token.
func CreateProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createProofRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderItemID, err := uuid.Parse(req.OrderItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item id"))
			return
		}

		input := proofs.CreateInput{
			AssignmentID:  assignmentID,
			OrderItemID:   orderItemID,
			ProofType:     enums.ProofType(req.ProofType),
			CustomerEmail: req.CustomerEmail,
			CustomerName:  req.CustomerName,
			CreatedBy:     actorID(r),
		}
		for _, img := range req.Images {
			input.Images = append(input.Images, proofs.ImageInput{
				OrderItemID: orderItemID,
				URL:         img.URL,
				FileName:    img.FileName,
				ContentType: img.ContentType,
				SizeBytes:   img.SizeBytes,
			})
		}

		proof, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"proof":        proof,
			"approval_url": svc.ApprovalURL(proof),
		})
	}
}

// GetProof returns one proof approval with its images.
func GetProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proofID, err := validators.ParseUUIDParam(r, "proofID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proof, err := svc.Get(r.Context(), proofID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proof)
	}
}

// ListOrderProofs returns every proof approval raised against an order.
func ListOrderProofs(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PublicGetProof serves the customer-facing proof page payload. The token is
// the only credential.
func PublicGetProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.ParseApprovalToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proof, err := svc.GetByToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proof)
	}
}

type resolveProofRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approved rejected revision_requested"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// PublicResolveProof records the customer's decision on a proof.
func PublicResolveProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.ParseApprovalToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveProofRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proof, err := svc.Resolve(r.Context(), proofs.ResolveInput{
			Token:    token,
			Decision: enums.ProofStatus(req.Decision),
			Notes:    req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proof)
	}
}
