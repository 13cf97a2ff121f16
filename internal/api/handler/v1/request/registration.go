package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felicity-portal/felicity-api/internal/pkg/ticket"
)

type CreateRegistrationRequest struct {
	Answers      map[string]string `json:"answers,omitempty"`
	PaymentProof string            `json:"payment_proof,omitempty"`
}

const (
	ReviewStatusApproved = "Approved"
	ReviewStatusRejected = "Rejected"
)

type ReviewOrderRequest struct {
	ReviewStatus string `json:"reviewStatus"`
}

func (req *ReviewOrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ReviewStatus, validation.Required,
			validation.In(ReviewStatusApproved, ReviewStatusRejected)),
	)
}

type AttendanceRequest struct {
	TicketID         string `json:"ticketId"`
	IsManualOverride bool   `json:"isManualOverride"`
}

func (req *AttendanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TicketID, validation.Required,
			validation.By(func(value interface{}) error {
				s, _ := value.(string)
				if !ticket.IsValidID(s) {
					return errInvalidTicketID
				}
				return nil
			})),
	)
}
