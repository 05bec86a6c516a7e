// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound reports a lookup for a campaign that does not exist.
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrRecipientNotFound reports a lookup for a recipient that does not exist.
type ErrRecipientNotFound struct {
	RecipientID int
}

func (e *ErrRecipientNotFound) Error() string {
	return fmt.Sprintf("recipient with ID %d not found", e.RecipientID)
}

func NewRecipientNotFound(id int) error {
	return &ErrRecipientNotFound{RecipientID: id}
}

// ErrInvalidTransition reports a campaign status change that the state graph
// forbids. Surfaced to the caller; never retried.
type ErrInvalidTransition struct {
	CampaignID int
	From       string
	To         string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %d: invalid transition from %s to %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(campaignID int, from, to string) error {
	return &ErrInvalidTransition{CampaignID: campaignID, From: from, To: to}
}

// ErrDuplicateDelivery reports a second delivery log for the same
// (campaign, recipient) pair. The losing writer swallows it; the pair's
// first log is the only one that exists.
type ErrDuplicateDelivery struct {
	CampaignID  int
	RecipientID int
}

func (e *ErrDuplicateDelivery) Error() string {
	return fmt.Sprintf("delivery log for campaign %d recipient %d already exists", e.CampaignID, e.RecipientID)
}

func NewDuplicateDelivery(campaignID, recipientID int) error {
	return &ErrDuplicateDelivery{CampaignID: campaignID, RecipientID: recipientID}
}

// ErrDuplicateRecipient reports an insert with an email that is already taken.
type ErrDuplicateRecipient struct {
	Email string
}

func (e *ErrDuplicateRecipient) Error() string {
	return fmt.Sprintf("recipient with email %q already exists", e.Email)
}

func NewDuplicateRecipient(email string) error {
	return &ErrDuplicateRecipient{Email: email}
}

// ErrValidation reports bad input on the API surface.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

func NewValidation(field, message string) error {
	return &ErrValidation{Field: field, Message: message}
}

func IsCampaignNotFound(err error) bool {
	var e *ErrCampaignNotFound
	return errors.As(err, &e)
}

func IsRecipientNotFound(err error) bool {
	var e *ErrRecipientNotFound
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *ErrInvalidTransition
	return errors.As(err, &e)
}

func IsDuplicateDelivery(err error) bool {
	var e *ErrDuplicateDelivery
	return errors.As(err, &e)
}

func IsDuplicateRecipient(err error) bool {
	var e *ErrDuplicateRecipient
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ErrValidation
	return errors.As(err, &e)
}
