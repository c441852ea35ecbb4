package services

import "foyer-backend/utils"

var inputValidator = utils.NewValidator()

// validateInput runs the struct's validate tags and reports failures as
// ErrValidation.
func validateInput(v interface{}) error {
	if err := inputValidator.ValidateStruct(v); err != nil {
		return &DomainError{Kind: ErrValidation, Detail: utils.JoinValidationErrors(err)}
	}
	return nil
}
