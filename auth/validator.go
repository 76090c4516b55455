package auth

import (
	"fmt"

	"pair-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const clientIDRules = "required,max=64,printascii"

type LoginRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

// ValidateClientID accepts opaque ids made of printable ASCII, 64 chars at most.
func ValidateClientID(id string) error {
	if err := validate.Var(id, clientIDRules); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidClientID, err)
	}
	return nil
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}
	return nil
}

// ValidateStruct runs the struct tag rules, used on the server configuration.
func ValidateStruct(s any) error {
	return validate.Struct(s)
}
