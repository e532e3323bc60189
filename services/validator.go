package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"group-chat/domain/chat"
	"group-chat/errors"
)

var validate = validator.New()

func validateCommand(cmd chat.Command) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return nil
}

func validateIdentity(id string) error {
	if err := validate.Var(id, "required,max=128,excludes=:"); err != nil {
		return fmt.Errorf("%w: identity %q: %v", errors.ErrInvalidCommand, id, err)
	}
	return nil
}
