package repository

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 提交前的本地字段校验失败，未发出请求
type ValidationError struct {
	Entity string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Entity, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func check(name string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Entity: name, Err: err}
	}
	return nil
}
