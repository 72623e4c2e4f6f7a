package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PublishRequest struct {
	Numbers []int `json:"numbers"`
}

func (req *PublishRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Numbers, validation.NotNil),
	)
}
