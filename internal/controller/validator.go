package controller

import (
	"assessment_backend/internal/engine/resolver"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var perspectives = map[resolver.Perspective]bool{
	resolver.PerspectiveSelf:        true,
	resolver.PerspectivePeer:        true,
	resolver.PerspectiveManager:     true,
	resolver.PerspectiveFacilitator: true,
	resolver.PerspectiveSystem:      true,
}

func validPerspective(fl validator.FieldLevel) bool {
	return perspectives[resolver.Perspective(fl.Field().String())]
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("perspective", validPerspective)
}
