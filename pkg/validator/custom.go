package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

func RegisterCustomValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("lat", validateLat)
	_ = validate.RegisterValidation("lng", validateLng)
	_ = validate.RegisterValidation("image_data_uri", validateImageDataURI)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

// data:image/<subtype>[;params],<payload>
func validateImageDataURI(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !strings.HasPrefix(s, "data:image/") {
		return false
	}
	comma := strings.IndexByte(s, ',')
	return comma > len("data:image/") && comma < len(s)-1
}
