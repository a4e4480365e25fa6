package journal

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tableflip.dev/daily/pkg/memory"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(CaptureRequest)
		switch {
		case req.Image.Empty():
			sl.ReportError(req.Image, "Image", "Image", "required", "")
		case !req.Image.Inline():
			if err := sl.Validator().Var(req.Image.URL, "url"); err != nil {
				sl.ReportError(req.Image.URL, "Image", "Image", "url", "")
			}
		}
	}, CaptureRequest{})
	return v
}

func validateCapture(req CaptureRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describe(fe))
	}
	return &memory.ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", field)
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
