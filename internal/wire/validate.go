package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// validate checks write shapes before any store access. Initialized in init
// with the custom tags used by this package.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("geometry", validateGeometry)
	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("scanpath", validateScanPath)
}

// validateGeometry accepts an absent bounding box or any valid JSON value.
func validateGeometry(fl validator.FieldLevel) bool {
	raw := fl.Field().Bytes()
	return len(raw) == 0 || json.Valid(raw)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateScanPath accepts relative slash-separated paths that stay inside
// the scan directory.
func validateScanPath(fl validator.FieldLevel) bool {
	return ValidScanPath(fl.Field().String())
}

// ValidScanPath reports whether p is a relative path that does not escape
// its root.
func ValidScanPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// Validate checks a write shape against its struct tags. Failures wrap
// ErrInvalidData and name the offending fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", types.ErrInvalidData, strings.Join(msgs, "; "))
}
