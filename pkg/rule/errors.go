package rule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/employeeman/pkg/errs"
)

// Errors 把 validator 的错误转换成 字段 -> 可读信息 的字典，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}

	return out
}

// Check 校验结构体，失败时返回 *errs.ValidationError.
func Check(s any) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}

	if fields := Errors(err); fields != nil {
		return errs.Validation(fields)
	}

	return err
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}

		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}

		return "must be at most " + fe.Param()
	case "alphanum":
		return "must contain only letters and digits"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return "failed on " + fe.Tag() + " rule"
	}
}
