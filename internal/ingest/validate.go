package ingest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/pricing"
	"github.com/go-playground/validator/v10"
)

type ValidationIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Issues []ValidationIssue `json:"issues"`
}

func (r ValidationResult) IsValid() bool {
	return len(r.Issues) == 0
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func productValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// "" is a valid absent price; anything else must parse
		_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
			_, _, err := pricing.ParseAmount(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// ValidateProductBase checks the snapshot is structurally usable: an id, a
// known kind, a parent for variations, numeric prices and sane measurements.
func ValidateProductBase(p domain.Product) ValidationResult {
	var res ValidationResult

	err := productValidator().Struct(p)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			addIssue(&res, fe.Field(), issueCode(fe), issueMessage(fe))
		}
	} else if err != nil {
		addIssue(&res, "", "invalid_product", err.Error())
	}

	for _, id := range p.ChildIDs {
		if id == p.ID {
			addIssue(&res, "child_ids", "self_reference", "a product cannot be its own child")
			break
		}
	}
	if p.Kind != domain.KindVariable && len(p.ChildIDs) > 0 {
		addIssue(&res, "child_ids", "unexpected_children", "only variable products have children")
	}

	return res
}

// ValidateChannelRequirements checks the fields each enabled channel needs.
func ValidateChannelRequirements(p domain.Product, enabledChannels []string) ValidationResult {
	var res ValidationResult

	enabled := make(map[string]struct{}, len(enabledChannels))
	for _, c := range enabledChannels {
		enabled[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	for ch := range enabled {
		switch ch {
		case "google":
			requireNonEmpty(&res, "title", p.Title)
			requireNonEmpty(&res, "permalink", p.Permalink)
		default:
			addIssue(&res, fmt.Sprintf("channel.%s", ch), "unknown_channel", "channel is enabled but not recognized by this service version")
		}
	}

	return res
}

func issueCode(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "required"
	case "price":
		return "invalid_decimal"
	case "oneof":
		return "invalid_value"
	case "url":
		return "invalid_url"
	default:
		return "invalid_" + fe.Tag()
	}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "required_if":
		return "field is required for " + fe.Param()
	case "price":
		return "price must be empty or a decimal number (e.g. \"19.99\")"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func requireNonEmpty(res *ValidationResult, path string, v string) {
	if strings.TrimSpace(v) == "" {
		addIssue(res, path, "required", "field is required")
	}
}

func addIssue(res *ValidationResult, path string, code string, msg string) {
	res.Issues = append(res.Issues, ValidationIssue{
		Path:    path,
		Code:    code,
		Message: msg,
	})
}
