package validator

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const MaxMessageLength = 4000

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func ValidateRegister(displayName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateDisplayName(displayName, errs)
	validatePassword(password, errs)

	return errs
}

func ValidateLogin(displayName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(displayName) == "" {
		errs.Add("display_name", "Display name is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateRequest checks a new payment request. A nil rate means the
// caller wants the conversation default.
func ValidateRequest(usdAmount decimal.Decimal, rate *decimal.Decimal) ValidationErrors {
	errs := make(ValidationErrors)

	// Amounts are kept exact; rounding is left to display.
	if !usdAmount.IsPositive() {
		errs.Add("usd_amount", "Amount must be greater than zero")
	}

	if rate != nil {
		validateRate("rate", *rate, errs)
	}

	return errs
}

func ValidateRate(rate decimal.Decimal) ValidationErrors {
	errs := make(ValidationErrors)
	validateRate("rate", rate, errs)
	return errs
}

func ValidateMessage(body string) ValidationErrors {
	errs := make(ValidationErrors)

	body = strings.TrimSpace(body)
	if body == "" {
		errs.Add("body", "Message is required")
	} else if utf8.RuneCountInString(body) > MaxMessageLength {
		errs.Add("body", fmt.Sprintf("Message must be at most %d characters", MaxMessageLength))
	}

	return errs
}

func ValidateAvatarURL(raw string) ValidationErrors {
	errs := make(ValidationErrors)

	u, err := url.Parse(strings.TrimSpace(raw))
	if raw == "" {
		errs.Add("avatar_url", "Avatar URL is required")
	} else if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("avatar_url", "Avatar URL must be an absolute http(s) URL")
	}

	return errs
}

func validateRate(field string, rate decimal.Decimal, errs ValidationErrors) {
	if !rate.IsPositive() {
		errs.Add(field, "Rate must be greater than zero")
	}
}

func validateDisplayName(displayName string, errs ValidationErrors) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		errs.Add("display_name", "Display name is required")
	} else if utf8.RuneCountInString(displayName) < 2 {
		errs.Add("display_name", "Display name must be at least 2 characters")
	} else if utf8.RuneCountInString(displayName) > 100 {
		errs.Add("display_name", "Display name is too long")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
