package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// 邮箱规则：local@domain.tld，不含空白
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
	MaxFullNameLength = 100
)

// ============================================================================
// 验证错误（消息直接展示给用户）
// ============================================================================

var (
	ErrEmailEmpty       = errors.New("Email is required.")
	ErrEmailInvalid     = errors.New("Please enter a valid email address.")
	ErrPasswordEmpty    = errors.New("Password is required.")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 100 characters.")
	ErrFullNameEmpty    = errors.New("Full name is required.")
	ErrFullNameTooLong  = errors.New("Full name must be at most 100 characters.")
)

// Errors 登录表单字段错误，空字符串表示该字段合法
type Errors struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HasErrors 是否存在任一字段错误
func (e Errors) HasErrors() bool {
	return e.Email != "" || e.Password != ""
}

// RegisterErrors 注册表单字段错误
type RegisterErrors struct {
	FullName string `json:"fullName"`
	Errors
}

// HasErrors 是否存在任一字段错误
func (e RegisterErrors) HasErrors() bool {
	return e.FullName != "" || e.Errors.HasErrors()
}

// ValidateLoginForm 验证登录表单，每个字段只报告第一条错误
func ValidateLoginForm(email, password string) Errors {
	return Errors{
		Email:    message(validateEmail(email)),
		Password: message(validatePassword(password)),
	}
}

// ValidateRegisterForm 验证注册表单
func ValidateRegisterForm(fullName, email, password string) RegisterErrors {
	return RegisterErrors{
		FullName: message(validateFullName(fullName)),
		Errors:   ValidateLoginForm(email, password),
	}
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func validateFullName(fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return ErrFullNameEmpty
	}
	// 支持Unicode字符（中文、emoji等）
	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return ErrFullNameTooLong
	}
	return nil
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
