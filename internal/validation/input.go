package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MinRequestTitleLength     = 3
	MaxRequestTitleLength     = 200
	MinInstructionsLength     = 10
	MaxInstructionsLength     = 10000
	MaxNotesLength            = 2000
	MinReferenceNumberLength  = 3
	MaxReferenceNumberLength  = 64
	MinDisputeExplanationLen  = 10
	MaxDisputeExplanationLen  = 2000
	MaxRejectionReasonLength  = 1000
	MaxURLLength              = 2048
	MinServiceNameLength      = 2
	MaxServiceNameLength      = 120
	MaxServiceDescriptionLen  = 5000
	MaxUserNameLength         = 100
	MinTicketTitleLength      = 3
	MaxTicketTitleLength      = 200
	MinMessageLength          = 1
	MaxMessageLength          = 5000
	MaxSuspensionReasonLength = 500
	MaxDeliverableDescription = 1000
	MaxFileNameLength         = 255
)

// AcademicLevels - допустимые уровни обучения.
var AcademicLevels = map[string]struct{}{
	"HIGH_SCHOOL":   {},
	"UNDERGRADUATE": {},
	"MASTERS":       {},
	"PHD":           {},
}

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	emailLocal = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailHost  = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateRequired проверяет обязательное поле и его длину.
func ValidateRequired(fieldName, value string, min, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, value, min, max)
}

// ValidateOptional проверяет длину необязательного поля.
func ValidateOptional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	local, host, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(host, "@") {
		return fmt.Errorf("некорректный формат email")
	}
	if len(local) == 0 || len(local) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if !emailLocal.MatchString(local) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailHost.MatchString(host) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateAcademicLevel проверяет уровень обучения.
func ValidateAcademicLevel(level string) error {
	if _, ok := AcademicLevels[level]; !ok {
		return fmt.Errorf("уровень обучения должен быть одним из HIGH_SCHOOL, UNDERGRADUATE, MASTERS, PHD")
	}
	return nil
}

// ValidateDeadline проверяет, что срок сдачи в будущем.
func ValidateDeadline(deadline, now time.Time) error {
	if deadline.IsZero() {
		return fmt.Errorf("срок сдачи обязателен")
	}
	if !deadline.After(now) {
		return fmt.Errorf("срок сдачи должен быть в будущем")
	}
	return nil
}

// ValidateFileURL принимает абсолютный http(s) URL или путь внутри файлового хранилища.
func ValidateFileURL(fieldName, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("%s обязателен", fieldName)
	}
	if err := ValidateLength(fieldName, link, 0, MaxURLLength); err != nil {
		return err
	}
	if strings.HasPrefix(link, "/files/") && !strings.Contains(link, "..") {
		return nil
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%s: некорректный формат URL", fieldName)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s должен начинаться с http:// или https://", fieldName)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s должен содержать доменное имя", fieldName)
	}
	return nil
}

// ValidateSlug проверяет slug услуги.
func ValidateSlug(slug string) error {
	if err := ValidateLength("slug", slug, 2, 80); err != nil {
		return err
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug может содержать только строчные латинские буквы, цифры и дефисы")
	}
	return nil
}

// MaxAmount - наибольшая сумма, которую вмещает колонка NUMERIC(12,2).
const MaxAmount = 9999999999.99

// ValidatePrice проверяет цену услуги.
func ValidatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("цена не может быть отрицательной")
	}
	return ValidateAmountScale("цена", price)
}

// ValidateAmountScale проверяет, что сумма конечна, не больше MaxAmount
// и содержит не более двух знаков после запятой.
func ValidateAmountScale(fieldName string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%s: некорректное значение", fieldName)
	}
	if amount > MaxAmount {
		return fmt.Errorf("%s не может превышать %.2f", fieldName, MaxAmount)
	}
	cents := amount * 100
	if math.Abs(cents-math.Round(cents)) > 1e-3 {
		return fmt.Errorf("%s может содержать не более двух знаков после запятой", fieldName)
	}
	return nil
}
