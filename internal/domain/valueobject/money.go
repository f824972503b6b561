package valueobject

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/validation"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Money хранит сумму в той валюте, которую выбрал студент. Нормализация
// к базовой валюте выполняется только при построении отчётов.
type Money struct {
	Amount   float64
	Currency string
}

// NewMoney принимает только суммы, которые хранятся в NUMERIC(12,2) без округления.
func NewMoney(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "некорректная сумма")
	}
	if amount <= 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if err := validation.ValidateAmountScale("сумма", amount); err != nil {
		return Money{}, apperror.Validation(err)
	}
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: math.Round(amount*100) / 100, Currency: code}, nil
}

// NormalizeCurrency приводит код валюты к верхнему регистру и проверяет формат.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyCodeRe.MatchString(currency) {
		return "", apperror.New(apperror.ErrCodeValidation, "код валюты должен состоять из трёх латинских букв")
	}
	return currency, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}
