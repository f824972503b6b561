package valueobject

import (
	"fmt"
	"math"
	"strings"
)

// RateTable переводит суммы в базовую валюту. Курс - сколько единиц базовой
// валюты стоит одна единица указанной валюты.
type RateTable struct {
	Base  string             `yaml:"base" json:"base"`
	Rates map[string]float64 `yaml:"rates" json:"rates"`
}

// NewRateTable нормализует коды валют и проверяет курсы.
func NewRateTable(base string, rates map[string]float64) (*RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if !currencyCodeRe.MatchString(base) {
		return nil, fmt.Errorf("rates: некорректная базовая валюта %q", base)
	}

	normalized := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !currencyCodeRe.MatchString(code) {
			return nil, fmt.Errorf("rates: некорректный код валюты %q", code)
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("rates: курс %s должен быть положительным", code)
		}
		normalized[code] = rate
	}
	normalized[base] = 1

	return &RateTable{Base: base, Rates: normalized}, nil
}

// Convert возвращает сумму в базовой валюте; false, если курс неизвестен.
func (t *RateTable) Convert(m Money) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.Rates[strings.ToUpper(m.Currency)]
	if !ok {
		return 0, false
	}
	return roundCents(m.Amount * rate), true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
