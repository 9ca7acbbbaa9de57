package checkout

import "strings"

type Promo struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

var promoCodes = map[string]float64{
	"WELCOME20": 0.20,
	"STUDENT15": 0.15,
	"FIRST30":   0.30,
}

// LookupPromo matches code ignoring case and surrounding spaces.
func LookupPromo(code string) (Promo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	discount, ok := promoCodes[code]
	if !ok {
		return Promo{}, ErrInvalidPromoCode
	}
	return Promo{Code: code, Discount: discount}, nil
}

// ApplyPromoCode replaces any previously applied code. An unknown code
// leaves the current one in place.
func (w *Workflow) ApplyPromoCode(code string) (Promo, error) {
	promo, err := LookupPromo(code)
	if err != nil {
		return Promo{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepCompleted {
		return Promo{}, ErrCompleted
	}
	w.promo = promo
	return promo, nil
}
