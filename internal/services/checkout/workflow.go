package checkout

import (
	"strings"
	"sync"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
)

type Step int

const (
	StepAccountInfo Step = iota + 1
	StepPaymentMethod
	StepConfirmation
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepAccountInfo:
		return "account_info"
	case StepPaymentMethod:
		return "payment_method"
	case StepConfirmation:
		return "confirmation"
	case StepCompleted:
		return "completed"
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit-card"
	MethodPix        PaymentMethod = "pix"
	MethodBoleto     PaymentMethod = "boleto"
)

type AccountInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,simpleemail"`
	Password string `json:"password" validate:"required,min=6" errorMsg:"Password must have at least 6 characters"`
}

func (a AccountInfo) normalized() AccountInfo {
	return AccountInfo{
		Name:     strings.TrimSpace(a.Name),
		Email:    strings.TrimSpace(a.Email),
		Password: strings.TrimSpace(a.Password),
	}
}

type CardDetails struct {
	Number string `json:"card_number" validate:"required,cardnumber"`
	Name   string `json:"card_name" validate:"required" errorMsg:"Name on card is required"`
	Expiry string `json:"card_expiry" validate:"required,cardexpiry"`
	CVV    string `json:"card_cvv" validate:"required,number,min=3,max=4" errorMsg:"CVV must have 3 or 4 digits"`
}

func (c CardDetails) normalized() CardDetails {
	return CardDetails{
		Number: strings.Join(strings.Fields(c.Number), ""),
		Name:   strings.TrimSpace(c.Name),
		Expiry: strings.TrimSpace(c.Expiry),
		CVV:    strings.TrimSpace(c.CVV),
	}
}

// masked keeps the last four digits only.
func (c CardDetails) masked() CardDetails {
	n := c.Number
	if len(n) > 4 {
		n = strings.Repeat("*", len(n)-4) + n[len(n)-4:]
	}
	return CardDetails{Number: n, Name: c.Name, Expiry: c.Expiry}
}

type PaymentInfo struct {
	Method PaymentMethod `json:"method" validate:"required,oneof=credit-card pix boleto"`
	Card   *CardDetails  `json:"card,omitempty" validate:"-"`
}

type Terms struct {
	Accepted bool `json:"accepted" validate:"eq=true" errorMsg:"You must accept the terms of service"`
}

type Receipt struct {
	Subscription models.Subscription `json:"subscription"`
	User         models.User         `json:"user"`
	PlanName     string              `json:"plan_name"`
	FinalPrice   float64             `json:"final_price"`
}

// Workflow is one checkout in progress. All methods are safe for
// concurrent use.
type Workflow struct {
	mu sync.Mutex

	id        string
	userID    int64
	plan      models.Plan
	period    fields.Period
	step      Step
	account   AccountInfo
	payment   PaymentInfo
	terms     Terms
	promo     Promo
	lastError string
	receipt   *Receipt
	updatedAt time.Time
}

func newWorkflow(userID int64, plan models.Plan, period fields.Period, account AccountInfo, now time.Time) *Workflow {
	return &Workflow{
		userID:    userID,
		plan:      plan,
		period:    period,
		step:      StepAccountInfo,
		account:   account,
		payment:   PaymentInfo{Method: MethodCreditCard},
		updatedAt: now,
	}
}

func (w *Workflow) ID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Workflow) SetAccount(a AccountInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepCompleted {
		return ErrCompleted
	}
	w.account = a.normalized()
	return nil
}

func (w *Workflow) SetPayment(p PaymentInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepCompleted {
		return ErrCompleted
	}
	if p.Card != nil {
		card := p.Card.normalized()
		p.Card = &card
	}
	w.payment = p
	return nil
}

func (w *Workflow) SetTerms(accepted bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepCompleted {
		return ErrCompleted
	}
	w.terms = Terms{Accepted: accepted}
	return nil
}

// Previous moves one step back. Entered data is kept.
func (w *Workflow) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepAccountInfo:
		return ErrAtFirstStep
	case StepCompleted:
		return ErrCompleted
	}
	w.step--
	return nil
}

// Price is what the user pays per month: the plan price, minus the yearly
// discount for yearly billing, minus the promo discount, rounded to cents.
func Price(plan models.Plan, period fields.Period, yearlyDiscount float64, promo Promo) float64 {
	price := plan.Price
	if period == fields.PeriodYearly {
		price *= 1 - yearlyDiscount
	}
	price *= 1 - promo.Discount
	return roundCents(price)
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// EndDate is one calendar year or one calendar month after start.
func EndDate(start time.Time, period fields.Period) time.Time {
	if period == fields.PeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// View is the JSON shape of a workflow. Secrets are left out.
type View struct {
	ID         string        `json:"id"`
	Step       Step          `json:"step"`
	Plan       models.Plan   `json:"plan"`
	Period     fields.Period `json:"period"`
	Account    AccountInfo   `json:"account"`
	Payment    PaymentInfo   `json:"payment"`
	Terms      Terms         `json:"terms"`
	PromoCode  string        `json:"promo_code,omitempty"`
	FinalPrice float64       `json:"final_price"`
	LastError  string        `json:"last_error,omitempty"`
	Receipt    *Receipt      `json:"receipt,omitempty"`
}

func (w *Workflow) View(yearlyDiscount float64) View {
	w.mu.Lock()
	defer w.mu.Unlock()
	account := w.account
	account.Password = ""
	payment := w.payment
	if payment.Card != nil {
		card := payment.Card.masked()
		payment.Card = &card
	}
	return View{
		ID:         w.id,
		Step:       w.step,
		Plan:       w.plan,
		Period:     w.period,
		Account:    account,
		Payment:    payment,
		Terms:      w.terms,
		PromoCode:  w.promo.Code,
		FinalPrice: Price(w.plan, w.period, yearlyDiscount, w.promo),
		LastError:  w.lastError,
		Receipt:    w.receipt,
	}
}
