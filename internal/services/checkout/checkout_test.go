package checkout

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/lib/logger"
	"cineflix/proj/internal/mails"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/auth"
	"cineflix/proj/internal/storage"
	"cineflix/proj/internal/storage/memory"
	"cineflix/proj/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

type sentMail struct {
	to   string
	tmpl string
	data any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(recipient, tmpl string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient, tmpl, data})
	return nil
}

type inlineExecutor struct{}

func (inlineExecutor) Add(task func()) bool {
	task()
	return true
}

type testEnv struct {
	svc    *Service
	repos  *repositories.Repositories
	store  *storagetest.FlakyStore
	mailer *fakeMailer
	user   models.User
}

func newTestEnv(t *testing.T, signedIn bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := storagetest.NewFlakyStore(memory.New())
	repos := repositories.New(logger.Discard(), store, repositories.Options{WriteRetries: 3})
	require.NoError(t, repos.Seed(ctx, logger.Discard()))
	user, err := repos.Users.Insert(ctx, models.User{
		Name:      "Maria Silva",
		Email:     "maria@mail.com",
		Password:  "secret1",
		CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	if signedIn {
		require.NoError(t, repos.Session.Save(ctx, user))
	}
	mailer := &fakeMailer{}
	svc := New(logger.Discard(), repos.Users, repos.Plans, repos.Subscriptions, repos.Session, mailer, inlineExecutor{},
		Options{YearlyDiscount: 0.2, WorkflowTTL: time.Hour})
	svc.now = func() time.Time { return fixedNow }
	return &testEnv{svc: svc, repos: repos, store: store, mailer: mailer, user: user}
}

func validCard() *CardDetails {
	return &CardDetails{Number: "4111 1111 1111 1111", Name: "MARIA SILVA", Expiry: "12/27", CVV: "123"}
}

// advance fills every step and stops at confirmation.
func advance(t *testing.T, svc *Service, w *Workflow) {
	t.Helper()
	require.NoError(t, svc.Next(w))
	require.NoError(t, w.SetPayment(PaymentInfo{Method: MethodCreditCard, Card: validCard()}))
	require.NoError(t, svc.Next(w))
	require.NoError(t, w.SetTerms(true))
	require.Equal(t, StepConfirmation, w.Step())
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t, false)
		_, err := env.svc.Start(ctx, "2", fields.PeriodMonthly)
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("unknown plan", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, err := env.svc.Start(ctx, "99", fields.PeriodMonthly)
		assert.ErrorIs(t, err, ErrPlanNotFound)
		_, err = env.svc.Start(ctx, "gold", fields.PeriodMonthly)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("invalid period", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, err := env.svc.Start(ctx, "2", fields.Period("weekly"))
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})

	t.Run("plan by name prefills account", func(t *testing.T) {
		env := newTestEnv(t, true)
		w, err := env.svc.Start(ctx, "padrao", "")
		require.NoError(t, err)
		view := env.svc.View(w)
		assert.Equal(t, "Padrão", view.Plan.Name)
		assert.Equal(t, fields.PeriodMonthly, view.Period)
		assert.Equal(t, StepAccountInfo, view.Step)
		assert.Equal(t, "Maria Silva", view.Account.Name)
		assert.Equal(t, "maria@mail.com", view.Account.Email)
		assert.Empty(t, view.Account.Password)

		found, err := env.svc.Workflow(w.ID())
		require.NoError(t, err)
		assert.Same(t, w, found)
	})
}

func TestNextValidatesEachStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	w, err := env.svc.Start(ctx, "1", fields.PeriodMonthly)
	require.NoError(t, err)

	require.NoError(t, w.SetAccount(AccountInfo{Name: " ", Email: "maria@", Password: "123"}))
	err = env.svc.Next(w)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StepAccountInfo, verr.Step)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Equal(t, StepAccountInfo, w.Step())

	require.NoError(t, w.SetAccount(AccountInfo{Name: "Maria", Email: "maria@mail.com", Password: "123456"}))
	require.NoError(t, env.svc.Next(w))
	assert.Equal(t, StepPaymentMethod, w.Step())

	err = env.svc.Next(w)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepPaymentMethod, verr.Step)
	for _, field := range []string{"card_number", "card_name", "card_expiry", "card_cvv"} {
		assert.Contains(t, verr.Fields, field)
	}

	require.NoError(t, w.SetPayment(PaymentInfo{Method: MethodCreditCard, Card: &CardDetails{
		Number: "4111 1111", Name: "Maria", Expiry: "13/27", CVV: "12a",
	}}))
	err = env.svc.Next(w)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"card_cvv", "card_expiry", "card_number"}, sortedKeys(verr.Fields))

	require.NoError(t, w.SetPayment(PaymentInfo{Method: "cash"}))
	err = env.svc.Next(w)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "method")

	require.NoError(t, w.SetPayment(PaymentInfo{Method: MethodPix}))
	require.NoError(t, env.svc.Next(w))
	assert.Equal(t, StepConfirmation, w.Step())

	err = env.svc.Next(w)
	assert.ErrorIs(t, err, ErrNoNextStep)

	_, err = env.svc.Complete(ctx, w)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "accepted")
	assert.Equal(t, StepConfirmation, w.Step())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestPreviousKeepsData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	w, err := env.svc.Start(ctx, "1", fields.PeriodMonthly)
	require.NoError(t, err)

	assert.ErrorIs(t, w.Previous(), ErrAtFirstStep)

	require.NoError(t, env.svc.Next(w))
	require.NoError(t, w.SetPayment(PaymentInfo{Method: MethodBoleto}))
	require.NoError(t, env.svc.Next(w))
	require.NoError(t, w.Previous())
	assert.Equal(t, StepPaymentMethod, w.Step())
	assert.Equal(t, MethodBoleto, env.svc.View(w).Payment.Method)
}

func TestPromoCodes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	w, err := env.svc.Start(ctx, "2", fields.PeriodMonthly)
	require.NoError(t, err)

	promo, err := w.ApplyPromoCode(" welcome20 ")
	require.NoError(t, err)
	assert.Equal(t, Promo{Code: "WELCOME20", Discount: 0.2}, promo)

	_, err = w.ApplyPromoCode("FREE100")
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
	assert.Equal(t, "WELCOME20", env.svc.View(w).PromoCode)
	assert.InDelta(t, 23.92, env.svc.View(w).FinalPrice, 0.001)
}

func TestPrice(t *testing.T) {
	basic := models.Plan{Price: 19.90}
	standard := models.Plan{Price: 29.90}
	tests := []struct {
		name   string
		plan   models.Plan
		period fields.Period
		promo  string
		want   float64
	}{
		{"monthly", standard, fields.PeriodMonthly, "", 29.90},
		{"yearly", standard, fields.PeriodYearly, "", 23.92},
		{"yearly with promo", standard, fields.PeriodYearly, "WELCOME20", 19.14},
		{"monthly with promo", basic, fields.PeriodMonthly, "FIRST30", 13.93},
		{"yearly student", standard, fields.PeriodYearly, "STUDENT15", 20.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var promo Promo
			if tt.promo != "" {
				var err error
				promo, err = LookupPromo(tt.promo)
				require.NoError(t, err)
			}
			assert.InDelta(t, tt.want, Price(tt.plan, tt.period, 0.2, promo), 0.001)
		})
	}
}

func TestEndDate(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), EndDate(start, fields.PeriodYearly))
	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), EndDate(start, fields.PeriodMonthly))
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	w, err := env.svc.Start(ctx, "2", fields.PeriodYearly)
	require.NoError(t, err)

	_, err = env.svc.Complete(ctx, w)
	assert.ErrorIs(t, err, ErrNotReady)

	advance(t, env.svc, w)
	receipt, err := env.svc.Complete(ctx, w)
	require.NoError(t, err)

	assert.Equal(t, StepCompleted, w.Step())
	assert.InDelta(t, 23.92, receipt.FinalPrice, 0.001)
	assert.Equal(t, "Padrão", receipt.PlanName)
	assert.Empty(t, receipt.User.Password)
	assert.Equal(t, models.PaymentStatusActive, receipt.Subscription.PaymentStatus)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), receipt.Subscription.EndDate)

	user, err := env.repos.Users.FindByID(ctx, env.user.ID)
	require.NoError(t, err)
	require.NotNil(t, user.PlanID)
	assert.Equal(t, int64(2), *user.PlanID)
	assert.Equal(t, fields.PeriodYearly, user.SubscriptionPeriod)
	require.NotNil(t, user.SubscriptionStart)
	assert.True(t, fixedNow.Equal(*user.SubscriptionStart))

	session, ok, err := env.repos.Session.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, session.PlanID)
	assert.Equal(t, int64(2), *session.PlanID)

	subs, err := env.repos.Subscriptions.ListByUser(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.InDelta(t, 23.92, subs[0].AmountPaid, 0.001)
	assert.Equal(t, fields.PeriodYearly, subs[0].Period)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "maria@mail.com", env.mailer.sent[0].to)
	assert.Equal(t, mails.TmplReceipt, env.mailer.sent[0].tmpl)

	_, err = env.svc.Complete(ctx, w)
	assert.ErrorIs(t, err, ErrCompleted)
	assert.ErrorIs(t, w.Previous(), ErrCompleted)
}

func TestCompleteRevalidatesPassedSteps(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		edit   func(w *Workflow) error
		step   Step
		fields []string
	}{
		{
			name: "account edited after passing",
			edit: func(w *Workflow) error {
				return w.SetAccount(AccountInfo{Name: "Maria", Email: "not-an-email", Password: "1"})
			},
			step:   StepAccountInfo,
			fields: []string{"email", "password"},
		},
		{
			name: "card edited after passing",
			edit: func(w *Workflow) error {
				return w.SetPayment(PaymentInfo{Method: MethodCreditCard, Card: &CardDetails{Number: "12", Name: "M", Expiry: "99/99", CVV: "x"}})
			},
			step:   StepPaymentMethod,
			fields: []string{"card_cvv", "card_expiry", "card_number"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true)
			w, err := env.svc.Start(ctx, "2", fields.PeriodMonthly)
			require.NoError(t, err)
			advance(t, env.svc, w)
			require.NoError(t, tt.edit(w))

			_, err = env.svc.Complete(ctx, w)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.step, verr.Step)
			got := make([]string, 0, len(verr.Fields))
			for field := range verr.Fields {
				got = append(got, field)
			}
			sort.Strings(got)
			assert.Equal(t, tt.fields, got)
			assert.Equal(t, tt.step, w.Step())

			user, err := env.repos.Users.FindByID(ctx, env.user.ID)
			require.NoError(t, err)
			assert.Nil(t, user.PlanID)
			subs, err := env.repos.Subscriptions.ListByUser(ctx, env.user.ID)
			require.NoError(t, err)
			assert.Empty(t, subs)
			assert.Empty(t, env.mailer.sent)
		})
	}
}

func TestCompleteRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	w, err := env.svc.Start(ctx, "3", fields.PeriodMonthly)
	require.NoError(t, err)
	_, err = w.ApplyPromoCode("FIRST30")
	require.NoError(t, err)
	advance(t, env.svc, w)

	env.store.FailSet(storage.KeySubscriptions)
	_, err = env.svc.Complete(ctx, w)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	view := env.svc.View(w)
	assert.Equal(t, StepPaymentMethod, view.Step)
	assert.NotEmpty(t, view.LastError)
	assert.Equal(t, "FIRST30", view.PromoCode)
	require.NotNil(t, view.Payment.Card)
	assert.Equal(t, "************1111", view.Payment.Card.Number)
	assert.True(t, view.Terms.Accepted)

	user, err := env.repos.Users.FindByID(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Nil(t, user.PlanID)
	assert.Nil(t, user.SubscriptionStart)
	assert.Empty(t, env.mailer.sent)

	env.store.Heal(storage.KeySubscriptions)
	require.NoError(t, env.svc.Next(w))
	receipt, err := env.svc.Complete(ctx, w)
	require.NoError(t, err)
	assert.InDelta(t, 27.93, receipt.FinalPrice, 0.001)
	assert.Empty(t, env.svc.View(w).LastError)
}

func TestCompleteRestoresPreviousPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	basic := int64(1)
	start := fixedNow.AddDate(0, -2, 0)
	monthly := fields.PeriodMonthly
	_, err := env.repos.Users.Update(ctx, env.user.ID, repositories.UserPatch{
		PlanID: &basic, SubscriptionStart: &start, SubscriptionPeriod: &monthly,
	})
	require.NoError(t, err)

	w, err := env.svc.Start(ctx, "3", fields.PeriodYearly)
	require.NoError(t, err)
	advance(t, env.svc, w)

	env.store.FailSet(storage.KeyCurrentUser)
	_, err = env.svc.Complete(ctx, w)
	require.Error(t, err)

	user, err := env.repos.Users.FindByID(ctx, env.user.ID)
	require.NoError(t, err)
	require.NotNil(t, user.PlanID)
	assert.Equal(t, basic, *user.PlanID)
	assert.True(t, start.Equal(*user.SubscriptionStart))
	assert.Equal(t, fields.PeriodMonthly, user.SubscriptionPeriod)

	subs, err := env.repos.Subscriptions.ListByUser(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCompleteHonoursCancellation(t *testing.T) {
	env := newTestEnv(t, true)
	env.svc.opts.ProcessingDelay = time.Minute
	w, err := env.svc.Start(context.Background(), "1", fields.PeriodMonthly)
	require.NoError(t, err)
	advance(t, env.svc, w)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = env.svc.Complete(ctx, w)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StepConfirmation, w.Step())
}

func TestRegistryExpires(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := fixedNow
	r.now = func() time.Time { return now }

	id := r.Add(&Workflow{})
	_, err := r.Get(id)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	_, err = r.Get(id)
	require.NoError(t, err, "access refreshes the entry")

	now = now.Add(2 * time.Minute)
	_, err = r.Get(id)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.Zero(t, r.Len())
}

func TestGift(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t, false)
		err := env.svc.Gift(ctx, "1", "joao@mail.com", "")
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	env := newTestEnv(t, true)
	assert.ErrorIs(t, env.svc.Gift(ctx, "1", "joao", ""), ErrInvalidRecipient)
	assert.ErrorIs(t, env.svc.Gift(ctx, "7", "joao@mail.com", ""), ErrPlanNotFound)

	require.NoError(t, env.svc.Gift(ctx, "premium", "joao@mail.com", "Feliz aniversário"))
	require.Len(t, env.mailer.sent, 1)
	sent := env.mailer.sent[0]
	assert.Equal(t, "joao@mail.com", sent.to)
	assert.Equal(t, mails.TmplGift, sent.tmpl)
	assert.Equal(t, "Premium", sent.data.(map[string]any)["PlanName"])
}
