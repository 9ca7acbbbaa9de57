package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/lib/validator"
	"cineflix/proj/internal/mails"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/auth"
	"cineflix/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type UsersStorage interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
	Update(ctx context.Context, id int64, patch repositories.UserPatch) (models.User, error)
}

type PlansStorage interface {
	FindByID(ctx context.Context, id int64) (models.Plan, error)
	FindByName(ctx context.Context, name string) (models.Plan, error)
}

type SubscriptionsStorage interface {
	Insert(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	DeleteByID(ctx context.Context, id int64) error
}

type SessionStorage interface {
	Load(ctx context.Context) (models.User, bool, error)
	Save(ctx context.Context, user models.User) error
}

type Options struct {
	YearlyDiscount  float64
	ProcessingDelay time.Duration
	WorkflowTTL     time.Duration
}

type Service struct {
	log           *slog.Logger
	users         UsersStorage
	plans         PlansStorage
	subscriptions SubscriptionsStorage
	session       SessionStorage
	mailer        auth.MailProvider
	taskExecutor  auth.TaskExecutor
	validator     *govalidator.Validate
	registry      *Registry
	opts          Options
	now           func() time.Time
}

func New(
	log *slog.Logger,
	users UsersStorage,
	plans PlansStorage,
	subscriptions SubscriptionsStorage,
	session SessionStorage,
	mailer auth.MailProvider,
	taskExecutor auth.TaskExecutor,
	opts Options,
) *Service {
	return &Service{
		log:           log,
		users:         users,
		plans:         plans,
		subscriptions: subscriptions,
		session:       session,
		mailer:        mailer,
		taskExecutor:  taskExecutor,
		validator:     validator.New(),
		registry:      NewRegistry(opts.WorkflowTTL),
		opts:          opts,
		now:           time.Now,
	}
}

func (s *Service) currentUser(ctx context.Context) (models.User, error) {
	user, ok, err := s.session.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, auth.ErrNotAuthenticated
	}
	return user, nil
}

// resolvePlan accepts a numeric id or a plan name.
func (s *Service) resolvePlan(ctx context.Context, ref string) (models.Plan, error) {
	ref = strings.TrimSpace(ref)
	var (
		plan models.Plan
		err  error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		plan, err = s.plans.FindByID(ctx, id)
	} else {
		plan, err = s.plans.FindByName(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Plan{}, ErrPlanNotFound
		}
		return models.Plan{}, err
	}
	return plan, nil
}

// Start opens a checkout for the signed-in user with the account step
// pre-filled from the session.
func (s *Service) Start(ctx context.Context, planRef string, period fields.Period) (*Workflow, error) {
	const op = "checkout.Service.Start"
	log := s.log.With("op", op, "plan", planRef)
	if period == "" {
		period = fields.PeriodMonthly
	}
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.resolvePlan(ctx, planRef)
	if err != nil {
		if !errors.Is(err, ErrPlanNotFound) {
			log.Error("Error resolving plan", "errMsg", err.Error())
		}
		return nil, err
	}
	w := newWorkflow(user.ID, plan, period, AccountInfo{
		Name:     user.Name,
		Email:    user.Email,
		Password: user.Password,
	}, s.now())
	id := s.registry.Add(w)
	log.Info("plan_selected", "checkout_id", id, "user_id", user.ID, "plan_id", plan.ID, "period", period)
	return w, nil
}

func (s *Service) Workflow(id string) (*Workflow, error) {
	return s.registry.Get(id)
}

func (s *Service) Cancel(id string) {
	s.registry.Remove(id)
}

func (s *Service) View(w *Workflow) View {
	return w.View(s.opts.YearlyDiscount)
}

// validate checks the data of the step w is on. Callers hold w.mu.
func (s *Service) validate(w *Workflow) error {
	return s.validateStep(w, w.step)
}

func (s *Service) validateStep(w *Workflow, step Step) error {
	var errs map[string]string
	switch step {
	case StepAccountInfo:
		errs = validator.ValidateStruct(s.validator, &w.account)
	case StepPaymentMethod:
		errs = validator.ValidateStruct(s.validator, &w.payment)
		if errs == nil && w.payment.Method == MethodCreditCard {
			card := w.payment.Card
			if card == nil {
				card = &CardDetails{}
			}
			errs = validator.ValidateStruct(s.validator, card)
		}
	case StepConfirmation:
		errs = validator.ValidateStruct(s.validator, &w.terms)
	}
	if len(errs) > 0 {
		return &ValidationError{Step: step, Fields: errs}
	}
	return nil
}

// Next validates the current step and advances. On failure the workflow
// stays where it is.
func (s *Service) Next(w *Workflow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepConfirmation:
		return ErrNoNextStep
	case StepCompleted:
		return ErrCompleted
	}
	if err := s.validate(w); err != nil {
		return err
	}
	w.step++
	w.lastError = ""
	return nil
}

// Complete charges the plan and records the subscription. A failed write
// sends the workflow back to the payment step with the data kept.
func (s *Service) Complete(ctx context.Context, w *Workflow) (Receipt, error) {
	const op = "checkout.Service.Complete"
	w.mu.Lock()
	defer w.mu.Unlock()
	log := s.log.With("op", op, "checkout_id", w.id, "user_id", w.userID, "plan_id", w.plan.ID)

	switch w.step {
	case StepCompleted:
		return Receipt{}, ErrCompleted
	case StepConfirmation:
	default:
		return Receipt{}, ErrNotReady
	}
	// Passed steps can still be edited, so every step is checked again. The
	// workflow returns to the first one that no longer validates.
	for step := StepAccountInfo; step <= StepConfirmation; step++ {
		if err := s.validateStep(w, step); err != nil {
			w.step = step
			log.Info("checkout data invalid at completion", "step", step)
			return Receipt{}, err
		}
	}
	price := Price(w.plan, w.period, s.opts.YearlyDiscount, w.promo)
	log.Info("payment_attempt", "method", w.payment.Method, "period", w.period, "amount", price, "promo", w.promo.Code)

	if err := s.wait(ctx); err != nil {
		return Receipt{}, err
	}

	receipt, err := s.persist(ctx, log, w, price)
	if err != nil {
		w.step = StepPaymentMethod
		w.lastError = err.Error()
		return Receipt{}, err
	}
	w.step = StepCompleted
	w.lastError = ""
	w.receipt = &receipt
	log.Info("subscription completed", "subscription_id", receipt.Subscription.ID)

	s.sendLater(receipt.User.Email, mails.TmplReceipt, map[string]any{
		"Name":     receipt.User.Name,
		"PlanName": receipt.PlanName,
		"Period":   receipt.Subscription.Period,
		"Amount":   receipt.FinalPrice,
		"EndDate":  receipt.Subscription.EndDate,
	})
	return receipt, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.opts.ProcessingDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.ProcessingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) persist(ctx context.Context, log *slog.Logger, w *Workflow, price float64) (Receipt, error) {
	previous, err := s.users.FindByID(ctx, w.userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Receipt{}, ErrUserNotFound
		}
		log.Error("Error loading user", "errMsg", err.Error())
		return Receipt{}, err
	}

	start := s.now().UTC()
	period := w.period
	planID := w.plan.ID
	user, err := s.users.Update(ctx, w.userID, repositories.UserPatch{
		PlanID:             &planID,
		SubscriptionStart:  &start,
		SubscriptionPeriod: &period,
	})
	if err != nil {
		log.Error("Error assigning plan", "errMsg", err.Error())
		return Receipt{}, err
	}

	sub, err := s.subscriptions.Insert(ctx, models.Subscription{
		UserID:        w.userID,
		PlanID:        planID,
		StartDate:     start,
		EndDate:       EndDate(start, period),
		PaymentStatus: models.PaymentStatusActive,
		AmountPaid:    price,
		Period:        period,
	})
	if err != nil {
		log.Error("Error recording subscription", "errMsg", err.Error())
		s.restorePlan(ctx, log, previous)
		return Receipt{}, err
	}

	if err := s.session.Save(ctx, user); err != nil {
		log.Error("Error updating session", "errMsg", err.Error())
		if delErr := s.subscriptions.DeleteByID(ctx, sub.ID); delErr != nil {
			log.Error("Error removing subscription", "subscription_id", sub.ID, "errMsg", delErr.Error())
		}
		s.restorePlan(ctx, log, previous)
		return Receipt{}, err
	}

	receiptUser := user
	receiptUser.Password = ""
	return Receipt{
		Subscription: sub,
		User:         receiptUser,
		PlanName:     w.plan.Name,
		FinalPrice:   price,
	}, nil
}

// restorePlan puts back the plan fields the user had before checkout.
// Failures are only logged.
func (s *Service) restorePlan(ctx context.Context, log *slog.Logger, previous models.User) {
	patch := repositories.UserPatch{ClearPlan: true}
	if previous.HasPlan() {
		period := previous.SubscriptionPeriod
		patch.PlanID = previous.PlanID
		patch.SubscriptionStart = previous.SubscriptionStart
		patch.SubscriptionPeriod = &period
	}
	if _, err := s.users.Update(ctx, previous.ID, patch); err != nil {
		log.Error("Error restoring previous plan", "errMsg", err.Error())
	}
}

// Gift mails a plan offer to recipient on behalf of the signed-in user.
func (s *Service) Gift(ctx context.Context, planRef, recipient, message string) error {
	const op = "checkout.Service.Gift"
	log := s.log.With("op", op, "plan", planRef)
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	recipient = strings.TrimSpace(recipient)
	if !validator.IsEmail(recipient) {
		return ErrInvalidRecipient
	}
	plan, err := s.resolvePlan(ctx, planRef)
	if err != nil {
		return err
	}
	log.Info("gift sent", "user_id", user.ID, "plan_id", plan.ID)
	s.sendLater(recipient, mails.TmplGift, map[string]any{
		"From":     user.Name,
		"PlanName": plan.Name,
		"Message":  strings.TrimSpace(message),
	})
	return nil
}

func (s *Service) sendLater(recipient, tmpl string, data any) {
	if s.mailer == nil || s.taskExecutor == nil {
		return
	}
	ok := s.taskExecutor.Add(func() {
		if err := s.mailer.Send(recipient, tmpl, data); err != nil {
			s.log.Error("Error sending email", "template", tmpl, "errMsg", err.Error())
		}
	})
	if !ok {
		s.log.Warn("email dropped, task queue is full", "template", tmpl)
	}
}
