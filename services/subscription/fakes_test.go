package subscription_test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
	"fieldbook/services/payment"
	"fieldbook/services/subscription"
)

// In-memory collaborators for the lifecycle engine tests.

type fakeSubStore struct {
	mu          sync.Mutex
	subs        map[string]models.Subscription
	failUpdates bool
}

func newFakeSubStore(subs ...models.Subscription) *fakeSubStore {
	r := &fakeSubStore{subs: make(map[string]models.Subscription)}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *fakeSubStore) Create(_ context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = *sub
	return nil
}

func (r *fakeSubStore) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (r *fakeSubStore) GetByPlanRefID(_ context.Context, planRefID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.PlanRef.ID == planRefID {
			out := s
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeSubStore) ListActiveByField(_ context.Context, fieldID string) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.subs {
		if s.FieldID == fieldID && s.Status == models.SubscriptionActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubStore) ListDueForRetry(_ context.Context, now time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.subs {
		if s.Status == models.SubscriptionPastDue &&
			s.PaymentRetryCount < models.MaxPaymentRetries &&
			s.NextRetryAt != nil && !s.NextRetryAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubStore) Update(_ context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates {
		return subscriptionRepo.ErrVersionConflict
	}
	stored, ok := r.subs[sub.ID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if stored.Version != sub.Version {
		return subscriptionRepo.ErrVersionConflict
	}
	sub.Version++
	sub.UpdatedAt = time.Now()
	r.subs[sub.ID] = *sub
	return nil
}

func (r *fakeSubStore) mustGet(id string) models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id]
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func newFakeBookingStore(bookings ...models.Booking) *fakeBookingStore {
	r := &fakeBookingStore{bookings: make(map[string]models.Booking)}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingStore) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &b, nil
}

func (r *fakeBookingStore) GetActiveByFieldAndDate(_ context.Context, fieldID, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.FieldID == fieldID && b.Date == date && b.Status != models.BookingCancelled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingStore) GetFutureBySubscription(_ context.Context, subscriptionID, fromDate string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.SubscriptionID == subscriptionID && b.Date >= fromDate && b.Status == models.BookingConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingStore) UpdateStatus(_ context.Context, id, status, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	b.Status = status
	b.PaymentStatus = paymentStatus
	r.bookings[id] = b
	return nil
}

func (r *fakeBookingStore) CancelFutureBySubscription(_ context.Context, subscriptionID, fromDate string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.bookings {
		if b.SubscriptionID == subscriptionID && b.Date >= fromDate && b.Status == models.BookingConfirmed {
			b.Status = models.BookingCancelled
			b.PaymentStatus = models.PaymentCancelled
			r.bookings[id] = b
			n++
		}
	}
	return n, nil
}

type fakeFieldStore struct {
	fields map[string]models.Field
}

func newFakeFieldStore(fields ...models.Field) *fakeFieldStore {
	r := &fakeFieldStore{fields: make(map[string]models.Field)}
	for _, f := range fields {
		r.fields[f.ID] = f
	}
	return r
}

func (r *fakeFieldStore) Create(_ context.Context, field *models.Field) error {
	r.fields[field.ID] = *field
	return nil
}

func (r *fakeFieldStore) GetByID(_ context.Context, id string) (*models.Field, error) {
	f, ok := r.fields[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &f, nil
}

func (r *fakeFieldStore) ListByOwner(_ context.Context, ownerID string) ([]models.Field, error) {
	var out []models.Field
	for _, f := range r.fields {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeRecordStore struct {
	mu              sync.Mutex
	payouts         []models.Payout
	transactions    []models.Transaction
	canceledPayouts []string
}

func (r *fakeRecordStore) CreatePayout(_ context.Context, payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts = append(r.payouts, *payout)
	return nil
}

func (r *fakeRecordStore) CancelPayoutsByBooking(_ context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceledPayouts = append(r.canceledPayouts, bookingID)
	return nil
}

func (r *fakeRecordStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *tx)
	return nil
}

type sentNotification struct {
	RecipientID string
	Type        string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID, notifType, _, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Type: notifType})
	return nil
}

func (n *fakeNotifier) ListForRecipient(_ context.Context, _ string, _ int) ([]models.Notification, error) {
	return nil, nil
}

func (n *fakeNotifier) sentOfType(notifType string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.Type == notifType {
			out = append(out, s)
		}
	}
	return out
}

type planCancel struct {
	PlanID    string
	Immediate bool
}

type refundCall struct {
	PaymentRef string
	Amount     float64
	Currency   string
	Reason     string
}

type fakeGateway struct {
	mu sync.Mutex

	customerSeq int
	attached    []string
	defaulted   []string

	plans       []payment.PlanSpec
	planResult  payment.Plan
	planErr     error
	planCancels []planCancel
	cancelErr   error

	payInvoiceStatus string
	payInvoiceErr    error
	payInvoiceCalls  []string

	refunds   []refundCall
	refundRef string
	refundErr error

	invoices    []payment.InvoiceSummary
	invoicesErr error
}

func (g *fakeGateway) CreateCustomer(_ context.Context, email, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customerSeq++
	return "cus_test", nil
}

func (g *fakeGateway) AttachPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attached = append(g.attached, paymentMethodID)
	return nil
}

func (g *fakeGateway) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaulted = append(g.defaulted, paymentMethodID)
	return nil
}

func (g *fakeGateway) CreateRecurringPlan(_ context.Context, spec payment.PlanSpec) (*payment.Plan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.planErr != nil {
		return nil, g.planErr
	}
	g.plans = append(g.plans, spec)
	plan := g.planResult
	if plan.ID == "" {
		plan = payment.Plan{ID: "sub_test", Status: "active", PaymentIntentID: "pi_first"}
	}
	return &plan, nil
}

func (g *fakeGateway) CancelPlan(_ context.Context, planID string, immediate bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.planCancels = append(g.planCancels, planCancel{PlanID: planID, Immediate: immediate})
	return g.cancelErr
}

func (g *fakeGateway) PayOpenInvoice(_ context.Context, planID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payInvoiceCalls = append(g.payInvoiceCalls, planID)
	if g.payInvoiceErr != nil {
		return "", g.payInvoiceErr
	}
	if g.payInvoiceStatus == "" {
		return "paid", nil
	}
	return g.payInvoiceStatus, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentRef string, amount float64, currency, reason string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{PaymentRef: paymentRef, Amount: amount, Currency: currency, Reason: reason})
	if g.refundRef == "" {
		return "re_test", nil
	}
	return g.refundRef, nil
}

func (g *fakeGateway) ListInvoices(_ context.Context, planID string, limit int) ([]payment.InvoiceSummary, error) {
	if g.invoicesErr != nil {
		return nil, g.invoicesErr
	}
	return g.invoices, nil
}

type generateCall struct {
	SubscriptionID string
	Date           string
	PaymentRef     string
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  []generateCall
	result []models.Booking
	err    error
	onCall func(subscriptionID, date string)
}

func (g *fakeGenerator) Generate(_ context.Context, subscriptionID, occurrenceDate, paymentRef string) ([]models.Booking, error) {
	g.mu.Lock()
	g.calls = append(g.calls, generateCall{SubscriptionID: subscriptionID, Date: occurrenceDate, PaymentRef: paymentRef})
	onCall := g.onCall
	g.mu.Unlock()
	if onCall != nil {
		onCall(subscriptionID, occurrenceDate)
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type scheduleCall struct {
	SubscriptionID string
	Date           string
	ProcessAt      time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduleCall
}

func (s *fakeScheduler) ScheduleOccurrence(_ context.Context, subscriptionID, occurrenceDate string, processAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduleCall{SubscriptionID: subscriptionID, Date: occurrenceDate, ProcessAt: processAt})
	return nil
}

// engineFixture bundles the engine with all of its fake collaborators.
type engineFixture struct {
	subs      *fakeSubStore
	bookings  *fakeBookingStore
	fields    *fakeFieldStore
	records   *fakeRecordStore
	gateway   *fakeGateway
	generator *fakeGenerator
	notifier  *fakeNotifier
	scheduler *fakeScheduler
	svc       *subscription.DefaultSubscriptionService
}

func newEngineFixture(subs ...models.Subscription) *engineFixture {
	f := &engineFixture{
		subs:     newFakeSubStore(subs...),
		bookings: newFakeBookingStore(),
		fields: newFakeFieldStore(models.Field{
			ID: "FLD-1", OwnerID: "owner-1", Name: "Willow Paddock",
			SessionMinutes: 60, HourlyRate: 10, Currency: "gbp", Active: true,
		}),
		records:   &fakeRecordStore{},
		gateway:   &fakeGateway{},
		generator: &fakeGenerator{},
		notifier:  &fakeNotifier{},
		scheduler: &fakeScheduler{},
	}
	f.svc = &subscription.DefaultSubscriptionService{
		Subscriptions: f.subs,
		Bookings:      f.bookings,
		Fields:        f.fields,
		Records:       f.records,
		Gateway:       f.gateway,
		Generator:     f.generator,
		Notifier:      f.notifier,
		Scheduler:     f.scheduler,
		LookAheadDays: 30,
		RetryDelay:    24 * time.Hour,
	}
	return f
}

func activeSubscription(id, planID string) models.Subscription {
	return models.Subscription{
		ID:      id,
		UserID:  "user-a",
		FieldID: "FLD-1",
		PlanRef: models.RecurringPlanRef(planID),
		Cadence: models.CadenceWeekly,
		Slots: []models.SubscriptionSlot{
			{Start: models.TimeOfDay(600), End: models.TimeOfDay(660)},
		},
		DogCount:  1,
		Currency:  "gbp",
		StartDate: models.DateOf(time.Now()),
		Status:    models.SubscriptionActive,
	}
}
