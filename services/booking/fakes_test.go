package booking_test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
)

// In-memory repository fakes shared by the availability and generator tests.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			b := r.bookings[i]
			return &b, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeBookingRepo) GetActiveByFieldAndDate(_ context.Context, fieldID, date string) ([]models.Booking, error) {
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

func (r *fakeBookingRepo) GetFutureBySubscription(_ context.Context, subscriptionID, fromDate string) ([]models.Booking, error) {
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

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id, status, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			r.bookings[i].Status = status
			r.bookings[i].PaymentStatus = paymentStatus
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeBookingRepo) CancelFutureBySubscription(_ context.Context, subscriptionID, fromDate string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.bookings {
		b := &r.bookings[i]
		if b.SubscriptionID == subscriptionID && b.Date >= fromDate && b.Status == models.BookingConfirmed {
			b.Status = models.BookingCancelled
			b.PaymentStatus = models.PaymentCancelled
			n++
		}
	}
	return n, nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func newFakeSubscriptionRepo(subs ...models.Subscription) *fakeSubscriptionRepo {
	r := &fakeSubscriptionRepo{subs: make(map[string]models.Subscription)}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = *sub
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (r *fakeSubscriptionRepo) GetByPlanRefID(_ context.Context, planRefID string) (*models.Subscription, error) {
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

func (r *fakeSubscriptionRepo) ListActiveByField(_ context.Context, fieldID string) ([]models.Subscription, error) {
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

func (r *fakeSubscriptionRepo) ListDueForRetry(_ context.Context, now time.Time) ([]models.Subscription, error) {
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

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type fakeFieldRepo struct {
	fields map[string]models.Field
}

func newFakeFieldRepo(fields ...models.Field) *fakeFieldRepo {
	r := &fakeFieldRepo{fields: make(map[string]models.Field)}
	for _, f := range fields {
		r.fields[f.ID] = f
	}
	return r
}

func (r *fakeFieldRepo) Create(_ context.Context, field *models.Field) error {
	r.fields[field.ID] = *field
	return nil
}

func (r *fakeFieldRepo) GetByID(_ context.Context, id string) (*models.Field, error) {
	f, ok := r.fields[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &f, nil
}

func (r *fakeFieldRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Field, error) {
	var out []models.Field
	for _, f := range r.fields {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeCounterRepo struct {
	mu  sync.Mutex
	seq int64
}

func (r *fakeCounterRepo) Next(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq == 0 {
		r.seq = 1111
	}
	r.seq++
	return r.seq, nil
}

type fakeRecordRepo struct {
	mu           sync.Mutex
	payouts      []models.Payout
	transactions []models.Transaction
	canceled     []string
}

func (r *fakeRecordRepo) CreatePayout(_ context.Context, payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts = append(r.payouts, *payout)
	return nil
}

func (r *fakeRecordRepo) CancelPayoutsByBooking(_ context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, bookingID)
	return nil
}

func (r *fakeRecordRepo) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *tx)
	return nil
}

type sentNotification struct {
	RecipientID string
	Type        string
	Title       string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID, notifType, title, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Type: notifType, Title: title})
	return nil
}

func (n *fakeNotifier) ListForRecipient(_ context.Context, recipientID string, _ int) ([]models.Notification, error) {
	return nil, nil
}
