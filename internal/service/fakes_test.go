package service

import (
	"context"
	"sync"
	"time"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

type fakeOwners struct {
	mu     sync.Mutex
	byID   map[string]*model.Owner
	getErr error
}

func newFakeOwners() *fakeOwners { return &fakeOwners{byID: map[string]*model.Owner{}} }

func (f *fakeOwners) Create(_ context.Context, o *model.Owner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == o.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOwners) GetByEmail(_ context.Context, email string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, o := range f.byID {
		if o.Email == model.NormalizeEmail(email) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOwners) GetByEmailAndGym(ctx context.Context, email, gym string) (*model.Owner, error) {
	o, err := f.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if o.GymName != gym {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOwners) GetByID(_ context.Context, id string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.PasswordHash = hash
	o.PasswordChangedAt = &at
	return nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	ensured map[string]string
}

func (f *fakeProfiles) EnsureDefault(_ context.Context, ownerID, gym string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensured == nil {
		f.ensured = map[string]string{}
	}
	f.ensured[ownerID] = gym
	return nil
}

type fakeRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	err     error
}

func newFakeRevocations() *fakeRevocations { return &fakeRevocations{entries: map[string]time.Time{}} }

func (f *fakeRevocations) Revoke(_ context.Context, jti, _ string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[jti] = until
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.entries[jti]
	return ok, nil
}

type fakeResets struct {
	mu    sync.Mutex
	byJTI map[string]*model.PasswordReset
}

func newFakeResets() *fakeResets { return &fakeResets{byJTI: map[string]*model.PasswordReset{}} }

func (f *fakeResets) Create(_ context.Context, rec *model.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.byJTI[rec.JTI] = &cp
	return nil
}

func (f *fakeResets) GetByJTI(_ context.Context, jti string) (*model.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byJTI[jti]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeResets) MarkUsed(_ context.Context, jti string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byJTI[jti]
	if !ok || !rec.Usable(at) {
		return false, nil
	}
	rec.Used = true
	rec.UsedAt = &at
	return true, nil
}

func (f *fakeResets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byJTI)
}

// fakeTxs mirrors TransactionRepo.  Complete holds the lock across the
// status check and the writes, like the SQL transaction does.
type fakeTxs struct {
	mu       sync.Mutex
	byID     map[string]*model.PaymentTransaction
	payments []model.Payment
	coverage map[string]time.Time
}

func newFakeTxs() *fakeTxs {
	return &fakeTxs{byID: map[string]*model.PaymentTransaction{}, coverage: map[string]time.Time{}}
}

func (f *fakeTxs) Create(_ context.Context, t *model.PaymentTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Gateway == t.Gateway && existing.GatewayRef == t.GatewayRef {
			return repository.ErrConflict
		}
	}
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTxs) find(gw model.Gateway, ref, ownerID string) (*model.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.Gateway == gw && t.GatewayRef == ref && (ownerID == "" || t.OwnerID == ownerID) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTxs) GetByGatewayRef(_ context.Context, gw model.Gateway, ref string) (*model.PaymentTransaction, error) {
	return f.find(gw, ref, "")
}

func (f *fakeTxs) GetByGatewayRefForOwner(_ context.Context, ownerID string, gw model.Gateway, ref string) (*model.PaymentTransaction, error) {
	return f.find(gw, ref, ownerID)
}

func (f *fakeTxs) Complete(_ context.Context, s model.Settlement) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[s.TransactionID]
	if !ok || t.Status == model.TxCompleted {
		return false, nil
	}
	t.Status = model.TxCompleted
	pid := s.GatewayPaymentID
	t.GatewayPaymentID = &pid
	f.payments = append(f.payments, s.Payment)
	f.coverage[s.MemberID] = s.CoverageEnd
	return true, nil
}

func (f *fakeTxs) MarkStatus(_ context.Context, id string, status model.TransactionStatus, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || (t.Status != model.TxInitiated && t.Status != model.TxPending) {
		return false, nil
	}
	t.Status = status
	return true, nil
}

func (f *fakeTxs) status(gw model.Gateway, ref string) model.TransactionStatus {
	t, err := f.find(gw, ref, "")
	if err != nil {
		return ""
	}
	return t.Status
}

func (f *fakeTxs) paymentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payments)
}

func (f *fakeTxs) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeMembers map[string]*model.Member

func (f fakeMembers) Get(_ context.Context, ownerID, id string) (*model.Member, error) {
	m, ok := f[id]
	if !ok || m.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

type fakeCard struct {
	createErr error
	session   gateway.CheckoutSession
	event     gateway.Event
	parseErr  error
	created   []gateway.CheckoutRequest
}

func (f *fakeCard) CreateCheckout(_ context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := f.session
	return &s, nil
}

func (f *fakeCard) GetCheckout(_ context.Context, id string) (*gateway.CheckoutSession, error) {
	s := f.session
	s.ID = id
	return &s, nil
}

func (f *fakeCard) ParseWebhook([]byte, string) (gateway.Event, error) {
	return f.event, f.parseErr
}

type fakeOrders struct {
	order     gateway.Order
	createErr error
	verifyErr error
	event     gateway.Event
	parseErr  error
}

func (f *fakeOrders) CreateOrder(gateway.OrderRequest) (*gateway.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	o := f.order
	return &o, nil
}

func (f *fakeOrders) VerifyPayment(string, string, string) error { return f.verifyErr }

func (f *fakeOrders) ParseWebhook([]byte, string) (gateway.Event, error) {
	return f.event, f.parseErr
}

type recordingDispatcher struct {
	mu   sync.Mutex
	reqs []SettleRequest
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req SettleRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return d.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
