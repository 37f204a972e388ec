package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/mailer"
	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/queue"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

// ====================== Customers ======================

type mockCustomerRepo struct {
	mu        sync.Mutex
	customers map[int64]model.Customer
	nextID    int64
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: map[int64]model.Customer{}, nextID: 1}
}

func (m *mockCustomerRepo) add(c model.Customer) model.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	m.customers[c.ID] = c
	return c
}

func (m *mockCustomerRepo) list(shopID int64, keep func(model.Customer) bool) []model.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Customer{}
	for _, c := range m.customers {
		if c.ShopID == shopID && keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, shopID, id int64) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok || c.ShopID != shopID {
		return nil, nil
	}
	return &c, nil
}

func (m *mockCustomerRepo) ListByShop(ctx context.Context, shopID int64) ([]model.Customer, error) {
	return m.list(shopID, func(model.Customer) bool { return true }), nil
}

func (m *mockCustomerRepo) ListByIDs(ctx context.Context, shopID int64, ids []int64) ([]model.Customer, error) {
	want := map[int64]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return m.list(shopID, func(c model.Customer) bool {
		_, ok := want[c.ID]
		return ok
	}), nil
}

func (m *mockCustomerRepo) ListFiltered(ctx context.Context, shopID int64, vipOnly bool, search string, offset, limit int) ([]model.Customer, int, error) {
	all := m.list(shopID, func(c model.Customer) bool { return !vipOnly || c.VIP })
	return all, len(all), nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	*c = m.add(*c)
	return nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = *c
	return nil
}

func (m *mockCustomerRepo) Delete(ctx context.Context, shopID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerRepo) ListNew(ctx context.Context, shopID int64, since time.Time) ([]model.Customer, error) {
	return m.list(shopID, func(c model.Customer) bool { return c.CreatedAt.After(since) }), nil
}

func (m *mockCustomerRepo) ListVIP(ctx context.Context, shopID int64) ([]model.Customer, error) {
	return m.list(shopID, func(c model.Customer) bool { return c.VIP }), nil
}

func (m *mockCustomerRepo) ListHighSpenders(ctx context.Context, shopID int64, minCents int64) ([]model.Customer, error) {
	return m.list(shopID, func(c model.Customer) bool { return c.TotalSpentCents >= minCents }), nil
}

func (m *mockCustomerRepo) ListBirthdayMonth(ctx context.Context, shopID int64, month time.Month) ([]model.Customer, error) {
	return m.list(shopID, func(c model.Customer) bool { return c.Birthday != nil && c.Birthday.Month() == month }), nil
}

func (m *mockCustomerRepo) ListInactive(ctx context.Context, shopID int64, cutoff time.Time) ([]model.Customer, error) {
	return m.list(shopID, func(c model.Customer) bool { return c.LastOrderAt == nil || c.LastOrderAt.Before(cutoff) }), nil
}

var _ repository.CustomerRepositoryInterface = (*mockCustomerRepo)(nil)

// ====================== Audiences ======================

type mockAudienceRepo struct {
	mu        sync.Mutex
	audiences map[int64]model.Audience
	nextID    int64
}

func newMockAudienceRepo() *mockAudienceRepo {
	return &mockAudienceRepo{audiences: map[int64]model.Audience{}, nextID: 1}
}

func (m *mockAudienceRepo) GetByID(ctx context.Context, shopID, id int64) (*model.Audience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.audiences[id]
	if !ok || a.ShopID != shopID {
		return nil, appErrors.NewAudienceNotFound(id)
	}
	ids := make([]int64, len(a.CustomerIDs))
	copy(ids, a.CustomerIDs)
	a.CustomerIDs = ids
	return &a, nil
}

func (m *mockAudienceRepo) ListByShop(ctx context.Context, shopID int64) ([]model.Audience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Audience{}
	for _, a := range m.audiences {
		if a.ShopID == shopID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAudienceRepo) Create(ctx context.Context, a *model.Audience) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	if a.CustomerIDs == nil {
		a.CustomerIDs = []int64{}
	}
	m.audiences[a.ID] = *a
	return nil
}

func (m *mockAudienceRepo) Update(ctx context.Context, a *model.Audience) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audiences[a.ID] = *a
	return nil
}

func (m *mockAudienceRepo) UpdateCustomerIDs(ctx context.Context, shopID, id int64, customerIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.audiences[id]
	a.CustomerIDs = append([]int64{}, customerIDs...)
	m.audiences[id] = a
	return nil
}

func (m *mockAudienceRepo) Delete(ctx context.Context, shopID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.audiences, id)
	return nil
}

var _ repository.AudienceRepositoryInterface = (*mockAudienceRepo)(nil)

// ====================== Shops ======================

type mockShopRepo struct {
	shops map[int64]model.Shop // by id
}

func newMockShopRepo(shops ...model.Shop) *mockShopRepo {
	m := &mockShopRepo{shops: map[int64]model.Shop{}}
	for _, s := range shops {
		m.shops[s.ID] = s
	}
	return m
}

func (m *mockShopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	s, ok := m.shops[id]
	if !ok {
		return nil, appErrors.ErrShopNotFound
	}
	return &s, nil
}

func (m *mockShopRepo) GetByUserID(ctx context.Context, userID int64) (*model.Shop, error) {
	for _, s := range m.shops {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, appErrors.ErrShopNotFound
}

func (m *mockShopRepo) UpdateSenderIdentity(ctx context.Context, shopID int64, senderName, senderEmail string) error {
	s := m.shops[shopID]
	s.SenderName = senderName
	s.SenderEmail = senderEmail
	m.shops[shopID] = s
	return nil
}

var _ repository.ShopRepositoryInterface = (*mockShopRepo)(nil)

// ====================== Campaigns ======================

type mockCampaignRepo struct {
	mu              sync.Mutex
	campaigns       map[int64]model.Campaign
	recipients      map[int64]model.CampaignRecipient
	customers       *mockCustomerRepo // for the pending-recipient join
	nextCampaignID  int64
	nextRecipientID int64
	failOnRecipient int64 // when set, CreateWithRecipients fails at this customer id
}

func newMockCampaignRepo(customers *mockCustomerRepo) *mockCampaignRepo {
	return &mockCampaignRepo{
		campaigns:       map[int64]model.Campaign{},
		recipients:      map[int64]model.CampaignRecipient{},
		customers:       customers,
		nextCampaignID:  1,
		nextRecipientID: 1,
	}
}

func (m *mockCampaignRepo) CreateWithRecipients(ctx context.Context, c *model.Campaign, customerIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range customerIDs {
		if m.failOnRecipient != 0 && id == m.failOnRecipient {
			// All-or-nothing: nothing was stored.
			return fmt.Errorf("simulated insert failure for customer %d", id)
		}
	}
	c.ID = m.nextCampaignID
	m.nextCampaignID++
	c.CreatedAt = time.Now()
	m.campaigns[c.ID] = *c
	for _, customerID := range customerIDs {
		r := model.CampaignRecipient{
			ID:         m.nextRecipientID,
			CampaignID: c.ID,
			CustomerID: customerID,
			Status:     model.RecipientStatusPending,
			CreatedAt:  c.CreatedAt,
		}
		m.nextRecipientID++
		m.recipients[r.ID] = r
	}
	return nil
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, shopID, id int64) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.ShopID != shopID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &c, nil
}

func (m *mockCampaignRepo) GetByIDUnscoped(ctx context.Context, id int64) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &c, nil
}

func (m *mockCampaignRepo) ListCampaigns(ctx context.Context, shopID int64, offset, limit int, status string) ([]model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Campaign{}
	for _, c := range m.campaigns {
		if c.ShopID == shopID && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) ListDue(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == model.CampaignStatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) ClaimScheduled(ctx context.Context, campaignID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status != model.CampaignStatusScheduled {
		return false, nil
	}
	c.Status = model.CampaignStatusSent
	m.campaigns[campaignID] = c
	return true, nil
}

func (m *mockCampaignRepo) MarkSent(ctx context.Context, campaignID int64, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.campaigns[campaignID]
	if c.Status == model.CampaignStatusFailed {
		return nil
	}
	c.Status = model.CampaignStatusSent
	c.SentAt = &sentAt
	m.campaigns[campaignID] = c
	return nil
}

func (m *mockCampaignRepo) MarkFailed(ctx context.Context, campaignID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.campaigns[campaignID]
	c.Status = model.CampaignStatusFailed
	m.campaigns[campaignID] = c
	return nil
}

func (m *mockCampaignRepo) ListPendingRecipients(ctx context.Context, campaignID int64) ([]repository.PendingRecipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []repository.PendingRecipient{}
	for _, r := range m.recipients {
		if r.CampaignID != campaignID || r.Status != model.RecipientStatusPending {
			continue
		}
		customer := m.customers.customers[r.CustomerID]
		out = append(out, repository.PendingRecipient{
			RecipientID: r.ID,
			CustomerID:  r.CustomerID,
			Email:       customer.Email,
			FirstName:   customer.FirstName,
			LastName:    customer.LastName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out, nil
}

func (m *mockCampaignRepo) MarkRecipientSent(ctx context.Context, recipientID int64, sentAt time.Time, providerMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recipients[recipientID]
	if r.Status != model.RecipientStatusPending {
		return nil
	}
	r.Status = model.RecipientStatusSent
	r.SentAt = &sentAt
	r.ProviderMessageID = providerMessageID
	m.recipients[recipientID] = r
	return nil
}

func (m *mockCampaignRepo) MarkRecipientFailed(ctx context.Context, recipientID int64, failedAt time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recipients[recipientID]
	if r.Status != model.RecipientStatusPending {
		return nil
	}
	r.Status = model.RecipientStatusFailed
	r.SentAt = &failedAt
	r.LastError = reason
	m.recipients[recipientID] = r
	return nil
}

func (m *mockCampaignRepo) MarkAllPendingRecipientsFailed(ctx context.Context, campaignID int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.recipients {
		if r.CampaignID == campaignID && r.Status == model.RecipientStatusPending {
			r.Status = model.RecipientStatusFailed
			r.LastError = reason
			m.recipients[id] = r
		}
	}
	return nil
}

func (m *mockCampaignRepo) CountRecipientsByStatus(ctx context.Context, campaignID int64) (model.RecipientCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts model.RecipientCounts
	for _, r := range m.recipients {
		if r.CampaignID != campaignID {
			continue
		}
		switch r.Status {
		case model.RecipientStatusPending:
			counts.Pending++
		case model.RecipientStatusSent:
			counts.Sent++
		case model.RecipientStatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

// recipientStatusByCustomer is a test helper view of the recipient rows.
func (m *mockCampaignRepo) recipientStatusByCustomer(campaignID int64) map[int64]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]string{}
	for _, r := range m.recipients {
		if r.CampaignID == campaignID {
			out[r.CustomerID] = r.Status
		}
	}
	return out
}

var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)

// ====================== Sender / queue stubs ======================

type stubSender struct {
	mu         sync.Mutex
	configured bool
	failFor    map[string]bool // by recipient email
	sentTo     []string
}

func newStubSender() *stubSender {
	return &stubSender{configured: true, failFor: map[string]bool{}}
}

func (s *stubSender) IsConfigured() bool { return s.configured }

func (s *stubSender) Send(ctx context.Context, e mailer.Email) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[e.To] {
		return "", fmt.Errorf("provider rejected %s", e.To)
	}
	s.sentTo = append(s.sentTo, e.To)
	return fmt.Sprintf("msg-%d", len(s.sentTo)), nil
}

var _ mailer.Sender = (*stubSender)(nil)

// gaugingSender tracks how many sends are in flight simultaneously. The gate
// channel lets the test hold all sends open until it has counted them.
type gaugingSender struct {
	mu     sync.Mutex
	active int
	peak   int
	gate   chan struct{}
}

func newGaugingSender() *gaugingSender {
	return &gaugingSender{gate: make(chan struct{})}
}

func (s *gaugingSender) IsConfigured() bool { return true }

func (s *gaugingSender) Send(ctx context.Context, e mailer.Email) (string, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()

	<-s.gate

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return "msg-1", nil
}

func (s *gaugingSender) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *gaugingSender) peakConcurrency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

var _ mailer.Sender = (*gaugingSender)(nil)

// recordingSender captures the personalized content handed to the provider.
type recordingSender struct {
	onSend func(subject, html string)
}

func (s *recordingSender) IsConfigured() bool { return true }

func (s *recordingSender) Send(ctx context.Context, e mailer.Email) (string, error) {
	s.onSend(e.Subject, e.HTML)
	return "msg-1", nil
}

var _ mailer.Sender = (*recordingSender)(nil)

type stubQueue struct {
	mu   sync.Mutex
	jobs []queue.DispatchJob
}

func (q *stubQueue) Publish(ctx context.Context, job queue.DispatchJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Subscribe(handler func(ctx context.Context, job queue.DispatchJob) error) error {
	return nil
}

func (q *stubQueue) Close() error { return nil }

var _ queue.Queue = (*stubQueue)(nil)
