package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// The fakes below mirror the persistence contract: every transition method is
// atomic under the repo mutex and reports repo_errors.ErrNoRowsAffected when
// the row no longer matches the expected prior state. That keeps the
// single-winner behaviour observable without a database.

type fakeProposalRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*entity.Proposal
	nextNum int64
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{items: make(map[uuid.UUID]*entity.Proposal)}
}

func (r *fakeProposalRepo) CreateProposal(_ context.Context, input *entity.CreateProposalInput) (uuid.UUID, error) {
	inquiryId, err := uuid.Parse(input.InquiryId)
	if err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextNum++
	p := &entity.Proposal{
		Id:            uuid.New(),
		Number:        r.nextNum,
		Status:        common.ProposalPending,
		RequestedBy:   input.RequestedBy,
		ServiceType:   input.ServiceType,
		InquiryId:     inquiryId,
		ProposalData:  input.ProposalData,
		ClientEmail:   input.ClientEmail,
		ClientCompany: input.ClientCompany,
		CreatedAt:     time.Now(),
	}
	r.items[p.Id] = p

	return p.Id, nil
}

func (r *fakeProposalRepo) get(id string) (*entity.Proposal, bool) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	p, ok := r.items[uuidForm]

	return p, ok
}

func (r *fakeProposalRepo) GetProposalById(_ context.Context, id string) (*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *p

	return &copied, nil
}

func (r *fakeProposalRepo) GetProposalsByRequester(_ context.Context, username string, pg *entity.PaginationInput) ([]entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposals := make([]entity.Proposal, 0)
	for _, p := range r.items {
		if p.RequestedBy == username {
			proposals = append(proposals, *p)
		}
	}
	if pg != nil && len(proposals) > pg.Limit {
		proposals = proposals[:pg.Limit]
	}

	return proposals, nil
}

func (r *fakeProposalRepo) ReviewProposal(_ context.Context, id string, reviewer string, newStatus string, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || p.Status != common.ProposalPending {
		return repo_errors.ErrNoRowsAffected
	}

	reviewedAt := at
	p.Status = newStatus
	p.ReviewedBy = reviewer
	p.ReviewedAt = &reviewedAt
	p.RejectionReason = reason

	return nil
}

func (r *fakeProposalRepo) EditProposal(_ context.Context, id string, data []byte, serviceType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || (p.Status != common.ProposalPending && p.Status != common.ProposalDisapproved) {
		return repo_errors.ErrNoRowsAffected
	}

	p.Status = common.ProposalPending
	p.ProposalData = data
	p.ServiceType = serviceType
	p.ReviewedBy = ""
	p.ReviewedAt = nil
	p.RejectionReason = ""

	return nil
}

func (r *fakeProposalRepo) SendProposal(_ context.Context, id string, owner string, token string, sentAt time.Time, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || p.Status != common.ProposalApproved || p.RequestedBy != owner {
		return repo_errors.ErrNoRowsAffected
	}

	sent, expires := sentAt, expiresAt
	p.Status = common.ProposalSent
	p.ClientResponseToken = token
	p.SentAt = &sent
	p.ExpiresAt = &expires

	return nil
}

func (r *fakeProposalRepo) RecordClientResponse(_ context.Context, id string, response string, at time.Time, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || p.Status != common.ProposalSent || p.ClientResponse != "" {
		return repo_errors.ErrNoRowsAffected
	}

	respondedAt := at
	p.Status = common.ProposalAccepted
	if response == common.ResponseRejected {
		p.Status = common.ProposalRejected
	}
	p.ClientResponse = response
	p.ClientResponseAt = &respondedAt
	p.ClientResponseIp = ip

	return nil
}

func (r *fakeProposalRepo) CancelProposal(_ context.Context, id string, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || p.Status != common.ProposalPending || p.RequestedBy != owner {
		return repo_errors.ErrNoRowsAffected
	}
	p.Status = common.ProposalCancelled

	return nil
}

func (r *fakeProposalRepo) ExpireProposal(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.get(id)
	if !ok || p.Status != common.ProposalSent {
		return repo_errors.ErrNoRowsAffected
	}
	p.Status = common.ProposalExpired

	return nil
}

func (r *fakeProposalRepo) GetExpiredSentProposals(_ context.Context, asOf time.Time, limit int) ([]entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	overdue := make([]entity.Proposal, 0)
	for _, p := range r.items {
		if p.Status == common.ProposalSent && p.ExpiresAt != nil && p.ExpiresAt.Before(asOf) {
			overdue = append(overdue, *p)
		}
		if len(overdue) == limit {
			break
		}
	}

	return overdue, nil
}

type fakeContractRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*entity.Contract
	byProposal map[uuid.UUID]uuid.UUID
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{
		items:      make(map[uuid.UUID]*entity.Contract),
		byProposal: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *fakeContractRepo) CreateContract(_ context.Context, proposalId uuid.UUID, requestedBy string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byProposal[proposalId]; exists {
		return uuid.Nil, repo_errors.ErrNoRowsAffected
	}

	c := &entity.Contract{
		Id:          uuid.New(),
		ProposalId:  proposalId,
		Status:      common.ContractPendingRequest,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now(),
	}
	r.items[c.Id] = c
	r.byProposal[proposalId] = c.Id

	return c.Id, nil
}

func (r *fakeContractRepo) get(id string) (*entity.Contract, bool) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	c, ok := r.items[uuidForm]

	return c, ok
}

func (r *fakeContractRepo) GetContractById(_ context.Context, id string) (*entity.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *c

	return &copied, nil
}

func (r *fakeContractRepo) GetContractByProposalId(_ context.Context, proposalId uuid.UUID) (*entity.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contractId, ok := r.byProposal[proposalId]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *r.items[contractId]

	return &copied, nil
}

func (r *fakeContractRepo) SubmitContractRequest(_ context.Context, id string, details string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || c.Status != common.ContractPendingRequest {
		return repo_errors.ErrNoRowsAffected
	}
	c.Status = common.ContractRequested
	c.Details = details

	return nil
}

func (r *fakeContractRepo) AttachContractDocument(_ context.Context, id string, pdfUrl string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || (c.Status != common.ContractRequested && c.Status != common.ContractReadyForSales) {
		return repo_errors.ErrNoRowsAffected
	}
	c.Status = common.ContractReadyForSales
	c.PdfUrl = pdfUrl

	return nil
}

func (r *fakeContractRepo) MarkContractSentToSales(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || c.Status != common.ContractReadyForSales || c.PdfUrl == "" {
		return repo_errors.ErrNoRowsAffected
	}
	c.Status = common.ContractSentToSales

	return nil
}

func (r *fakeContractRepo) SendContractToClient(_ context.Context, id string, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || c.Status != common.ContractSentToSales {
		return repo_errors.ErrNoRowsAffected
	}

	sentAt := at
	c.Status = common.ContractSentToClient
	c.ClientSignToken = token
	c.SentToClientAt = &sentAt

	return nil
}

func (r *fakeContractRepo) MarkHardboundReceived(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || c.Status != common.ContractSigned {
		return repo_errors.ErrNoRowsAffected
	}
	c.Status = common.ContractHardboundReceived

	return nil
}

func (r *fakeContractRepo) RecordContractSigned(_ context.Context, id string, signedPdfUrl string, at time.Time, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.get(id)
	if !ok || c.Status != common.ContractSentToClient || c.ClientSignedAt != nil {
		return repo_errors.ErrNoRowsAffected
	}

	signedAt := at
	c.Status = common.ContractSigned
	c.SignedPdfUrl = signedPdfUrl
	c.ClientSignedAt = &signedAt
	c.ClientSignIp = ip

	return nil
}

type fakeEmployeeRepo struct {
	roles map[string]string
}

func (r *fakeEmployeeRepo) GetEmployeeByUsername(_ context.Context, username string) (*entity.Employee, error) {
	role, ok := r.roles[username]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}

	return &entity.Employee{Id: uuid.New(), Username: username, Role: role}, nil
}

type fakeClientRepo struct {
	mu      sync.Mutex
	clients []entity.Client
}

func (r *fakeClientRepo) FindClientByEmailAndCompany(_ context.Context, email string, company string) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.clients {
		if r.clients[i].Email == email && r.clients[i].Company == company {
			copied := r.clients[i]
			return &copied, nil
		}
	}

	return nil, repo_errors.ErrNotFound
}

func (r *fakeClientRepo) CreateClient(_ context.Context, email string, company string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := entity.Client{Id: uuid.New(), Email: email, Company: company, CreatedAt: time.Now()}
	r.clients = append(r.clients, c)

	return c.Id, nil
}

func (r *fakeClientRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.clients)
}

type fakeInquiryRepo struct {
	mu        sync.Mutex
	onboarded map[uuid.UUID]bool
}

func (r *fakeInquiryRepo) MarkInquiryOnboarded(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.onboarded[id] {
		return repo_errors.ErrNoRowsAffected
	}
	r.onboarded[id] = true

	return nil
}

func (r *fakeInquiryRepo) isOnboarded(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.onboarded[id]
}

type fakeCategoryRepo struct {
	requires map[string]bool
	failWith error
}

func (r *fakeCategoryRepo) RequiresContract(_ context.Context, serviceType string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}

	v, ok := r.requires[serviceType]
	if !ok {
		return false, repo_errors.ErrNotFound
	}

	return v, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []entity.ActivityEntry
}

func (r *fakeActivityRepo) AppendActivity(_ context.Context, e *entity.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := *e
	entry.Id = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)

	return nil
}

func (r *fakeActivityRepo) GetActivityByEntityId(_ context.Context, entityId uuid.UUID, _ *entity.PaginationInput) ([]entity.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]entity.ActivityEntry, 0)
	for _, e := range r.entries {
		if e.EntityId == entityId {
			matched = append(matched, e)
		}
	}

	return matched, nil
}

func (r *fakeActivityRepo) countByAction(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Action == action {
			n++
		}
	}

	return n
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(_ context.Context, event string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)

	return nil
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeEmailSender) Send(_ context.Context, to string, _ string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, to)

	return nil
}

func (s *fakeEmailSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type testEnv struct {
	proposals  *fakeProposalRepo
	contracts  *fakeContractRepo
	employees  *fakeEmployeeRepo
	clients    *fakeClientRepo
	inquiries  *fakeInquiryRepo
	categories *fakeCategoryRepo
	activity   *fakeActivityRepo
	notifier   *fakeNotifier
	email      *fakeEmailSender
	dispatcher *effects.Dispatcher
	clock      *fakeClock
	inquiryId  uuid.UUID

	services *Services
}

const testValidity = 30 * 24 * time.Hour

// alice and carol are sales actors, bob is a reviewer. consulting requires a
// contract after acceptance; audit goes straight to client onboarding.
func newTestEnv() *testEnv {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	env := &testEnv{
		proposals:  newFakeProposalRepo(),
		contracts:  newFakeContractRepo(),
		employees:  &fakeEmployeeRepo{roles: map[string]string{"alice": common.RoleSales, "carol": common.RoleSales, "bob": common.RoleReviewer}},
		clients:    &fakeClientRepo{},
		inquiries:  &fakeInquiryRepo{onboarded: make(map[uuid.UUID]bool)},
		categories: &fakeCategoryRepo{requires: map[string]bool{"consulting": true, "audit": false}},
		activity:   &fakeActivityRepo{},
		notifier:   &fakeNotifier{},
		email:      &fakeEmailSender{},
		dispatcher: effects.NewDispatcher(log),
		clock:      &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		inquiryId:  uuid.New(),
	}

	env.services = NewServices(Deps{
		Repos: &repo.Repositories{
			Employee:        env.employees,
			Proposal:        env.proposals,
			Contract:        env.contracts,
			Client:          env.clients,
			Inquiry:         env.inquiries,
			ServiceCategory: env.categories,
			Activity:        env.activity,
		},
		Dispatcher: env.dispatcher,
		Notifier:   env.notifier,
		Email:      env.email,
		Log:        log,
		Validity:   testValidity,
		Now:        env.clock.Now,
	})

	return env
}

func (env *testEnv) drain(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, env.dispatcher.Wait(ctx))
}

func (env *testEnv) createProposal(t *testing.T, serviceType string) *entity.ProposalOutputModel {
	t.Helper()

	p, err := env.services.Proposal.CreateProposal(context.Background(), &entity.CreateProposalInput{
		InquiryId:     env.inquiryId.String(),
		ServiceType:   serviceType,
		ProposalData:  []byte(`{"fields":{"price":"1000"}}`),
		ClientEmail:   "client@example.com",
		ClientCompany: "Example Inc",
		RequestedBy:   "alice",
	})
	require.NoError(t, err)

	return p
}

func (env *testEnv) sentProposal(t *testing.T, serviceType string) (string, string) {
	t.Helper()

	p := env.createProposal(t, serviceType)
	_, err := env.services.Proposal.ReviewProposal(context.Background(), p.Id, "bob", true, "")
	require.NoError(t, err)
	_, err = env.services.Proposal.SendProposal(context.Background(), p.Id, "alice")
	require.NoError(t, err)

	return p.Id, env.responseToken(t, p.Id)
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)

	return parsed
}

func (env *testEnv) responseToken(t *testing.T, proposalId string) string {
	t.Helper()

	p, err := env.proposals.GetProposalById(context.Background(), proposalId)
	require.NoError(t, err)
	require.NotEmpty(t, p.ClientResponseToken)

	return p.ClientResponseToken
}
