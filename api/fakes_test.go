package api

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Milbo-LLC/waybook-sub000/eventlogger"
	"github.com/Milbo-LLC/waybook-sub000/ledger"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/Milbo-LLC/waybook-sub000/session"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/Milbo-LLC/waybook-sub000/user"
	"github.com/google/uuid"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func (f *fakeUsers) Register(_ context.Context, name, email, password string) (*user.User, error) {
	email, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, user.ErrBlankPassword
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, user.ErrEmailExists
	}
	u := &user.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: "plain:" + password, CreatedAt: time.Now()}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) VerifyPassword(hashedPassword, password string) error {
	if hashedPassword != "plain:"+password {
		return user.ErrInvalidCredentials
	}
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func (f *fakeSessions) Create(_ context.Context, userID uuid.UUID) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &session.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	f.sessions[s.Token] = s
	return s, nil
}

func (f *fakeSessions) GetByToken(_ context.Context, token string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrInvalidSession
	}
	return s, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessions) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeSessions) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

type fakeTrips struct {
	mu      sync.Mutex
	trips   map[uuid.UUID]trip.Trip
	members map[uuid.UUID][]trip.Member
}

func (f *fakeTrips) Create(_ context.Context, t trip.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trips[t.ID] = t
	f.members[t.ID] = []trip.Member{{TripID: t.ID, UserID: t.OwnerID, Role: trip.RoleOwner, JoinedAt: t.CreatedAt}}
	return nil
}

func (f *fakeTrips) GetByID(_ context.Context, tripID uuid.UUID) (*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTrips) MemberRole(_ context.Context, tripID, userID uuid.UUID) (trip.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[tripID] {
		if m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", trip.ErrNotMember
}

func (f *fakeTrips) ParticipantIDs(_ context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, m := range f.members[tripID] {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (f *fakeTrips) AddMember(_ context.Context, m trip.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.members[m.TripID] {
		if existing.UserID == m.UserID {
			return trip.ErrMemberExists
		}
	}
	f.members[m.TripID] = append(f.members[m.TripID], m)
	return nil
}

type fakeLedger struct {
	mu       sync.Mutex
	expenses []ledger.Expense
}

func (f *fakeLedger) SaveExpense(_ context.Context, e ledger.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses = append(f.expenses, e)
	return nil
}

func (f *fakeLedger) ListExpenses(_ context.Context, tripID uuid.UUID) ([]ledger.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Expense
	for _, e := range f.expenses {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeScenarios struct {
	mu        sync.Mutex
	scenarios map[uuid.UUID]map[scenario.Type]*scenario.Scenario
	options   map[uuid.UUID][]scenario.Option
	votes     map[uuid.UUID]map[uuid.UUID]int
}

func (f *fakeScenarios) List(_ context.Context, tripID uuid.UUID) ([]scenario.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scenario.Scenario
	for _, t := range scenario.Types {
		if s, ok := f.scenarios[tripID][t]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScenarios) Update(_ context.Context, tripID uuid.UUID, t scenario.Type, fn func(previous *scenario.Scenario) ([]scenario.Item, error)) (*scenario.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scenarios[tripID] == nil {
		f.scenarios[tripID] = make(map[scenario.Type]*scenario.Scenario)
	}
	items, err := fn(f.scenarios[tripID][t])
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	s := &scenario.Scenario{ID: uuid.New(), TripID: tripID, Type: t, Items: items, UpdatedAt: time.Now()}
	f.scenarios[tripID][t] = s
	return s, nil
}

func (f *fakeScenarios) SetItemLocked(_ context.Context, tripID, itemID uuid.UUID, locked bool) (*scenario.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.scenarios[tripID] {
		for i := range s.Items {
			if s.Items[i].ID == itemID {
				s.Items[i].IsLocked = locked
				item := s.Items[i]
				return &item, nil
			}
		}
	}
	return nil, scenario.ErrItemNotFound
}

func (f *fakeScenarios) LoadOptions(_ context.Context, tripID uuid.UUID) ([]scenario.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.options[tripID])
	for i := range out {
		for _, v := range f.votes[out[i].ID] {
			if v > 0 {
				out[i].VotesUp++
			} else {
				out[i].VotesDown++
			}
		}
	}
	return out, nil
}

func (f *fakeScenarios) AddOption(_ context.Context, tripID uuid.UUID, o scenario.Option) (scenario.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options[tripID] = append(f.options[tripID], o)
	return o, nil
}

func (f *fakeScenarios) Vote(_ context.Context, tripID uuid.UUID, itemType scenario.ItemType, optionID, userID uuid.UUID, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := slices.IndexFunc(f.options[tripID], func(o scenario.Option) bool {
		return o.ID == optionID && o.ItemType == itemType
	})
	if idx < 0 {
		return scenario.ErrOptionNotFound
	}
	if f.votes[optionID] == nil {
		f.votes[optionID] = make(map[uuid.UUID]int)
	}
	if value == 0 {
		delete(f.votes[optionID], userID)
		return nil
	}
	f.votes[optionID][userID] = value
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []eventlogger.Event
}

func (f *fakeRecorder) Log(e eventlogger.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeRecorder) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
