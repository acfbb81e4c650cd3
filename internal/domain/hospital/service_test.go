package hospital

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/scope"
)

type mockRepo struct {
	hospitals   map[uuid.UUID]*Hospital
	departments map[uuid.UUID]*Department
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		hospitals:   make(map[uuid.UUID]*Hospital),
		departments: make(map[uuid.UUID]*Department),
	}
}

func (m *mockRepo) Create(_ context.Context, h *Hospital) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return h, nil
}

func (m *mockRepo) GetByAdminUser(_ context.Context, userID uuid.UUID) (*Hospital, error) {
	for _, h := range m.hospitals {
		if h.UserID == userID {
			return h, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Update(_ context.Context, h *Hospital) error {
	existing, ok := m.hospitals[h.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	h.IsApproved = existing.IsApproved
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) SetApproved(_ context.Context, id uuid.UUID, approved bool) error {
	h, ok := m.hospitals[id]
	if !ok {
		return pgx.ErrNoRows
	}
	h.IsApproved = approved
	return nil
}

func (m *mockRepo) List(_ context.Context, f scope.Filter, _, _ int) ([]*Hospital, int, error) {
	var out []*Hospital
	for _, h := range m.hospitals {
		ok := true
		for _, c := range f.Conds {
			if c.Column == "id" && c.Op == scope.OpEq && h.ID != c.Value.(uuid.UUID) {
				ok = false
			}
		}
		if ok {
			out = append(out, h)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListApproved(_ context.Context, _, _ int) ([]*Hospital, int, error) {
	var out []*Hospital
	for _, h := range m.hospitals {
		if h.IsApproved {
			out = append(out, h)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) AddDepartment(_ context.Context, d *Department) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) ListDepartments(_ context.Context, hospitalID uuid.UUID) ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		if d.HospitalID == hospitalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) DeleteDepartment(_ context.Context, id uuid.UUID) error {
	if _, ok := m.departments[id]; !ok {
		return fmt.Errorf("not found")
	}
	delete(m.departments, id)
	return nil
}

func newTestService() (*Service, *mockRepo, *scope.MemoryDirectory, *notification.MockEmailSender) {
	repo := newMockRepo()
	dir := scope.NewMemoryDirectory()
	email := &notification.MockEmailSender{}
	dispatcher := notification.NewDispatcher(email, &notification.MockSMSSender{},
		notification.NewTemplateEngine(), zerolog.Nop())
	return NewService(repo, scope.NewResolver(dir), dispatcher), repo, dir, email
}

func TestCreateStartsUnapproved(t *testing.T) {
	svc, _, _, _ := newTestService()

	h := &Hospital{UserID: uuid.New(), Name: "King Faisal", IsApproved: true}
	if err := svc.Create(context.Background(), h); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.IsApproved {
		t.Fatal("new hospital must not be pre-approved, even if the request claims so")
	}
}

func TestApprovalGatesPublicList(t *testing.T) {
	svc, _, _, email := newTestService()
	ctx := context.Background()

	a := &Hospital{UserID: uuid.New(), Name: "A", Email: "a@hospitals.example"}
	b := &Hospital{UserID: uuid.New(), Name: "B", Email: "b@hospitals.example"}
	svc.Create(ctx, a)
	svc.Create(ctx, b)

	items, total, err := svc.ListApproved(ctx, 20, 0)
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("unapproved hospitals leaked into the public list: %d", total)
	}

	if err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	items, total, _ = svc.ListApproved(ctx, 20, 0)
	if total != 1 || items[0].ID != a.ID {
		t.Fatalf("approved list = %d rows", total)
	}

	svc.notifier.Wait()
	if calls := email.Calls(); len(calls) != 1 || calls[0].To != "a@hospitals.example" {
		t.Errorf("approval email calls = %+v", calls)
	}
}

func TestHospitalAdminScopedToOwnRow(t *testing.T) {
	svc, _, dir, _ := newTestService()
	ctx := context.Background()

	mine := &Hospital{UserID: uuid.New(), Name: "Mine"}
	other := &Hospital{UserID: uuid.New(), Name: "Other"}
	svc.Create(ctx, mine)
	svc.Create(ctx, other)

	adminUser := uuid.New()
	dir.AddHospitalAdmin(adminUser, mine.ID)
	me := scope.Caller{UserID: adminUser, Role: scope.RoleHospital}

	items, total, err := svc.List(ctx, me, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || items[0].ID != mine.ID {
		t.Fatalf("hospital admin sees %d rows", total)
	}

	// Updating the other hospital is forbidden.
	other.Name = "Hijacked"
	if err := svc.Update(ctx, me, other); err != ErrForbidden {
		t.Fatalf("cross-hospital update err = %v, want ErrForbidden", err)
	}
	mine.Name = "Renamed"
	if err := svc.Update(ctx, me, mine); err != nil {
		t.Fatalf("own update err = %v", err)
	}
}

func TestDepartmentScope(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	ctx := context.Background()

	mine := &Hospital{UserID: uuid.New(), Name: "Mine"}
	other := &Hospital{UserID: uuid.New(), Name: "Other"}
	svc.Create(ctx, mine)
	svc.Create(ctx, other)

	adminUser := uuid.New()
	dir.AddHospitalAdmin(adminUser, mine.ID)
	me := scope.Caller{UserID: adminUser, Role: scope.RoleHospital}

	if err := svc.AddDepartment(ctx, me, &Department{HospitalID: mine.ID, Name: "Cardiology"}); err != nil {
		t.Fatalf("AddDepartment: %v", err)
	}
	if err := svc.AddDepartment(ctx, me, &Department{HospitalID: other.ID, Name: "Sneaky"}); err != ErrForbidden {
		t.Fatalf("cross-hospital department err = %v, want ErrForbidden", err)
	}
	if len(repo.departments) != 1 {
		t.Fatalf("departments stored = %d, want 1", len(repo.departments))
	}
}
