package patient

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/internal/platform/sequence"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	visits   map[string]*HospitalVisit
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients: make(map[uuid.UUID]*Patient),
		visits:   make(map[string]*HospitalVisit),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	existing, ok := m.patients[p.ID]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.PatientNumber = existing.PatientNumber
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, f scope.Filter, _, _ int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

// matches interprets the filter conditions the way the SQL renderer would,
// for the shapes the patient rule table produces.
func matches(p *Patient, f scope.Filter) bool {
	for _, c := range f.Conds {
		if c.Column == "id" && c.Op == scope.OpEq {
			if p.ID != c.Value.(uuid.UUID) {
				return false
			}
		}
	}
	return true
}

func (m *mockRepo) RecordVisit(_ context.Context, patientID, hospitalID uuid.UUID) error {
	key := patientID.String() + "/" + hospitalID.String()
	if v, ok := m.visits[key]; ok {
		v.VisitCount++
		v.LastVisitAt = time.Now()
		return nil
	}
	m.visits[key] = &HospitalVisit{
		PatientID: patientID, HospitalID: hospitalID, VisitCount: 1, LastVisitAt: time.Now(),
	}
	return nil
}

func (m *mockRepo) ListVisits(_ context.Context, patientID uuid.UUID) ([]*HospitalVisit, error) {
	var out []*HospitalVisit
	for _, v := range m.visits {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepo, *scope.MemoryDirectory) {
	repo := newMockRepo()
	dir := scope.NewMemoryDirectory()
	return NewService(repo, scope.NewResolver(dir), sequence.NewMemoryGenerator()), repo, dir
}

func TestCreateAssignsPatientNumber(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{UserID: uuid.New()}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(p.PatientNumber, "PAT-") {
		t.Errorf("patient number = %q", p.PatientNumber)
	}
	if !sequence.Valid(p.PatientNumber) {
		t.Errorf("patient number %q does not match the display format", p.PatientNumber)
	}
}

func TestCreatePatientNumbersUnique(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 120; i++ {
		p := &Patient{UserID: uuid.New()}
		if err := svc.Create(ctx, p); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if seen[p.PatientNumber] {
			t.Fatalf("duplicate patient number %q", p.PatientNumber)
		}
		seen[p.PatientNumber] = true
	}
}

func TestPatientNumberImmutableOnUpdate(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	p := &Patient{UserID: uuid.New()}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := p.PatientNumber

	admin := scope.Caller{UserID: uuid.New(), Role: scope.RoleAdmin}

	updated := &Patient{ID: p.ID, UserID: p.UserID, PatientNumber: "PAT-0000000000000-9999"}
	if err := svc.Update(ctx, admin, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.patients[p.ID].PatientNumber != original {
		t.Fatalf("patient number changed from %q to %q", original, repo.patients[p.ID].PatientNumber)
	}
}

func TestGetScopeChecks(t *testing.T) {
	svc, _, dir := newTestService()
	ctx := context.Background()

	p := &Patient{UserID: uuid.New()}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A doctor with no linking appointment is forbidden.
	doctorUser, doctorID := uuid.New(), uuid.New()
	dir.AddDoctor(doctorUser, doctorID)
	doctor := scope.Caller{UserID: doctorUser, Role: scope.RoleDoctor}
	if _, err := svc.Get(ctx, doctor, p.ID); err != ErrForbidden {
		t.Fatalf("unlinked doctor err = %v, want ErrForbidden", err)
	}

	// One appointment linking them grants access.
	dir.AddAppointment(doctorID, p.ID)
	if _, err := svc.Get(ctx, doctor, p.ID); err != nil {
		t.Fatalf("linked doctor err = %v", err)
	}

	// Another patient is forbidden from reading this one.
	otherUser, otherPatient := uuid.New(), uuid.New()
	dir.AddPatient(otherUser, otherPatient)
	other := scope.Caller{UserID: otherUser, Role: scope.RolePatient}
	if _, err := svc.Get(ctx, other, p.ID); err != ErrForbidden {
		t.Fatalf("other patient err = %v, want ErrForbidden", err)
	}
}

func TestListPatientScopeSelfOnly(t *testing.T) {
	svc, _, dir := newTestService()
	ctx := context.Background()

	mine := &Patient{UserID: uuid.New()}
	theirs := &Patient{UserID: uuid.New()}
	svc.Create(ctx, mine)
	svc.Create(ctx, theirs)

	dir.AddPatient(mine.UserID, mine.ID)
	me := scope.Caller{UserID: mine.UserID, Role: scope.RolePatient}

	items, total, err := svc.List(ctx, me, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != mine.ID {
		t.Fatalf("patient sees %d rows, want only their own", total)
	}
}

func TestRecordVisitAccumulates(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	pid, hid := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		if err := svc.RecordVisit(ctx, pid, hid); err != nil {
			t.Fatalf("RecordVisit: %v", err)
		}
	}
	key := pid.String() + "/" + hid.String()
	if repo.visits[key].VisitCount != 3 {
		t.Fatalf("visit count = %d, want 3", repo.visits[key].VisitCount)
	}
}

func TestListUnknownRoleForbidden(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.List(context.Background(), scope.Caller{UserID: uuid.New(), Role: "auditor"}, 20, 0); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
