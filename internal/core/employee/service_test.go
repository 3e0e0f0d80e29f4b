package employee

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	employees map[int64]*Employee
	sequence  int64
	order     []int64
	createErr error
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[int64]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := *e
	r.sequence++
	clone.ID = r.sequence
	r.employees[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.employees, id)
	for idx, existingID := range r.order {
		if existingID == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id int64) (*Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	out := *emp
	return &out, nil
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListEmployeesFilter) ([]*Employee, string, error) {
	all := make([]*Employee, 0, len(r.order))
	for _, id := range r.order {
		emp := *r.employees[id]
		all = append(all, &emp)
	}

	if filter.Offset > len(all) {
		return []*Employee{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}

	nextToken := ""
	if end < len(all) {
		nextToken = strconv.Itoa(end)
	}
	return all[filter.Offset:end], nextToken, nil
}

type recordingTx struct {
	readWrite int
	readOnly  int
}

func (r *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	r.readOnly++
	return fn(ctx)
}

func (r *recordingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	r.readWrite++
	return fn(ctx)
}

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := &recordingTx{}
	svc := NewService(repo, &stubClock{now: now}, tx)

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:  "  Alice  ",
		Email: " Alice@Example.com ",
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.ID != 1 {
		t.Fatalf("expected id assigned by repository, got %d", created.ID)
	}
	if created.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps to use clock now")
	}
	if tx.readWrite != 1 {
		t.Fatalf("expected one read-write transaction, got %d", tx.readWrite)
	}
}

func TestService_ImportEmployee_StoresValuesUnchanged(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	tx := &recordingTx{}
	svc := NewService(repo, &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, tx)

	created, err := svc.ImportEmployee(context.Background(), ImportEmployeeInput{
		Name:  " Alice ",
		Email: `"a b"@X.com`,
	})
	if err != nil {
		t.Fatalf("ImportEmployee returned error: %v", err)
	}

	stored := repo.employees[created.ID]
	if stored.Name != " Alice " || stored.Email != `"a b"@X.com` {
		t.Fatalf("expected values stored as given, got %+v", stored)
	}
	if tx.readWrite != 1 {
		t.Fatalf("expected one read-write transaction, got %d", tx.readWrite)
	}
}

func TestService_CreateEmployee_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input CreateEmployeeInput
		want  error
	}{
		{name: "empty name", input: CreateEmployeeInput{Name: " ", Email: "a@x.com"}, want: ErrInvalidName},
		{name: "empty email", input: CreateEmployeeInput{Name: "Alice", Email: ""}, want: ErrInvalidEmail},
		{name: "malformed email", input: CreateEmployeeInput{Name: "Alice", Email: "not-an-email"}, want: ErrInvalidEmail},
		{name: "display name form", input: CreateEmployeeInput{Name: "Alice", Email: "Alice <a@x.com>"}, want: ErrInvalidEmail},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeEmployeeRepo()
			svc := NewService(repo, nil, nil)

			_, err := svc.CreateEmployee(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(repo.employees) != 0 {
				t.Fatalf("expected nothing persisted, got %d", len(repo.employees))
			}
		})
	}
}

func TestService_CreateEmployee_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	repo.createErr = errors.New("db down")
	svc := NewService(repo, nil, nil)

	if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: "Bob", Email: "b@x.com"}); !errors.Is(err, repo.createErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestService_GetAndDeleteEmployee(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: "Bob", Email: "b@x.com"})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	found, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: created.ID})
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}
	if found.Email != "b@x.com" {
		t.Fatalf("unexpected employee: %+v", found)
	}

	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: created.ID}); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: created.ID}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_InvalidID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil)

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: -1}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestService_ListEmployees_Pagination(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := NewService(repo, nil, nil)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: name, Email: name + "@x.com"}); err != nil {
			t.Fatalf("CreateEmployee returned error: %v", err)
		}
	}

	first, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: 2})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(first.Employees) != 2 || first.NextPageToken != "2" {
		t.Fatalf("unexpected first page: %d employees, token %q", len(first.Employees), first.NextPageToken)
	}

	second, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(second.Employees) != 1 || second.NextPageToken != "" {
		t.Fatalf("unexpected second page: %d employees, token %q", len(second.Employees), second.NextPageToken)
	}
}

func TestService_ListEmployees_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil, nil)

	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageToken: "abc"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
