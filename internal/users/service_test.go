package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (r *memoryRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range r.users {
		if u.IsActive && u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(ctx context.Context, u *User) (int64, error) {
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	cp.IsActive = true
	cp.RoleName = roleName(cp.RoleID)
	r.users[cp.ID] = cp
	return cp.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, u *User) error {
	current, ok := r.users[u.ID]
	if !ok || !current.IsActive {
		return shared.ErrNotFound
	}
	current.Name = u.Name
	current.Email = u.Email
	current.PasswordHash = u.PasswordHash
	current.RoleID = u.RoleID
	current.RoleName = roleName(u.RoleID)
	r.users[u.ID] = current
	return nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return shared.ErrNotFound
	}
	u.IsActive = false
	r.users[id] = u
	return nil
}

func (r *memoryRepo) ListRoles(ctx context.Context) ([]Role, error) {
	return []Role{{ID: 1, Name: "admin"}, {ID: 2, Name: "seller"}}, nil
}

func roleName(id int64) string {
	if id == 1 {
		return "admin"
	}
	return "seller"
}

func admin() shared.Identity {
	return shared.Identity{UserID: 1, Name: "Root", Email: "root@molecula.mx", Role: "admin"}
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	user, err := svc.Create(context.Background(), CreateRequest{
		Name:     "Ana",
		Email:    "Ana@Molecula.MX",
		Password: "hunter2hunter2",
		RoleID:   2,
	})
	require.NoError(t, err)
	require.Equal(t, "ana@molecula.mx", user.Email)
	require.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Ana", Email: "ana@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "Otra", Email: "ANA@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.ErrorIs(t, err, shared.ErrEmailTaken)
}

func TestUpdateKeepsHashWhenPasswordEmpty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateRequest{Name: "Ana", Email: "ana@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{Name: "Ana Luisa", Email: "ana@molecula.mx", RoleID: 1})
	require.NoError(t, err)
	require.Equal(t, "Ana Luisa", updated.Name)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)
	require.Equal(t, int64(1), updated.RoleID)
}

func TestUpdateEmailUniquenessExcludesSelf(t *testing.T) {
	svc := NewService(newMemoryRepo())

	a, err := svc.Create(context.Background(), CreateRequest{Name: "Ana", Email: "ana@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{Name: "Beto", Email: "beto@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.NoError(t, err)

	// Keeping your own email is fine.
	_, err = svc.Update(context.Background(), a.ID, UpdateRequest{Name: "Ana", Email: "ana@molecula.mx", RoleID: 2})
	require.NoError(t, err)

	// Taking someone else's is not.
	_, err = svc.Update(context.Background(), a.ID, UpdateRequest{Name: "Ana", Email: "beto@molecula.mx", RoleID: 2})
	require.ErrorIs(t, err, shared.ErrEmailTaken)
}

func TestDeleteGuardsSelf(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Root", Email: "root@molecula.mx", Password: "hunter2hunter2", RoleID: 1})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), CreateRequest{Name: "Ana", Email: "ana@molecula.mx", Password: "hunter2hunter2", RoleID: 2})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), admin(), admin().UserID), shared.ErrSelfDelete)

	require.NoError(t, svc.Delete(context.Background(), admin(), other.ID))
	_, err = svc.Get(context.Background(), other.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
