package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
)

var adminUser = User{ID: 1, FirstName: "A", LastName: "B", Email: "admin@fleet.com", Role: RoleAdmin}

func TestStore_SaveThenRead(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil, zerolog.Nop())

	require.NoError(t, store.Save("t1", adminUser))

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "t1", sess.Token)
	assert.Equal(t, adminUser, sess.User)
	assert.Equal(t, "t1", store.Token())
}

func TestStore_ClearThenRead(t *testing.T) {
	jar := NewMemoryCookieJar()
	store := NewStore(NewMemoryStorage(), jar, zerolog.Nop())
	require.NoError(t, store.Save("t1", adminUser))

	require.NoError(t, store.Clear())

	_, ok := store.Read()
	assert.False(t, ok)
	_, hasToken := jar.Cookie(CookieToken)
	_, hasRole := jar.Cookie(CookieRole)
	assert.False(t, hasToken)
	assert.False(t, hasRole)
}

func TestStore_SaveMirrorsCookies(t *testing.T) {
	jar := NewMemoryCookieJar()
	store := NewStore(NewMemoryStorage(), jar, zerolog.Nop())

	require.NoError(t, store.Save("t1", adminUser))

	token, ok := jar.Cookie(CookieToken)
	require.True(t, ok)
	assert.Equal(t, "t1", token)
	role, ok := jar.Cookie(CookieRole)
	require.True(t, ok)
	assert.Equal(t, "ROLE_ADMIN", role)
	assert.Equal(t, 604800, jar.MaxAge(CookieToken))
	assert.Equal(t, 604800, jar.MaxAge(CookieRole))
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, nil, zerolog.Nop())

	err := store.Save("", adminUser)
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, ok, _ := storage.Get(KeyUser)
	assert.False(t, ok)
}

func TestStore_MalformedStateIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{name: "corrupt user json", entries: map[string]string{KeyToken: "t1", KeyUser: "{not json"}},
		{name: "token without user", entries: map[string]string{KeyToken: "t1"}},
		{name: "user without token", entries: map[string]string{KeyUser: `{"id":1,"role":"ROLE_ADMIN"}`}},
		{name: "unknown role", entries: map[string]string{KeyToken: "t1", KeyUser: `{"id":1,"role":"ROLE_SUPERUSER"}`}},
		{name: "empty token", entries: map[string]string{KeyToken: "", KeyUser: `{"id":1,"role":"ROLE_ADMIN"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			for k, v := range tt.entries {
				require.NoError(t, storage.Set(k, v))
			}
			store := NewStore(storage, nil, zerolog.Nop())

			_, ok := store.Read()
			assert.False(t, ok)

			// Stale artifacts are cleared
			_, hasToken, _ := storage.Get(KeyToken)
			_, hasUser, _ := storage.Get(KeyUser)
			assert.False(t, hasToken)
			assert.False(t, hasUser)
		})
	}
}

func TestStore_ReadNormalizesBareRole(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyToken, "t1"))
	require.NoError(t, storage.Set(KeyUser, `{"id":7,"email":"d@fleet.com","role":"DRIVER"}`))

	sess, ok := NewStore(storage, nil, zerolog.Nop()).Read()
	require.True(t, ok)
	assert.Equal(t, RoleDriver, sess.User.Role)
}

func TestStore_CookieMirrorMustAgree(t *testing.T) {
	t.Run("missing token cookie", func(t *testing.T) {
		storage := NewMemoryStorage()
		jar := NewMemoryCookieJar()
		store := NewStore(storage, jar, zerolog.Nop())
		require.NoError(t, store.Save("t1", adminUser))
		jar.DeleteCookie(CookieToken)

		_, ok := store.Read()
		assert.False(t, ok)
		_, hasToken, _ := storage.Get(KeyToken)
		assert.False(t, hasToken)
	})

	t.Run("mismatched token cookie", func(t *testing.T) {
		jar := NewMemoryCookieJar()
		store := NewStore(NewMemoryStorage(), jar, zerolog.Nop())
		require.NoError(t, store.Save("t1", adminUser))
		jar.SetCookie(CookieToken, "other", CookieMaxAge)

		_, ok := store.Read()
		assert.False(t, ok)
		_, hasRole := jar.Cookie(CookieRole)
		assert.False(t, hasRole)
	})
}

type failingStorage struct {
	*MemoryStorage
	failKey string
}

func (f *failingStorage) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryStorage.Set(key, value)
}

func TestStore_SaveRollsBackOnPartialWrite(t *testing.T) {
	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), failKey: KeyUser}
	jar := NewMemoryCookieJar()
	store := NewStore(storage, jar, zerolog.Nop())

	err := store.Save("t1", adminUser)
	require.Error(t, err)

	_, hasToken, _ := storage.Get(KeyToken)
	assert.False(t, hasToken)
	_, hasCookie := jar.Cookie(CookieToken)
	assert.False(t, hasCookie)
}

func TestGormStorage_NamespacesAreIsolated(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "portal.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigratePortal(db))

	a := NewGormStorage(db, "browser-a")
	b := NewGormStorage(db, "browser-b")

	require.NoError(t, a.Set(KeyToken, "ta"))
	require.NoError(t, a.Set(KeyToken, "ta2")) // upsert
	require.NoError(t, b.Set(KeyToken, "tb"))

	v, ok, err := a.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ta2", v)

	require.NoError(t, a.Delete(KeyToken))
	_, ok, err = a.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = b.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tb", v)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "ROLE_ADMIN", want: RoleAdmin},
		{in: "owner", want: RoleOwner},
		{in: " DRIVER ", want: RoleDriver},
		{in: "API_CLIENT", want: RoleAPIClient},
		{in: "", wantErr: true},
		{in: "ROLE_ROOT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSet_Allows(t *testing.T) {
	assert.True(t, NewRoleSet().Allows(RoleDriver))
	set := NewRoleSet(RoleAdmin, RoleOwner)
	assert.True(t, set.Allows(RoleOwner))
	assert.False(t, set.Allows(RoleDriver))
}
