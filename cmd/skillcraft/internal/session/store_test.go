package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, role models.Role, exp time.Time) string {
	t.Helper()
	claims := Claims{
		ID:         "u-1",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Email:      "ada@example.com",
		Role:       string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

type stubEnergy struct {
	value   int
	err     error
	release chan struct{}
	calls   int
}

func (s *stubEnergy) GetEnergy(ctx context.Context, userID string) (int, error) {
	s.calls++
	if s.release != nil {
		<-s.release
	}
	return s.value, s.err
}

func newStore(st storage.Store, src EnergySource) *Store {
	return New(st, WithClock(func() time.Time { return fixedNow }), WithEnergySource(src))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
		valid bool
	}{
		{"future expiry", func(t *testing.T) string { return signToken(t, models.RoleUser, fixedNow.Add(time.Hour)) }, true},
		{"expiry equals now", func(t *testing.T) string { return signToken(t, models.RoleUser, fixedNow) }, false},
		{"past expiry", func(t *testing.T) string { return signToken(t, models.RoleUser, fixedNow.Add(-time.Second)) }, false},
		{"garbage", func(t *testing.T) string { return "not-a-token" }, false},
		{"empty", func(t *testing.T) string { return "" }, false},
		{"missing exp", func(t *testing.T) string {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u-1", "role": "User"}).SignedString([]byte("k"))
			require.NoError(t, err)
			return tok
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storage.NewMemoryStore()
			tok := tt.token(t)
			require.NoError(t, st.Set(storage.KeyAuthToken, tok))

			p, err := newStore(st, nil).Decode(tok)
			_, stored := st.Get(storage.KeyAuthToken)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, "u-1", p.ID)
				assert.Equal(t, "Ada", p.FirstName)
				assert.Equal(t, "Lovelace", p.LastName)
				assert.Equal(t, models.RoleUser, p.Role)
				assert.True(t, stored)
			} else {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, p)
				assert.False(t, stored, "invalid token must be evicted")
			}
		})
	}
}

func TestLogin_EditorDoesNotRefreshEnergy(t *testing.T) {
	st := storage.NewMemoryStore()
	src := &stubEnergy{value: 10}
	s := newStore(st, src)

	p, err := s.Login(context.Background(), signToken(t, models.RoleEditor, fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	s.WaitRefreshes()

	assert.Equal(t, models.RoleEditor, p.Role)
	assert.Equal(t, 0, src.calls)
	assert.False(t, s.Energy().Known)
	tok, _ := st.Get(storage.KeyAuthToken)
	assert.Equal(t, s.Token(), tok)
}

func TestLogin_LearnerRefreshesEnergy(t *testing.T) {
	src := &stubEnergy{value: 42}
	s := newStore(storage.NewMemoryStore(), src)

	_, err := s.Login(context.Background(), signToken(t, models.RoleUser, fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	s.WaitRefreshes()

	assert.Equal(t, Energy{Value: 42, Known: true}, s.Energy())
}

func TestLogin_EnergyFailureIsUnknown(t *testing.T) {
	src := &stubEnergy{err: errors.New("boom")}
	s := newStore(storage.NewMemoryStore(), src)

	_, err := s.Login(context.Background(), signToken(t, models.RoleUser, fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	s.WaitRefreshes()

	assert.False(t, s.Energy().Known)
	assert.Equal(t, 0, s.Energy().Value)
}

func TestLogin_InvalidTokenLeavesNoSession(t *testing.T) {
	st := storage.NewMemoryStore()
	s := newStore(st, nil)

	_, err := s.Login(context.Background(), signToken(t, models.RoleUser, fixedNow.Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, s.Principal())
	assert.Empty(t, s.Token())
	_, ok := st.Get(storage.KeyAuthToken)
	assert.False(t, ok)
}

func TestLogout_DiscardsInFlightRefresh(t *testing.T) {
	src := &stubEnergy{value: 7, release: make(chan struct{})}
	st := storage.NewMemoryStore()
	s := newStore(st, src)

	_, err := s.Login(context.Background(), signToken(t, models.RoleUser, fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	close(src.release)
	s.WaitRefreshes()

	assert.Nil(t, s.Principal())
	assert.False(t, s.Energy().Known, "refresh of a torn-down session must not apply")
	_, ok := st.Get(storage.KeyAuthToken)
	assert.False(t, ok)
}

func TestBootstrap(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		s := newStore(storage.NewMemoryStore(), nil)
		assert.False(t, s.Bootstrapped())
		s.Bootstrap(context.Background())
		assert.True(t, s.Bootstrapped())
		assert.Nil(t, s.Principal())
	})

	t.Run("expired token is evicted", func(t *testing.T) {
		st := storage.NewMemoryStore()
		require.NoError(t, st.Set(storage.KeyAuthToken, signToken(t, models.RoleAdmin, fixedNow.Add(-time.Minute))))
		s := newStore(st, nil)
		s.Bootstrap(context.Background())
		assert.True(t, s.Bootstrapped())
		assert.Nil(t, s.Principal())
		_, ok := st.Get(storage.KeyAuthToken)
		assert.False(t, ok)
	})

	t.Run("learner waits for energy", func(t *testing.T) {
		st := storage.NewMemoryStore()
		require.NoError(t, st.Set(storage.KeyAuthToken, signToken(t, models.RoleUser, fixedNow.Add(time.Hour))))
		src := &stubEnergy{value: 3, release: make(chan struct{})}
		s := newStore(st, src)

		done := make(chan struct{})
		go func() {
			s.Bootstrap(context.Background())
			close(done)
		}()

		select {
		case <-done:
			t.Fatal("bootstrap finished before energy refresh")
		case <-time.After(20 * time.Millisecond):
		}
		close(src.release)
		<-done

		assert.True(t, s.Bootstrapped())
		assert.Equal(t, Energy{Value: 3, Known: true}, s.Energy())
		require.NotNil(t, s.Principal())
	})
}

func TestHandleUnauthorized(t *testing.T) {
	st := storage.NewMemoryStore()
	s := newStore(st, nil)
	_, err := s.Login(context.Background(), signToken(t, models.RoleAdmin, fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	s.HandleUnauthorized()

	assert.Nil(t, s.Principal())
	_, ok := st.Get(storage.KeyAuthToken)
	assert.False(t, ok)
}

func TestPrincipalReturnsCopy(t *testing.T) {
	s := newStore(storage.NewMemoryStore(), nil)
	_, err := s.Login(context.Background(), signToken(t, models.RoleAdmin, fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	p := s.Principal()
	p.Role = models.RoleUser
	assert.Equal(t, models.RoleAdmin, s.Principal().Role)
}
