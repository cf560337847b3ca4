package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/cryptox"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/dmitrijs2005/streamkeeper/internal/server/playback"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/pgtest"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newPostgresServices(t *testing.T) (*sql.DB, *UserService, *StreamService) {
	t.Helper()
	db := pgtest.Open(t)
	tx := dbx.NewSQLTransactor(db)
	rm := repomanager.NewPostgresRepositoryManager()
	m := metrics.New()

	us, err := NewUserService(tx, rm, cryptox.NewBcryptHasher(bcrypt.MinCost),
		auth.NewTokenCodec(testSecret, time.Hour), m, logging.Nop{})
	require.NoError(t, err)
	resolver := playback.NewResolver("media.example:1935", "media.example:8083", nil, logging.Nop{})
	ss := NewStreamService(tx, rm, resolver, nil, time.Hour, m, logging.Nop{})
	return db, us, ss
}

func TestPostgres_ConcurrentRegisterSameUsername(t *testing.T) {
	db, us, _ := newPostgresServices(t)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.Email = fmt.Sprintf("alice%d@example.com", i)
			_, errs[i] = us.Register(context.Background(), in)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrDuplicateIdentity)
	}
	assert.Equal(t, 1, ok)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = 'Alice'`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestPostgres_RegisterCaseVariantsAndLogin(t *testing.T) {
	_, us, _ := newPostgresServices(t)
	ctx := context.Background()

	lower, err := us.Register(ctx, RegisterInput{Username: "bob", Email: "b1@example.com", Password: "password123"})
	require.NoError(t, err)
	upper, err := us.Register(ctx, RegisterInput{Username: "Bob", Email: "b2@example.com", Password: "password456"})
	require.NoError(t, err)

	res, err := us.Login(ctx, "bob", "password123")
	require.NoError(t, err)
	assert.Equal(t, lower.UserID, res.User.ID)

	res, err = us.Login(ctx, "Bob", "password456")
	require.NoError(t, err)
	assert.Equal(t, upper.UserID, res.User.ID)

	_, err = us.Register(ctx, RegisterInput{Username: "bob", Email: "b3@example.com", Password: "password123"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)
}

func TestPostgres_OverlongValuesAreValidationErrors(t *testing.T) {
	db, us, _ := newPostgresServices(t)

	in := validInput()
	in.Password = strings.Repeat("p", 80)
	_, err := us.Register(context.Background(), in)
	require.NoError(t, err)

	in = validInput()
	in.Username = strings.Repeat("u", common.MaxUsernameLength+1)
	_, err = us.Register(context.Background(), in)
	assert.ErrorIs(t, err, common.ErrFieldTooLong)

	_, err = users.NewPostgresRepository(db).Create(context.Background(), &models.User{
		ID: "00000000-0000-0000-0000-0000000000aa", Username: "ok", Email: "ok@example.com", PasswordHash: "x",
		LastName: strings.Repeat("l", common.MaxNameLength+1), CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, common.ErrFieldTooLong, "the column width is reported as validation")
}

func TestPostgres_ConcurrentGenerateKeyLeavesOneActiveStream(t *testing.T) {
	db, us, ss := newPostgresServices(t)
	ctx := context.Background()

	reg, err := us.Register(ctx, validInput())
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	keys := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := ss.GenerateKey(context.Background(), reg.UserID)
			errs[i] = err
			if v != nil {
				keys[i] = v.StreamKey
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for i, err := range errs {
		if err == nil {
			created++
		} else {
			require.ErrorIs(t, err, common.ErrStreamActive)
		}
		assert.Equal(t, keys[0], keys[i], "every caller sees the same key")
	}
	assert.Equal(t, 1, created)

	var active int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM streams WHERE user_id = $1 AND status = 'active'`, reg.UserID).Scan(&active))
	assert.Equal(t, 1, active)

	stopped, err := ss.StopStream(ctx, reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, keys[0], stopped.StreamKey)

	_, err = ss.AuthorizeKey(ctx, keys[0])
	assert.ErrorIs(t, err, common.ErrStreamKeyRejected)
}
