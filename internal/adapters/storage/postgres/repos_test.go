package postgres

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"geckohub/internal/domain/animals"
	"geckohub/internal/domain/events"
	"geckohub/internal/domain/settings"
	"geckohub/internal/domain/users"
	"geckohub/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB conecta a GECKOHUB_TEST_DSN y aplica migraciones; sin DSN se omite.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("GECKOHUB_TEST_DSN")
	if dsn == "" {
		t.Skip("GECKOHUB_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, Options{DSN: dsn, StatementTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(ctx, db, logger.NewNop()))
	return db
}

func i64(v int64) *int64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newUser(t *testing.T, db *sqlx.DB) users.User {
	t.Helper()
	u, err := NewUsersRepo(db).GetOrCreateByEmail(context.Background(), users.User{
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "tester",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return u
}

func TestPostgres_AnimalDeleteCascadesAndNullifies(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ar, er := NewAnimalsRepo(db), NewEventsRepo(db)
	owner := newUser(t, db)
	now := time.Now()

	sire, err := ar.Create(ctx, animals.Animal{Name: "Sire", OwnerUserID: i64(owner.ID), Gender: animals.GenderMale, AcquisitionType: animals.AcquisitionPurchased, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	dam, err := ar.Create(ctx, animals.Animal{Name: "Dam", OwnerUserID: i64(owner.ID), Gender: animals.GenderFemale, AcquisitionType: animals.AcquisitionPurchased, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	baby, err := ar.Create(ctx, animals.Animal{Name: "Baby", OwnerUserID: i64(owner.ID), Gender: animals.GenderUnknown, AcquisitionType: animals.AcquisitionHatched, SireID: i64(sire.ID), DamID: i64(dam.ID), CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	own, err := er.Create(ctx, events.Event{SubjectID: sire.ID, Type: events.TypeFeeding, Date: day("2024-05-01"), CreatedAt: now})
	require.NoError(t, err)
	mating, err := er.Create(ctx, events.Event{SubjectID: dam.ID, PartnerID: i64(sire.ID), Type: events.TypeMating, Date: day("2024-05-02"), CreatedAt: now})
	require.NoError(t, err)

	asPartner, err := er.ListByPartner(ctx, sire.ID)
	require.NoError(t, err)
	require.Len(t, asPartner, 1)
	assert.Equal(t, mating.ID, asPartner[0].ID)

	children, err := ar.ListChildren(ctx, dam.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, baby.ID, children[0].ID)

	require.NoError(t, ar.Delete(ctx, sire.ID))

	_, err = er.GetByID(ctx, own.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := er.GetByID(ctx, mating.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PartnerID)

	child, err := ar.GetByID(ctx, baby.ID)
	require.NoError(t, err)
	assert.Nil(t, child.SireID)
	require.NotNil(t, child.DamID)
	assert.Equal(t, dam.ID, *child.DamID)
}

func TestPostgres_EventListFiltersAndMissingSubject(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ar, er := NewAnimalsRepo(db), NewEventsRepo(db)
	owner := newUser(t, db)
	now := time.Now()

	a, err := ar.Create(ctx, animals.Animal{Name: "Mango", OwnerUserID: i64(owner.ID), Gender: animals.GenderUnknown, AcquisitionType: animals.AcquisitionPurchased, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	temp := 25.0
	hatch := day("2024-07-02")
	_, err = er.Create(ctx, events.Event{SubjectID: a.ID, Type: events.TypeFeeding, Date: day("2024-05-01"), Note: "crickets_50%", CreatedAt: now})
	require.NoError(t, err)
	laying, err := er.Create(ctx, events.Event{SubjectID: a.ID, Type: events.TypeLaying, Date: day("2024-05-03"), IncubationTemp: &temp, ExpectedHatchDate: &hatch, CreatedAt: now})
	require.NoError(t, err)
	require.NotNil(t, laying.ExpectedHatchDate)
	assert.Equal(t, "2024-07-02", laying.ExpectedHatchDate.Format("2006-01-02"))

	got, err := er.List(ctx, events.ListFilter{OwnerUserID: i64(owner.ID)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, laying.ID, got[0].ID, "date DESC")

	got, err = er.List(ctx, events.ListFilter{OwnerUserID: i64(owner.ID), Types: []events.EventType{events.TypeFeeding}, Query: "50%"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = er.Create(ctx, events.Event{SubjectID: -1, Type: events.TypeOther, Date: day("2024-01-01"), CreatedAt: now})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_SettingsGetOrCreateConcurrent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewSettingsRepo(db)
	owner := newUser(t, db)

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := repo.GetOrCreate(ctx, owner.ID, settings.UserSettings{FeedingDays: []json.RawMessage{}, CreatedAt: time.Now(), UpdatedAt: time.Now()})
			if err == nil {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	s, err := repo.GetOrCreate(ctx, owner.ID, settings.UserSettings{})
	require.NoError(t, err)
	s.FeedingDays = []json.RawMessage{json.RawMessage(`"Mon"`), json.RawMessage(`3`), json.RawMessage(`"Mon"`)}
	s.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, s))

	again, err := repo.GetOrCreate(ctx, owner.ID, settings.UserSettings{})
	require.NoError(t, err)
	encoded, err := json.Marshal(again.FeedingDays)
	require.NoError(t, err)
	assert.JSONEq(t, `["Mon", 3, "Mon"]`, string(encoded))
}

func TestPostgres_UsersUniqueByEmail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUsersRepo(db)

	email := uuid.NewString() + "@example.com"
	u1, err := repo.GetOrCreateByEmail(ctx, users.User{Email: email, DisplayName: "Leo", CreatedAt: time.Now()})
	require.NoError(t, err)
	u2, err := repo.GetOrCreateByEmail(ctx, users.User{Email: email, DisplayName: "Other", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Leo", u2.DisplayName)

	_, err = repo.GetByID(ctx, -1)
	assert.ErrorIs(t, err, ErrNotFound)
}
