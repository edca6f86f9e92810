package animals_test

import (
	"context"
	"strings"
	"testing"

	"geckohub/internal/adapters/storage/memory"
	"geckohub/internal/domain/access"
	"geckohub/internal/domain/animals"
	"geckohub/internal/platform/optional"
	"geckohub/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = auth.Claims{UserID: 1}
	other = auth.Claims{UserID: 2}
	admin = auth.Claims{UserID: 3, IsAdmin: true}
)

func newService() *animals.Service {
	return animals.NewService(memory.NewStore().Animals(), nil)
}

func i64(v int64) *int64 { return &v }

func TestCreate_ForcesOwnerToCaller(t *testing.T) {
	svc := newService()

	a, err := svc.Create(context.Background(), owner, animals.Input{Name: "Mango", OwnerUserID: i64(99)})
	require.NoError(t, err)
	require.NotNil(t, a.OwnerUserID)
	assert.Equal(t, int64(1), *a.OwnerUserID)
	assert.Equal(t, animals.GenderUnknown, a.Gender)
	assert.Equal(t, animals.AcquisitionPurchased, a.AcquisitionType)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, auth.Anonymous, animals.Input{Name: "x"})
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	_, err = svc.Create(ctx, owner, animals.Input{Name: "  "})
	ve, ok := access.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)

	_, err = svc.Create(ctx, owner, animals.Input{Name: "x", Gender: "Robot"})
	ve, ok = access.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "gender", ve.Field)

	_, err = svc.Create(ctx, owner, animals.Input{Name: "x", SireID: i64(404)})
	ve, ok = access.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "sire", ve.Field)
}

func TestList_ScopedByCaller(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, _ = svc.Create(ctx, owner, animals.Input{Name: "mine"})
	_, _ = svc.Create(ctx, other, animals.Input{Name: "theirs"})

	got, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Name)

	got, err = svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(ctx, auth.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_IsUnscoped(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, owner, animals.Input{Name: "mine"})

	got, err := svc.Get(ctx, auth.Anonymous, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Name)

	_, err = svc.Get(ctx, other, 999)
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestUpdate_Rights(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, owner, animals.Input{Name: "mine"})
	name := "renamed"

	_, err := svc.Update(ctx, other, a.ID, animals.Patch{Name: &name})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = svc.Update(ctx, auth.Anonymous, a.ID, animals.Patch{Name: &name})
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	_, err = svc.Update(ctx, other, 999, animals.Patch{Name: &name})
	assert.ErrorIs(t, err, access.ErrNotFound, "not found is reported before forbidden")

	got, err := svc.Update(ctx, admin, a.ID, animals.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int64(1), *got.OwnerUserID, "owner never changes")
}

func TestUpdate_PatchNullClearsParent(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	sire, _ := svc.Create(ctx, owner, animals.Input{Name: "sire", Gender: animals.GenderMale})
	baby, err := svc.Create(ctx, owner, animals.Input{Name: "baby", SireID: i64(sire.ID)})
	require.NoError(t, err)

	got, err := svc.Update(ctx, owner, baby.ID, animals.Patch{Morph: strPtr("lilly white")})
	require.NoError(t, err)
	require.NotNil(t, got.SireID, "absent field is untouched")

	got, err = svc.Update(ctx, owner, baby.ID, animals.Patch{SireID: optional.Null[int64]()})
	require.NoError(t, err)
	assert.Nil(t, got.SireID)
}

func TestUpdate_RejectsSelfParent(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, owner, animals.Input{Name: "a"})
	_, err := svc.Update(ctx, owner, a.ID, animals.Patch{DamID: optional.Some(a.ID)})
	ve, ok := access.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "dam", ve.Field)
}

func TestLegacyUnownedAnimal_AdminOnly(t *testing.T) {
	store := memory.NewStore()
	svc := animals.NewService(store.Animals(), nil)
	ctx := context.Background()

	legacy, err := store.Animals().Create(ctx, animals.Animal{Name: "legacy", Gender: animals.GenderUnknown, AcquisitionType: animals.AcquisitionPurchased})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, owner, legacy.ID), access.ErrForbidden)

	mine, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, svc.Delete(ctx, admin, legacy.ID))
}

func TestChildrenAndSummaries(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	sire, _ := svc.Create(ctx, owner, animals.Input{Name: "sire", Gender: animals.GenderMale})
	dam, _ := svc.Create(ctx, other, animals.Input{Name: "dam", Gender: animals.GenderFemale})
	baby, err := svc.Create(ctx, owner, animals.Input{Name: "baby", SireID: i64(sire.ID), DamID: i64(dam.ID)})
	require.NoError(t, err, "parents may belong to another collection")

	kids, err := svc.Children(ctx, dam.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, baby.ID, kids[0].ID)

	sums, err := svc.Summaries(ctx, []int64{sire.ID, dam.ID, sire.ID, 404})
	require.NoError(t, err)
	assert.Len(t, sums, 2)
	assert.Equal(t, "dam", sums[dam.ID].Name)
	assert.Equal(t, animals.GenderFemale, sums[dam.ID].Gender)
}

func strPtr(s string) *string { return &s }

func TestCreate_LengthLimitsCountCharacters(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	// 50 caracteres de 3 bytes cada uno: 150 bytes, pero dentro del límite.
	a, err := svc.Create(ctx, owner, animals.Input{Name: strings.Repeat("게", 50), Morph: strings.Repeat("릴", 100)})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("게", 50), a.Name)

	cases := []struct {
		field string
		in    animals.Input
	}{
		{"name", animals.Input{Name: strings.Repeat("게", 51)}},
		{"morph", animals.Input{Name: "x", Morph: strings.Repeat("m", 101)}},
		{"acquisition_source", animals.Input{Name: "x", AcquisitionSource: strings.Repeat("s", 101)}},
		{"sire_name", animals.Input{Name: "x", SireName: strings.Repeat("아", 51)}},
		{"dam_name", animals.Input{Name: "x", DamName: strings.Repeat("d", 51)}},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, owner, tc.in)
		ve, ok := access.AsValidation(err)
		require.True(t, ok, "field %s: expected validation error, got %v", tc.field, err)
		assert.Equal(t, tc.field, ve.Field)
	}

	_, err = svc.Update(ctx, owner, a.ID, animals.Patch{SireName: strPtr(strings.Repeat("아", 51))})
	ve, ok := access.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "sire_name", ve.Field)
}

// leakyRepo ignora el filtro por dueño, como haría un repo mal escrito.
type leakyRepo struct {
	animals.Repository
}

func (r leakyRepo) ListByOwner(ctx context.Context, _ int64) ([]animals.Animal, error) {
	return r.ListAll(ctx)
}

func TestList_AppliesListPredicate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Animals()
	svc := animals.NewService(leakyRepo{repo}, nil)

	mine, err := svc.Create(ctx, owner, animals.Input{Name: "mine"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, animals.Input{Name: "theirs"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, animals.Animal{Name: "legacy"})
	require.NoError(t, err)

	got, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
