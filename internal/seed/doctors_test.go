package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/clinic-calendar/internal/db/dbtest"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

func TestDoctors_Templates(t *testing.T) {
	list := Doctors()
	require.Len(t, list, 18)

	seen := map[string]bool{}
	for _, p := range list {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true

		w := p.Weekly()
		assert.Empty(t, w.WorkingSlots(schedule.Sat), p.ID)
		assert.Empty(t, w.WorkingSlots(schedule.Sun), p.ID)
		for _, key := range schedule.Keys {
			for _, label := range w[key] {
				assert.True(t, schedule.IsGridLabel(label), "%s %s %s", p.ID, key, label)
			}
		}
	}

	assert.Len(t, full, 28)
	assert.NotContains(t, full, "12:00")
	assert.Equal(t, "16:45", full[len(full)-1])
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGormProviderRepository(dbtest.Open(t))

	n, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	_, err = Seed(ctx, repo)
	require.NoError(t, err)

	all, err := repo.ListDoctors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 18)

	cardio, err := repo.ListByDepartment(ctx, "循環器内科")
	require.NoError(t, err)
	require.Len(t, cardio, 2)
	assert.Equal(t, "doc_cardiology_01", cardio[0].ID)
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45", "10:00", "10:15", "10:30", "10:45", "11:00", "11:15", "11:30", "11:45"},
		cardio[0].Weekly().WorkingSlots(schedule.Wed))

	depts, err := repo.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, depts, 15)
}
