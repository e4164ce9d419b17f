package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/dbtest"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

type fixture struct {
	conn   *gorm.DB
	client *db.Client
	svc    Service
	orgID  uuid.UUID
	tank   models.Tank
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, "ledger")
	client := db.NewFromConn(conn)
	svc, err := NewService(NewRepository(conn), client, nil, nil)
	require.NoError(t, err)

	orgID := uuid.New()
	cellar := models.Cellar{OrganizationID: orgID, Name: "Main"}
	require.NoError(t, conn.Create(&cellar).Error)
	tank := models.Tank{
		OrganizationID: orgID,
		CellarID:       cellar.ID,
		Name:           "T1",
		Type:           enums.TankTypeStainlessSteel,
		Capacity:       decimal.NewFromInt(1000),
		CurrentVolume:  decimal.Zero,
	}
	require.NoError(t, conn.Create(&tank).Error)
	return fixture{conn: conn, client: client, svc: svc, orgID: orgID, tank: tank}
}

func (f fixture) apply(t *testing.T, volume int64) (*models.TankHistory, error) {
	t.Helper()
	var entry *models.TankHistory
	err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		entry, err = f.svc.Apply(context.Background(), tx, Mutation{
			OrganizationID: f.orgID,
			TankID:         f.tank.ID,
			Operation:      enums.TankOperationAdjustment,
			Volume:         decimal.NewFromInt(volume),
			Notes:          "test",
		})
		return err
	})
	return entry, err
}

func (f fixture) reload(t *testing.T) models.Tank {
	t.Helper()
	var tank models.Tank
	require.NoError(t, f.conn.First(&tank, "id = ?", f.tank.ID).Error)
	return tank
}

func (f fixture) historyCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.TankHistory{}).Where("tank_id = ?", f.tank.ID).Count(&count).Error)
	return count
}

func TestApplyUpdatesBalanceAndAppendsHistory(t *testing.T) {
	f := newFixture(t)

	entry, err := f.apply(t, 400)
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(400)))
	require.NotNil(t, entry.Notes)
	assert.Equal(t, "test", *entry.Notes)

	entry, err = f.apply(t, -150)
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(250)))

	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, int64(2), f.historyCount(t))
}

func TestApplyRejectsOverCapacity(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, 900)
	require.NoError(t, err)

	_, err = f.apply(t, 101)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation))

	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, int64(1), f.historyCount(t))
}

func TestApplyRejectsNegativeBalance(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, 100)
	require.NoError(t, err)

	_, err = f.apply(t, -101)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation))
	assert.Contains(t, err.Error(), "insufficient volume")

	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), f.historyCount(t))
}

func TestApplyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, nil, Mutation{OrganizationID: f.orgID, TankID: f.tank.ID, Operation: enums.TankOperationAdjustment, Volume: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	_, err = f.apply(t, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := f.svc.Apply(ctx, tx, Mutation{
			OrganizationID: uuid.New(),
			TankID:         f.tank.ID,
			Operation:      enums.TankOperationAdjustment,
			Volume:         decimal.NewFromInt(1),
		})
		return err
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "tank from another organization must not be visible")
}

func TestApplyRejectsSubCentilitreVolumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []string{"10.005", "-0.375", "0.001"} {
		err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := f.svc.Apply(ctx, tx, Mutation{
				OrganizationID: f.orgID,
				TankID:         f.tank.ID,
				Operation:      enums.TankOperationAdjustment,
				Volume:         decimal.RequireFromString(raw),
			})
			return err
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, raw)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code(), raw)
		assert.Contains(t, typed.Details(), "volume", raw)
	}
	assert.Zero(t, f.historyCount(t))

	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := f.svc.Apply(ctx, tx, Mutation{
			OrganizationID: f.orgID,
			TankID:         f.tank.ID,
			Operation:      enums.TankOperationAdjustment,
			Volume:         decimal.RequireFromString("10.500"),
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.RequireFromString("10.5")))
}

func TestListHistoryPaginates(t *testing.T) {
	f := newFixture(t)
	for _, v := range []int64{100, 50, -30} {
		_, err := f.apply(t, v)
		require.NoError(t, err)
	}

	tankID := f.tank.ID
	filter := HistoryFilter{TankID: &tankID}
	first, next, err := f.svc.ListHistory(context.Background(), f.orgID, filter, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	assert.True(t, first[0].Volume.Equal(decimal.NewFromInt(-30)), "newest entry first")

	second, next, err := f.svc.ListHistory(context.Background(), f.orgID, filter, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)
	assert.True(t, second[0].Volume.Equal(decimal.NewFromInt(100)))

	_, _, err = f.svc.ListHistory(context.Background(), f.orgID, filter, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReconcileReportsAndFixesDrift(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, 300)
	require.NoError(t, err)

	report, err := f.svc.Reconcile(context.Background(), f.orgID, false)
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.Equal(t, 1, report.TanksChecked)

	require.NoError(t, f.conn.Model(&models.Tank{}).Where("id = ?", f.tank.ID).
		Update("current_volume", decimal.NewFromInt(280)).Error)

	report, err = f.svc.Reconcile(context.Background(), f.orgID, false)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].Difference.Equal(decimal.NewFromInt(-20)))
	assert.False(t, report.Drifts[0].Fixed)
	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.NewFromInt(280)))

	report, err = f.svc.Reconcile(context.Background(), f.orgID, true)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].Fixed)
	assert.True(t, f.reload(t).CurrentVolume.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, int64(1), f.historyCount(t), "fixing drift writes no history")

	var rows []models.TankHistory
	require.NoError(t, f.conn.Where("tank_id = ?", f.tank.ID).Find(&rows).Error)
	assert.True(t, Sum(rows).Equal(f.reload(t).CurrentVolume))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	require.Error(t, err)
}
