package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/KlimSani4/hydrocalc/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func sampleCalculation(total float64) *models.Calculation {
	return &models.Calculation{
		JuniorCount: 10,
		Season:      "cold",
		Activity:    "normal",
		TotalWater:  total,
	}
}

func TestInsertAccount_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acc, err := s.InsertAccount(ctx, "a@example.com", "hash")
	require.NoError(t, err)
	assert.NotZero(t, acc.ID)
	assert.False(t, acc.CreatedAt.IsZero())

	_, err = s.InsertAccount(ctx, "a@example.com", "other")
	assert.True(t, errors.Is(err, ErrDuplicateEmail), "got %v", err)

	// emails are compared as stored
	_, err = s.InsertAccount(ctx, "A@example.com", "hash")
	assert.NoError(t, err)
}

func TestFindAccount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acc, err := s.InsertAccount(ctx, "find@example.com", "hash")
	require.NoError(t, err)

	byEmail, err := s.FindAccountByEmail(ctx, "find@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)

	byID, err := s.FindAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "find@example.com", byID.Email)

	_, err = s.FindAccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindAccountByID(ctx, acc.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalculations_OwnershipAndOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	owner, err := s.InsertAccount(ctx, "owner@example.com", "hash")
	require.NoError(t, err)
	other, err := s.InsertAccount(ctx, "other@example.com", "hash")
	require.NoError(t, err)

	first, err := s.InsertCalculation(ctx, &owner.ID, sampleCalculation(16))
	require.NoError(t, err)
	second, err := s.InsertCalculation(ctx, &owner.ID, sampleCalculation(20.8))
	require.NoError(t, err)
	foreign, err := s.InsertCalculation(ctx, &other.ID, sampleCalculation(24))
	require.NoError(t, err)
	anon, err := s.InsertCalculation(ctx, nil, sampleCalculation(32))
	require.NoError(t, err)
	assert.Nil(t, anon.AccountID)

	rows, err := s.ListCalculationsByAccount(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID, "newest first")
	assert.Equal(t, first.ID, rows[1].ID)

	got, err := s.FindCalculationForAccount(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.0, got.TotalWater)

	_, err = s.FindCalculationForAccount(ctx, foreign.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindCalculationForAccount(ctx, anon.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccount_RemovesCalculations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acc, err := s.InsertAccount(ctx, "gone@example.com", "hash")
	require.NoError(t, err)
	_, err = s.InsertCalculation(ctx, &acc.ID, sampleCalculation(16))
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, acc.ID))

	var count int64
	require.NoError(t, s.DB().Model(&models.Calculation{}).Where("account_id = ?", acc.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, s.DeleteAccount(ctx, acc.ID), ErrNotFound)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=1", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=1", sqliteDSN("file:x.db?cache=shared"))
	assert.True(t, isPostgres("postgresql://u:p@localhost/db"))
	assert.False(t, isPostgres("hydrocalc.db"))
}
