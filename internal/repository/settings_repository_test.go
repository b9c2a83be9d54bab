package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"signalbot/internal/models"
)

// ============================================================
// SettingsRepository Tests
// ============================================================

func TestNewSettingsRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewSettingsRepository(db)
	if repo == nil {
		t.Fatal("NewSettingsRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestSettingsRepositoryGet(t *testing.T) {
	now := time.Now()
	columns := []string{"id", "position_size_percent", "stop_loss_percent", "take_profit_percent",
		"max_daily_drawdown", "max_open_positions", "updated_at"}

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
		expectMax   int
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM settings\s+WHERE id = 1`).
					WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "0.02", "0.015", "0.03", "0.05", 4, now))
			},
			expectMax: 4,
		},
		{
			name: "not saved yet",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM settings\s+WHERE id = 1`).
					WillReturnError(sql.ErrNoRows)
			},
			expectError: ErrSettingsNotFound,
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM settings`).
					WillReturnError(errors.New("connection refused"))
			},
			expectError: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			result, err := NewSettingsRepository(db).Get()

			switch {
			case tt.expectError == ErrSettingsNotFound:
				if !errors.Is(err, ErrSettingsNotFound) {
					t.Errorf("expected ErrSettingsNotFound, got %v", err)
				}
			case tt.expectError != nil:
				if err == nil || errors.Is(err, ErrSettingsNotFound) {
					t.Errorf("expected raw database error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result.MaxOpenPositions != tt.expectMax {
					t.Errorf("MaxOpenPositions = %d, want %d", result.MaxOpenPositions, tt.expectMax)
				}
				if !result.StopLossPercent.Equal(decimal.RequireFromString("0.015")) {
					t.Errorf("StopLossPercent = %s", result.StopLossPercent)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := &models.Settings{
		PositionSizePercent: decimal.RequireFromString("0.02"),
		StopLossPercent:     decimal.RequireFromString("0.01"),
		TakeProfitPercent:   decimal.RequireFromString("0.03"),
		MaxDailyDrawdown:    decimal.RequireFromString("0.05"),
		MaxOpenPositions:    3,
	}

	mock.ExpectExec(`INSERT INTO settings .+ ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(s.PositionSizePercent, s.StopLossPercent, s.TakeProfitPercent, s.MaxDailyDrawdown, 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSettingsRepository(db).Save(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != 1 || s.UpdatedAt.IsZero() {
		t.Errorf("settings = %+v", s)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSettingsRepositoryReset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM settings WHERE id = 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSettingsRepository(db).Reset(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
