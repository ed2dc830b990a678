package signal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wellbeing-reminder-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.User{},
		&model.ActivityLog{},
		&model.MoodEntry{},
		&model.SurveyResponse{},
		&model.ArticleDismissal{},
	))

	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})
	return testDB
}

func TestLastActivity(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)
	ctx := context.Background()

	older := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)

	require.NoError(t, testDB.Create(&model.ActivityLog{UserID: 1, Kind: "walk", CreatedAt: older}).Error)
	require.NoError(t, testDB.Create(&model.ActivityLog{UserID: 1, Kind: "meditation", CreatedAt: newer}).Error)
	require.NoError(t, testDB.Create(&model.ActivityLog{UserID: 2, Kind: "walk", CreatedAt: older}).Error)
	// User 3 in the batch has no activity at all.

	got, err := src.LastActivity(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.Unix(), got[1].Unix())
	assert.Equal(t, older.Unix(), got[2].Unix())
	_, ok := got[3]
	assert.False(t, ok)
}

func TestLastActivityEmptyBatch(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)

	got, err := src.LastActivity(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMoodEntryOwnersOn(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

	require.NoError(t, testDB.Create(&model.MoodEntry{UserID: 1, Score: 4, CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}).Error)
	// Just before midnight still counts for the same calendar day.
	require.NoError(t, testDB.Create(&model.MoodEntry{UserID: 2, Score: 3, CreatedAt: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)}).Error)
	// The previous day does not.
	require.NoError(t, testDB.Create(&model.MoodEntry{UserID: 3, Score: 5, CreatedAt: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)}).Error)

	got, err := src.MoodEntryOwnersOn(ctx, []int64{1, 2, 3, 4}, day)
	require.NoError(t, err)
	assert.True(t, got[1])
	assert.True(t, got[2])
	assert.False(t, got[3])
	assert.False(t, got[4])
}

func TestLastSurveySubmission(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)
	ctx := context.Background()

	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, testDB.Create(&model.SurveyResponse{UserID: 1, SurveyKey: "weekly", SubmittedAt: first}).Error)
	require.NoError(t, testDB.Create(&model.SurveyResponse{UserID: 1, SurveyKey: "weekly", SubmittedAt: second}).Error)

	got, err := src.LastSurveySubmission(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.Unix(), got[1].Unix())
}

func TestLastArticleDismissal(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)
	ctx := context.Background()

	at := time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)
	require.NoError(t, testDB.Create(&model.ArticleDismissal{UserID: 7, ArticleID: 42, CreatedAt: at}).Error)

	got, err := src.LastArticleDismissal(ctx, []int64{7})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, at.Unix(), got[7].Unix())
}

func TestAccountTimes(t *testing.T) {
	testDB := newTestDB(t)
	src := NewGormSources(testDB)
	ctx := context.Background()

	created := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, testDB.Create(&model.User{ID: 1, Email: "a@example.com", CreatedAt: created, UpdatedAt: updated}).Error)

	got, err := src.AccountTimes(ctx, []int64{1, 99})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.Unix(), got[1].CreatedAt.Unix())
	assert.Equal(t, updated.Unix(), got[1].UpdatedAt.Unix())
}

func TestQueryErrorIsWrapped(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	src := NewGormSources(gormDB)

	mock.ExpectQuery("SELECT").WillReturnError(fmt.Errorf("connection reset"))

	_, err = src.LastActivity(context.Background(), []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk fetch last activity")
	assert.NoError(t, mock.ExpectationsWereMet())
}
