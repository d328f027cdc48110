package dbmysql

import (
	"context"
	"fmt"
	"testing"

	"charityops/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// one shared in-memory database per test, across pool connections
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newTestRepos(t *testing.T) (NotificationRepository, UserNotificationRepository) {
	db := newTestDB(t)
	return NewNotificationRepository(db), NewUserNotificationRepository(db)
}

func createNotification(t *testing.T, repo NotificationRepository, title string, recipients ...uint64) *Notification {
	t.Helper()
	n := &Notification{
		Title:    title,
		Body:     "body of " + title,
		Category: common.CategoryInfo,
	}
	require.NoError(t, repo.Create(context.Background(), n, recipients))
	require.NotZero(t, n.ID)
	return n
}

func TestNotificationRepository_CreateWithRecipients(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := createNotification(t, repo, "Donation received", 7, 9)

	for _, userID := range []uint64{7, 9} {
		row, err := ledger.ByPair(ctx, n.ID, userID)
		require.NoError(t, err)
		assert.False(t, row.IsRead)
		assert.Nil(t, row.ReadAt)
		assert.False(t, row.Archived)
	}
}

func TestNotificationRepository_DuplicateRecipientIsNoOp(t *testing.T) {
	repo, _ := newTestRepos(t)
	db := repo.(*notificationRepository).db

	n := createNotification(t, repo, "welcome", 7)

	// Re-targeting an already-ledgered pair is skipped, not duplicated.
	dup := &UserNotification{NotificationID: n.ID, UserID: 7}
	require.NoError(t, db.Clauses(clause.OnConflict{DoNothing: true}).Create(dup).Error)

	var count int64
	require.NoError(t, db.Model(&UserNotification{}).
		Where("notification_id = ? AND user_id = ?", n.ID, 7).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNotificationRepository_ByID_NotFound(t *testing.T) {
	repo, _ := newTestRepos(t)

	_, err := repo.ByID(context.Background(), 9999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotificationRepository_DeleteCascadesLedger(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := createNotification(t, repo, "to delete", 7)

	require.NoError(t, repo.Delete(ctx, n.ID))

	_, err := repo.ByID(ctx, n.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = ledger.ByPair(ctx, n.ID, 7)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotificationRepository_Delete_NotFound(t *testing.T) {
	repo, _ := newTestRepos(t)
	assert.ErrorIs(t, repo.Delete(context.Background(), 424242), common.ErrNotFound)
}

func TestNotificationRepository_ArchiveHidesFromList(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := createNotification(t, repo, "soon archived", 7)
	require.NoError(t, repo.Archive(ctx, n.ID))

	rows, total, err := repo.ListForUser(ctx, 7, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)

	// archival does not delete the ledger row
	row, err := ledger.ByPair(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.False(t, row.IsRead)
}

func TestNotificationRepository_ListForUser(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	createNotification(t, repo, "alpha", 7)
	createNotification(t, repo, "beta", 7, 9)
	createNotification(t, repo, "gamma", 9)

	rows, total, err := repo.ListForUser(ctx, 7, ListQuery{Page: 1, PageSize: 10, SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].Title)
	assert.Equal(t, "beta", rows[1].Title)
	for _, row := range rows {
		assert.False(t, row.IsRead)
		assert.Nil(t, row.ReadAt)
	}

	// user 9 never sees rows without a ledger entry
	rows, total, err = repo.ListForUser(ctx, 9, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, row := range rows {
		assert.NotEqual(t, "alpha", row.Title)
	}
}

func TestNotificationRepository_ListForUser_Filters(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := &Notification{Title: "Donation received", Body: "Rs. 5000", Category: common.CategoryDonation}
	require.NoError(t, repo.Create(ctx, n, []uint64{7}))
	createNotification(t, repo, "maintenance window", 7)

	rows, total, err := repo.ListForUser(ctx, 7, ListQuery{
		Page: 1, PageSize: 10,
		Filter: ListFilter{Category: common.CategoryDonation},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Donation received", rows[0].Title)

	rows, _, err = repo.ListForUser(ctx, 7, ListQuery{
		Page: 1, PageSize: 10,
		Filter: ListFilter{Search: "5000"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rs. 5000", rows[0].Body)

	_, err = ledger.MarkRead(ctx, n.ID, 7)
	require.NoError(t, err)

	unread := false
	rows, _, err = repo.ListForUser(ctx, 7, ListQuery{
		Page: 1, PageSize: 10,
		Filter: ListFilter{IsRead: &unread},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "maintenance window", rows[0].Title)
}

func TestNotificationRepository_ListForUser_Pagination(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createNotification(t, repo, fmt.Sprintf("n-%d", i), 7)
	}

	rows, total, err := repo.ListForUser(ctx, 7, ListQuery{Page: 2, PageSize: 2, SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "n-2", rows[0].Title)
	assert.Equal(t, "n-3", rows[1].Title)
}

func TestUserNotificationRepository_MarkRead(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := createNotification(t, repo, "read me", 7)

	row, err := ledger.MarkRead(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.True(t, row.IsRead)
	require.NotNil(t, row.ReadAt)
	firstReadAt := *row.ReadAt

	// idempotent: second call succeeds and read_at stays fixed
	row, err = ledger.MarkRead(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.True(t, row.IsRead)
	require.NotNil(t, row.ReadAt)
	assert.Equal(t, firstReadAt.Unix(), row.ReadAt.Unix())
}

func TestUserNotificationRepository_MarkRead_NotFound(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	n := createNotification(t, repo, "not yours", 7)

	_, err := ledger.MarkRead(ctx, n.ID, 9)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserNotificationRepository_UnreadCountInvariant(t *testing.T) {
	repo, ledger := newTestRepos(t)
	ctx := context.Background()

	count, err := ledger.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, count)

	first := createNotification(t, repo, "one", 7)
	createNotification(t, repo, "two", 7)
	createNotification(t, repo, "three", 7, 9)

	count, err = ledger.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = ledger.MarkRead(ctx, first.ID, 7)
	require.NoError(t, err)

	count, err = ledger.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	affected, err := ledger.MarkAllRead(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err = ledger.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, count)

	// user 9's ledger is untouched
	count, err = ledger.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserNotificationRepository_MarkAllRead_Empty(t *testing.T) {
	_, ledger := newTestRepos(t)

	affected, err := ledger.MarkAllRead(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
