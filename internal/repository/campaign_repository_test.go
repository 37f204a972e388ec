package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
)

func newMockRepo(t *testing.T) (*CampaignRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &CampaignRepository{DB: db}, mock
}

func TestClaimScheduledWinsOnRowAffected(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaigns SET status='sent', updated_at=NOW() WHERE id=$1 AND status='scheduled'`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimScheduled(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimScheduledLosesWhenAlreadyClaimed(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaigns SET status='sent', updated_at=NOW() WHERE id=$1 AND status='scheduled'`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimScheduled(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithRecipientsCommitsCampaignAndRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO campaign_recipients").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO campaign_recipients").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	c := &model.Campaign{ShopID: 1, UserID: 1, Name: "Spring Sale", Subject: "s", Body: "b", AudienceType: "all"}
	err := repo.CreateWithRecipients(context.Background(), c, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, model.CampaignStatusDraft, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithRecipientsRollsBackOnRecipientFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO campaign_recipients").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO campaign_recipients").
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	c := &model.Campaign{ShopID: 1, UserID: 1, Name: "Spring Sale", Subject: "s", Body: "b", AudienceType: "all"}
	err := repo.CreateWithRecipients(context.Background(), c, []int64{10, 11})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE shop_id=").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 1, 99)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCountRecipientsByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 3).
		AddRow("sent", 5).
		AddRow("failed", 2)
	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	counts, err := repo.CountRecipientsByStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.RecipientCounts{Pending: 3, Sent: 5, Failed: 2}, counts)
	assert.Equal(t, 10, counts.Total())
}

func TestMarkRecipientSentGuardsTerminalStates(t *testing.T) {
	repo, mock := newMockRepo(t)

	sentAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE campaign_recipients SET status='sent', sent_at=$1, provider_message_id=$2, updated_at=NOW() WHERE id=$3 AND status='pending'`)).
		WithArgs(sentAt, "msg-1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRecipientSent(context.Background(), 5, sentAt, "msg-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
