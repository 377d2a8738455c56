package slot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo implements Repository over an in-memory map with the same
// conditional-update semantics as the pgx implementation.
type fakeRepo struct {
	records map[string]*Record
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*Record)}
}

func recKey(templateID int64, date time.Time) string {
	return fmt.Sprintf("%d:%s", templateID, date.Format("2006-01-02"))
}

func (f *fakeRepo) WithTx(_ pgx.Tx) Repository { return f }

func (f *fakeRepo) GetOwner(_ context.Context, id int64) (*Owner, error) {
	return &Owner{ID: id, Name: "owner"}, nil
}

func (f *fakeRepo) GetTemplatesByIDs(_ context.Context, _ []int64) ([]*Template, error) {
	return nil, nil
}

func (f *fakeRepo) ListTemplatesByOwner(_ context.Context, _ int64, _ ServiceType, _, _ int) ([]*Template, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) GetRecords(_ context.Context, templateIDs []int64, date time.Time) ([]*Record, error) {
	var out []*Record
	for _, id := range templateIDs {
		if rec, ok := f.records[recKey(id, date)]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertRecord(_ context.Context, rec *Record) error {
	key := recKey(rec.TemplateID, rec.Date)
	if _, ok := f.records[key]; ok {
		return ErrStaleTransition
	}
	f.nextID++
	rec.ID = f.nextID
	cp := *rec
	f.records[key] = &cp
	return nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, p TransitionParams) (bool, error) {
	rec, ok := f.records[recKey(p.TemplateID, p.Date)]
	if !ok || rec.Status != p.From {
		return false, nil
	}
	if p.ExpectedHolderID != nil && rec.HolderID != *p.ExpectedHolderID {
		return false, nil
	}
	rec.Status = p.To
	rec.HolderID = p.HolderID
	rec.OrderID = p.OrderID
	rec.Source = p.Source
	rec.LockExpiresAt = p.LockExpiresAt
	return true, nil
}

var testDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestLockInMaterializesRecord(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	rec, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, rec.Status)
	assert.Equal(t, int64(77), rec.HolderID)
	assert.NotZero(t, rec.ID, "record must be lazily created")
}

func TestLockInReusesReleasedRecord(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)
	require.NoError(t, Release(ctx, repo, 1, testDate, StatusLocked, 77))

	rec, err := LockIn(ctx, repo, template, testDate, 88, LockSourceUser, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, rec.Status)
	assert.Equal(t, int64(88), rec.HolderID)
}

func TestLockInTakenSlot(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)

	_, err = LockIn(ctx, repo, template, testDate, 88, LockSourceUser, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLockInDifferentDatesIndependent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)

	_, err = LockIn(ctx, repo, template, testDate.AddDate(0, 0, 1), 88, LockSourceUser, nil)
	assert.NoError(t, err)
}

func TestCommitRequiresLocked(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	// No record at all.
	assert.ErrorIs(t, Commit(ctx, repo, 1, testDate, 77, 900), ErrStaleTransition)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)
	require.NoError(t, Commit(ctx, repo, 1, testDate, 77, 900))

	recs, err := repo.GetRecords(ctx, []int64{1}, testDate)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusBooked, recs[0].Status)
	assert.Equal(t, int64(900), recs[0].OrderID)

	// Double commit is a stale transition, not a silent success.
	assert.ErrorIs(t, Commit(ctx, repo, 1, testDate, 77, 900), ErrStaleTransition)
}

func TestCommitRequiresHolder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)

	// Someone else's lock cannot be committed, and the holder stays intact.
	assert.ErrorIs(t, Commit(ctx, repo, 1, testDate, 88, 900), ErrStaleTransition)

	recs, err := repo.GetRecords(ctx, []int64{1}, testDate)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusLocked, recs[0].Status)
	assert.Equal(t, int64(77), recs[0].HolderID)

	require.NoError(t, Commit(ctx, repo, 1, testDate, 77, 900))
}

func TestReleaseRequiresHolder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, Release(ctx, repo, 1, testDate, StatusLocked, 88), ErrStaleTransition)

	recs, err := repo.GetRecords(ctx, []int64{1}, testDate)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, recs[0].Status)
	assert.Equal(t, int64(77), recs[0].HolderID)
}

func TestReleaseFromBooked(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)
	require.NoError(t, Commit(ctx, repo, 1, testDate, 77, 900))
	require.NoError(t, Release(ctx, repo, 1, testDate, StatusBooked, 77))

	recs, err := repo.GetRecords(ctx, []int64{1}, testDate)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, recs[0].Status)
	assert.Zero(t, recs[0].HolderID)
}

func TestReleaseRejectsBadFromStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	assert.ErrorIs(t, Release(ctx, repo, 1, testDate, StatusAvailable, 77), ErrStaleTransition)
	assert.ErrorIs(t, Release(ctx, repo, 1, testDate, StatusBlocked, 77), ErrStaleTransition)
}

func TestBlockAndUnblock(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	rec, err := Block(ctx, repo, template, testDate, 5)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, rec.Status)
	assert.Equal(t, LockSourceMerchant, rec.Source)

	// Blocked slots cannot be locked in.
	_, err = LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, Unblock(ctx, repo, 1, testDate))
	_, err = LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	assert.NoError(t, err)
}

func TestBlockTakenSlot(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	template := tmpl(1, 10, 540, 600)

	_, err := LockIn(ctx, repo, template, testDate, 77, LockSourceUser, nil)
	require.NoError(t, err)

	_, err = Block(ctx, repo, template, testDate, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}
