package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type notice struct{ to, title, thread string }

type fakeSender struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeSender) SendWelcome(context.Context, string) error { return nil }

func (f *fakeSender) SendNewThread(_ context.Context, to, title, thread string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{to, title, thread})
	return nil
}

type fixture struct {
	svc    *Service
	db     *gorm.DB
	mail   *fakeSender
	owner  uuid.UUID
	buyer  uuid.UUID
	listID uuid.UUID
}

func setupMessagingTest(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	owner := domain.User{Email: "owner@b.co", PasswordHash: "x"}
	buyer := domain.User{Email: "buyer@b.co", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&buyer).Error)
	l := domain.Listing{OwnerID: owner.ID, Title: "Lake House", Price: 1, Address: "1 Rd", City: "Austin", State: "TX", Zip: "78701", Status: domain.StatusActive}
	require.NoError(t, db.Create(&l).Error)

	mail := &fakeSender{}
	return &fixture{
		svc:    &Service{DB: db, Hub: &Hub{Rdb: rdb}, Emails: mail},
		db:     db,
		mail:   mail,
		owner:  owner.ID,
		buyer:  buyer.ID,
		listID: l.ID,
	}
}

func TestStartThread_OwnerRejected(t *testing.T) {
	f := setupMessagingTest(t)
	_, _, err := f.svc.StartThread(context.Background(), f.listID, f.owner)
	assert.ErrorIs(t, err, ErrOwnThread)

	var count int64
	f.db.Model(&domain.Thread{}).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&domain.ThreadMember{}).Count(&count)
	assert.Zero(t, count)
}

func TestStartThread_CreatesOnceAndNotifies(t *testing.T) {
	f := setupMessagingTest(t)
	thread, created, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)
	assert.True(t, created)

	var members []domain.ThreadMember
	require.NoError(t, f.db.Where("thread_id = ?", thread.ID).Find(&members).Error)
	assert.Len(t, members, 2)
	require.Len(t, f.mail.notices, 1)
	assert.Equal(t, notice{"owner@b.co", "Lake House", thread.ID.String()}, f.mail.notices[0])

	again, created, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, thread.ID, again.ID)

	_, _, err = f.svc.StartThread(context.Background(), uuid.New(), f.buyer)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestStartThread_ConcurrentStartsShareOneThread(t *testing.T) {
	f := setupMessagingTest(t)

	const n = 8
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			thread, _, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
			if assert.NoError(t, err) {
				ids[i] = thread.ID
			}
		}(i)
	}
	wg.Wait()

	var threads int64
	f.db.Model(&domain.Thread{}).Count(&threads)
	assert.Equal(t, int64(1), threads)
	var members int64
	f.db.Model(&domain.ThreadMember{}).Count(&members)
	assert.Equal(t, int64(2), members)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, f.mail.notices, 1)
}

func TestMessages_MembersOnly(t *testing.T) {
	f := setupMessagingTest(t)
	thread, _, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)

	_, err = f.svc.Messages(context.Background(), thread.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = f.svc.Send(context.Background(), thread.ID, uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrNotMember)

	msgs, err := f.svc.Messages(context.Background(), thread.ID, f.owner)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSend_TimestampsStrictlyIncrease(t *testing.T) {
	f := setupMessagingTest(t)
	frozen := time.Date(2024, 6, 1, 9, 0, 0, 123456789, time.UTC)
	f.svc.Now = func() time.Time { return frozen }
	thread, _, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)

	_, err = f.svc.Send(context.Background(), thread.ID, f.buyer, "  Is it still available?  ")
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), thread.ID, f.owner, "Yes")
	require.NoError(t, err)
	msgs, err := f.svc.Send(context.Background(), thread.ID, f.buyer, "Great")
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "Is it still available?", msgs[0].Body)
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt), "message %d not after %d", i, i-1)
	}
	assert.Equal(t, "Great", msgs[2].Body)

	_, err = f.svc.Send(context.Background(), thread.ID, f.buyer, "   ")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestNextTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 999, time.UTC)
	assert.Equal(t, now.Truncate(time.Microsecond), nextTimestamp(now, nil))

	later := now.Add(time.Second)
	assert.Equal(t, later.Add(time.Microsecond), nextTimestamp(now, &later))
}

func TestSend_PublishesToSubscribers(t *testing.T) {
	f := setupMessagingTest(t)
	thread, _, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := f.svc.Hub.Subscribe(ctx, thread.ID)
	require.NoError(t, err)

	_, err = f.svc.Send(context.Background(), thread.ID, f.owner, "hello")
	require.NoError(t, err)

	select {
	case m := <-stream:
		assert.Equal(t, "hello", m.Body)
		assert.Equal(t, f.owner, m.SenderID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}

	cancel()
	for range stream {
	}
}

func TestListThreads_NewestFirst(t *testing.T) {
	f := setupMessagingTest(t)
	first, _, err := f.svc.StartThread(context.Background(), f.listID, f.buyer)
	require.NoError(t, err)

	other := domain.Listing{OwnerID: f.owner, Title: "Loft", Price: 1, Address: "2 Rd", City: "Denver", State: "CO", Zip: "80202"}
	require.NoError(t, f.db.Create(&other).Error)
	second, _, err := f.svc.StartThread(context.Background(), other.ID, f.buyer)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Model(&domain.Thread{}).Where("id = ?", first.ID).Update("created_at", base).Error)
	require.NoError(t, f.db.Model(&domain.Thread{}).Where("id = ?", second.ID).Update("created_at", base.Add(time.Hour)).Error)

	list, err := f.svc.ListThreads(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ThreadID)
	assert.Equal(t, "Loft", list[0].ListingTitle)
	assert.Equal(t, "Lake House", list[1].ListingTitle)
}
