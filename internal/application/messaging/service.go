package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homesocial-backend/internal/application/emails"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs listing conversations.
type Service struct {
	DB     *gorm.DB
	Hub    *Hub
	Emails emails.Sender
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// ThreadSummary is one row of the user's conversation list.
type ThreadSummary struct {
	ThreadID     uuid.UUID `json:"thread_id"`
	ListingID    uuid.UUID `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StartThread opens a conversation between the caller and the listing owner.
// An existing thread the two already share on this listing is reused. The
// listing row is locked so concurrent starts for the same listing serialize.
func (s *Service) StartThread(ctx context.Context, listingID, userID uuid.UUID) (*domain.Thread, bool, error) {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var listing domain.Listing
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "owner_id", "title").
		Where("id = ?", listingID).
		First(&listing).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrListingNotFound
		}
		return nil, false, err
	}
	if listing.OwnerID == userID {
		tx.Rollback()
		return nil, false, ErrOwnThread
	}

	var existing []domain.Thread
	if err := tx.
		Joins("JOIN thread_members buyer ON buyer.thread_id = threads.id AND buyer.user_id = ?", userID).
		Joins("JOIN thread_members seller ON seller.thread_id = threads.id AND seller.user_id = ?", listing.OwnerID).
		Where("threads.listing_id = ?", listingID).
		Order("threads.created_at ASC").
		Limit(1).
		Find(&existing).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}
	if len(existing) > 0 {
		if err := tx.Commit().Error; err != nil {
			return nil, false, err
		}
		return &existing[0], false, nil
	}

	thread := domain.Thread{ListingID: listingID}
	if err := tx.Create(&thread).Error; err != nil {
		tx.Rollback()
		return nil, false, fmt.Errorf("Failed to create thread: %v", err)
	}
	members := []domain.ThreadMember{
		{ThreadID: thread.ID, UserID: userID},
		{ThreadID: thread.ID, UserID: listing.OwnerID},
	}
	if err := tx.Create(&members).Error; err != nil {
		tx.Rollback()
		return nil, false, fmt.Errorf("Failed to add thread members: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, false, err
	}

	s.notifyOwner(ctx, listing, thread.ID)
	return &thread, true, nil
}

func (s *Service) notifyOwner(ctx context.Context, listing domain.Listing, threadID uuid.UUID) {
	if s.Emails == nil {
		return
	}
	var owner domain.User
	if err := s.DB.WithContext(ctx).Select("id", "email").Where("id = ?", listing.OwnerID).First(&owner).Error; err != nil {
		log.Warn().Err(err).Str("listing_id", listing.ID.String()).Msg("messaging: owner lookup failed")
		return
	}
	if err := s.Emails.SendNewThread(ctx, owner.Email, listing.Title, threadID.String()); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID.String()).Msg("messaging: new thread email failed")
	}
}

// ListThreads returns the caller's conversations, newest thread first.
func (s *Service) ListThreads(ctx context.Context, userID uuid.UUID) ([]ThreadSummary, error) {
	out := []ThreadSummary{}
	if err := s.DB.WithContext(ctx).
		Table("thread_members").
		Select("threads.id AS thread_id, threads.listing_id AS listing_id, listings.title AS listing_title, threads.created_at AS created_at").
		Joins("JOIN threads ON threads.id = thread_members.thread_id").
		Joins("LEFT JOIN listings ON listings.id = threads.listing_id").
		Where("thread_members.user_id = ?", userID).
		Order("threads.created_at DESC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// IsMember reports whether the user belongs to the thread.
func (s *Service) IsMember(ctx context.Context, threadID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.ThreadMember{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) requireMember(ctx context.Context, threadID, userID uuid.UUID) error {
	ok, err := s.IsMember(ctx, threadID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// Messages returns the most recent messages of a thread in ascending order.
func (s *Service) Messages(ctx context.Context, threadID, userID uuid.UUID) ([]domain.Message, error) {
	if err := s.requireMember(ctx, threadID, userID); err != nil {
		return nil, err
	}
	return s.recent(ctx, threadID)
}

func (s *Service) recent(ctx context.Context, threadID uuid.UUID) ([]domain.Message, error) {
	var rows []domain.Message
	if err := s.DB.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Limit(constants.MessageLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Message, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = m
	}
	return out, nil
}

// nextTimestamp keeps message times strictly increasing within a thread,
// at the microsecond precision the database stores.
func nextTimestamp(now time.Time, last *time.Time) time.Time {
	ts := now.UTC().Truncate(time.Microsecond)
	if last != nil && !ts.After(*last) {
		ts = last.UTC().Add(time.Microsecond)
	}
	return ts
}

// Send appends a message and returns the refreshed thread.
func (s *Service) Send(ctx context.Context, threadID, userID uuid.UUID, body string) ([]domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len([]rune(body)) > constants.MessageMaxLength {
		return nil, ErrBodyTooLong
	}
	if err := s.requireMember(ctx, threadID, userID); err != nil {
		return nil, err
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	var thread domain.Thread
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", threadID).First(&thread).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	var last []domain.Message
	if err := tx.Where("thread_id = ?", threadID).Order("created_at DESC").Limit(1).Find(&last).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	var lastAt *time.Time
	if len(last) > 0 {
		lastAt = &last[0].CreatedAt
	}
	msg := domain.Message{
		ThreadID:  threadID,
		SenderID:  userID,
		Body:      body,
		CreatedAt: nextTimestamp(s.now(), lastAt),
	}
	if err := tx.Create(&msg).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("Failed to send message: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := s.Hub.Publish(ctx, msg); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID.String()).Msg("messaging: publish failed")
	}
	return s.recent(ctx, threadID)
}
