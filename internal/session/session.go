// Package session resolves bearer tokens to the caller's current user, group
// and book. The resolved Session is passed to services as an explicit
// argument; there is no ambient per-request global.
package session

import (
	"errors"
	"sync"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
)

// Session holds the resolved state for one authenticated caller: the user,
// their active group and book, and the bearer token that produced it.
// A session is replaced whole when the token changes.
type Session struct {
	User  *models.User
	Group *models.Group
	Book  *models.Book
	Token string
}

// Resolver resolves tokens to sessions. Resolutions are cached per distinct
// token so repeat requests with the same token skip the lookups. The cache is
// a shortcut, not a security boundary: the token signature is verified before
// Resolve is called.
type Resolver struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]*Session
}

// NewResolver creates a Resolver over the given database.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, cache: make(map[string]*Session)}
}

// Resolve returns the session for the given verified token and user ID,
// loading the user and their default group/book on first sight of the token.
func (r *Resolver) Resolve(token string, userID uint) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.cache[token]
	r.mu.RUnlock()
	if ok {
		return sess, nil
	}

	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.DefaultGroupID == nil || user.DefaultBookID == nil {
		return nil, apperrors.ErrItemNotFound
	}

	var group models.Group
	if err := r.db.First(&group, *user.DefaultGroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var book models.Book
	if err := r.db.First(&book, *user.DefaultBookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sess = &Session{User: &user, Group: &group, Book: &book, Token: token}

	r.mu.Lock()
	r.cache[token] = sess
	r.mu.Unlock()
	return sess, nil
}

// Forget drops the cached session for a token.
func (r *Resolver) Forget(token string) {
	r.mu.Lock()
	delete(r.cache, token)
	r.mu.Unlock()
}

// ForgetUser drops every cached session belonging to a user. Used when a
// user's default group or book is reassigned behind their back.
func (r *Resolver) ForgetUser(userID uint) {
	r.mu.Lock()
	for token, sess := range r.cache {
		if sess.User.ID == userID {
			delete(r.cache, token)
		}
	}
	r.mu.Unlock()
}
