package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Keys under which the session is persisted. They are always written and
// cleared together.
const (
	KeyUser        = "user"
	KeyToken       = "token"
	KeyTokenExpiry = "tokenExpiry"
)

// SessionTTL is how long a cached session is trusted locally. It is longer
// than the server's token lifetime, so an expired token can still be
// rehydrated; the server then answers 401.
const SessionTTL = 24 * time.Hour

// User is the identity returned by login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is a cached login.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// SessionCache keeps the current session and mirrors it into a Storage.
type SessionCache struct {
	storage Storage
	now     func() time.Time

	mu      sync.Mutex
	current *Session
}

// NewSessionCache creates an empty cache over storage. Call Rehydrate to
// restore a previous session.
func NewSessionCache(storage Storage) *SessionCache {
	return &SessionCache{storage: storage, now: time.Now}
}

// Current returns the active session, or nil when logged out.
func (c *SessionCache) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// Save records a new login with an expiry of now plus SessionTTL.
func (c *SessionCache) Save(user User, token string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	expiresAt := c.now().Add(SessionTTL)

	doc, err := c.storage.Load()
	if err != nil {
		return nil, err
	}
	doc[KeyUser] = string(userJSON)
	doc[KeyToken] = token
	doc[KeyTokenExpiry] = strconv.FormatInt(expiresAt.UnixMilli(), 10)
	if err := c.storage.Save(doc); err != nil {
		return nil, err
	}

	c.current = &Session{User: user, Token: token, ExpiresAt: expiresAt}
	s := *c.current
	return &s, nil
}

// Rehydrate restores the persisted session. It succeeds only if user, token
// and expiry are all present and the expiry is in the future; otherwise all
// three keys are cleared and nil is returned.
func (c *SessionCache) Rehydrate() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.storage.Load()
	if err != nil {
		return nil, err
	}

	if s, ok := c.parse(doc); ok {
		c.current = s
		cp := *s
		return &cp, nil
	}

	c.current = nil
	return nil, c.clearLocked(doc)
}

// Clear forgets the session in memory and in storage.
func (c *SessionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.storage.Load()
	if err != nil {
		return err
	}
	c.current = nil
	return c.clearLocked(doc)
}

func (c *SessionCache) parse(doc map[string]string) (*Session, bool) {
	userJSON, token, expiry := doc[KeyUser], doc[KeyToken], doc[KeyTokenExpiry]
	if userJSON == "" || token == "" || expiry == "" {
		return nil, false
	}

	ms, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return nil, false
	}
	expiresAt := time.UnixMilli(ms)
	if !c.now().Before(expiresAt) {
		return nil, false
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, false
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, true
}

func (c *SessionCache) clearLocked(doc map[string]string) error {
	_, hasUser := doc[KeyUser]
	_, hasToken := doc[KeyToken]
	_, hasExpiry := doc[KeyTokenExpiry]
	if !hasUser && !hasToken && !hasExpiry {
		return nil
	}
	delete(doc, KeyUser)
	delete(doc, KeyToken)
	delete(doc, KeyTokenExpiry)
	return c.storage.Save(doc)
}
