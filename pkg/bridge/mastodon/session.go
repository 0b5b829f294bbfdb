// Copyright 2024-2026 Aiku AI

package mastodon

import "sync"

// authSession is one in-flight authorization: the user has been sent an
// authorize URL and has not yet returned a code.
type authSession struct {
	server string
	domain string
	app    *appRegistration
}

// SessionStore holds in-flight authorization sessions keyed by Telegram
// user ID. It is an explicit dependency of the Service rather than a
// process-wide map, so its lifetime is visible and tests can construct
// their own.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*authSession
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*authSession)}
}

func (s *SessionStore) put(tgUserID int64, sess *authSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tgUserID] = sess
}

func (s *SessionStore) get(tgUserID int64) *authSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[tgUserID]
}

// take removes and returns the session, or nil.
func (s *SessionStore) take(tgUserID int64) *authSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[tgUserID]
	delete(s.sessions, tgUserID)
	return sess
}
