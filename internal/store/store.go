// Package store keeps the audience state: nicknames, likert votes, and
// free-text answers. Everything lives in memory and is gone on restart;
// the system is intentionally memoryless.
package store

import (
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownUser is returned when a vote or answer names a user that never
// registered a nickname.
var ErrUnknownUser = errors.New("unknown user")

// ErrInvalidScore is returned for likert values outside the "0".."4" scale.
var ErrInvalidScore = errors.New("invalid likert score")

// likertContribution maps a score to its percentage weight: "0" is full
// agreement (100%), "4" none (0%).
var likertContribution = map[string]float64{
	"0": 1, "1": 0.75, "2": 0.5, "3": 0.25, "4": 0,
}

// Store is safe for concurrent use. Insertion order of nicknames and answers
// is preserved so repeated reads render stable lists.
type Store struct {
	mu        sync.RWMutex
	nicknames map[uuid.UUID]string
	joined    []uuid.UUID
	likert    map[string]map[string]string
	answers   map[string]*answerSet
}

type answerSet struct {
	byUser map[string]string
	order  []string
}

func New() *Store {
	return &Store{
		nicknames: make(map[uuid.UUID]string),
		likert:    make(map[string]map[string]string),
		answers:   make(map[string]*answerSet),
	}
}

// SetNickname registers or renames the user behind id.
func (s *Store) SetNickname(id uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nicknames[id]; !exists {
		s.joined = append(s.joined, id)
	}
	s.nicknames[id] = name
}

// Nickname returns the name registered for id.
func (s *Store) Nickname(id uuid.UUID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.nicknames[id]
	return name, ok
}

// Nicknames returns all registered names in join order.
func (s *Store) Nicknames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.joined))
	for _, id := range s.joined {
		names = append(names, s.nicknames[id])
	}
	return names
}

// HasUser reports whether any registered nickname matches name.
func (s *Store) HasUser(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasUserLocked(name)
}

func (s *Store) hasUserLocked(name string) bool {
	for _, n := range s.nicknames {
		if n == name {
			return true
		}
	}
	return false
}

// RecordVote stores user's score on the given likert scale and returns the
// updated percentage for that scale. Unknown users cannot vote.
func (s *Store) RecordVote(scale, user, value string) (int, error) {
	if _, ok := likertContribution[value]; !ok {
		return 0, ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUserLocked(user) {
		return 0, ErrUnknownUser
	}

	scores, ok := s.likert[scale]
	if !ok {
		scores = make(map[string]string)
		s.likert[scale] = scores
	}
	scores[user] = value
	return percentage(scores), nil
}

// LikertPercentage returns the aggregated percentage for a scale.
func (s *Store) LikertPercentage(scale string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores, ok := s.likert[scale]
	if !ok || len(scores) == 0 {
		return 0, false
	}
	return percentage(scores), true
}

// LikertScores returns a copy of all raw scores by scale and user.
func (s *Store) LikertScores() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]string, len(s.likert))
	for scale, scores := range s.likert {
		copied := make(map[string]string, len(scores))
		for user, value := range scores {
			copied[user] = value
		}
		out[scale] = copied
	}
	return out
}

// percentage averages the score contributions: 0="100%" .. 4="0%", rounded.
func percentage(scores map[string]string) int {
	var sum float64
	for _, value := range scores {
		sum += likertContribution[value]
	}
	return int(math.Round(sum / float64(len(scores)) * 100))
}

// RecordAnswer stores user's answer to a question and returns all answers
// for that question in submission order. Unknown users cannot answer.
func (s *Store) RecordAnswer(qid, user, answer string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUserLocked(user) {
		return nil, ErrUnknownUser
	}

	set, ok := s.answers[qid]
	if !ok {
		set = &answerSet{byUser: make(map[string]string)}
		s.answers[qid] = set
	}
	if _, exists := set.byUser[user]; !exists {
		set.order = append(set.order, user)
	}
	set.byUser[user] = answer
	return set.listLocked(), nil
}

// Answers returns the answers for one question in submission order.
func (s *Store) Answers(qid string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.answers[qid]
	if !ok {
		return nil, false
	}
	return set.listLocked(), true
}

// AllAnswers returns the answers for every question.
func (s *Store) AllAnswers() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.answers))
	for qid, set := range s.answers {
		out[qid] = set.listLocked()
	}
	return out
}

func (a *answerSet) listLocked() []string {
	answers := make([]string, 0, len(a.order))
	for _, user := range a.order {
		answers = append(answers, a.byUser[user])
	}
	return answers
}
