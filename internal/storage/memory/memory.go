// Package memory provides map-backed repository implementations. They hold
// the same contracts as the MongoDB repositories and back tests and
// single-process runs without an external store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type FileStore struct {
	mu    sync.Mutex
	files map[string]*domain.FileRecord
}

func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]*domain.FileRecord),
	}
}

func (s *FileStore) Insert(ctx context.Context, file *domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.ID] = cloneFile(file)
	return nil
}

func (s *FileStore) FindByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, nil
	}
	return cloneFile(file), nil
}

func (s *FileStore) Search(ctx context.Context, keyword string, limit int64) ([]*domain.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(keyword)

	var matches []*domain.FileRecord
	for _, file := range s.files {
		if strings.Contains(strings.ToLower(file.Name), needle) ||
			strings.Contains(strings.ToLower(file.Description), needle) ||
			file.HasTag(needle) {
			matches = append(matches, cloneFile(file))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UploadedAt.After(matches[j].UploadedAt)
	})

	if limit > 0 && int64(len(matches)) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *FileStore) SetName(ctx context.Context, id string, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return false, nil
	}
	file.Name = name
	return true, nil
}

func (s *FileStore) SetDescription(ctx context.Context, id string, description string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return false, nil
	}
	file.Description = description
	return true, nil
}

func (s *FileStore) AddTag(ctx context.Context, id string, tag string) (domain.TagMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return domain.TagMutationNoRecord, nil
	}
	if file.HasTag(tag) {
		return domain.TagMutationNoChange, nil
	}
	file.Tags = append(file.Tags, tag)
	return domain.TagMutationApplied, nil
}

func (s *FileStore) RemoveTag(ctx context.Context, id string, tag string) (domain.TagMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return domain.TagMutationNoRecord, nil
	}
	for i, t := range file.Tags {
		if t == tag {
			file.Tags = append(file.Tags[:i], file.Tags[i+1:]...)
			return domain.TagMutationApplied, nil
		}
	}
	return domain.TagMutationNoChange, nil
}

func (s *FileStore) IncrementDownload(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return false, nil
	}
	file.DownloadCount++
	return true, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return false, nil
	}
	delete(s.files, id)
	return true, nil
}

func cloneFile(file *domain.FileRecord) *domain.FileRecord {
	clone := *file
	clone.Tags = append([]string(nil), file.Tags...)
	return &clone
}

type AdminStore struct {
	mu      sync.Mutex
	entries map[int64]*domain.AdminEntry
}

func NewAdminStore() *AdminStore {
	return &AdminStore{
		entries: make(map[int64]*domain.AdminEntry),
	}
}

func (s *AdminStore) Insert(ctx context.Context, entry *domain.AdminEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries[entry.UserID] = &clone
	return nil
}

func (s *AdminStore) Exists(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[userID]
	return ok, nil
}

func (s *AdminStore) Delete(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[userID]; !ok {
		return false, nil
	}
	delete(s.entries, userID)
	return true, nil
}

func (s *AdminStore) List(ctx context.Context) ([]*domain.AdminEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*domain.AdminEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		clone := *entry
		entries = append(entries, &clone)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

type StatsStore struct {
	mu       sync.Mutex
	snapshot domain.StatsSnapshot
}

func NewStatsStore() *StatsStore {
	return &StatsStore{}
}

func (s *StatsStore) Increment(ctx context.Context, counter domain.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	*s.counterField(counter)++
	s.snapshot.LastUpdated = time.Now()
	return nil
}

func (s *StatsStore) Decrement(ctx context.Context, counter domain.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	field := s.counterField(counter)
	if *field > 0 {
		*field--
	}
	s.snapshot.LastUpdated = time.Now()
	return nil
}

func (s *StatsStore) Snapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot
	return &snapshot, nil
}

func (s *StatsStore) counterField(counter domain.Counter) *int64 {
	switch counter {
	case domain.CounterFiles:
		return &s.snapshot.TotalFiles
	case domain.CounterDownloads:
		return &s.snapshot.TotalDownloads
	case domain.CounterSearches:
		return &s.snapshot.TotalSearches
	default:
		return &s.snapshot.TotalUsers
	}
}

type UserStore struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[int64]*domain.User),
	}
}

func (s *UserStore) Record(ctx context.Context, user *domain.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return false, nil
	}
	clone := *user
	s.users[user.UserID] = &clone
	return true, nil
}

type PendingStore struct {
	mu      sync.Mutex
	actions map[string]*domain.PendingAction
}

func NewPendingStore() *PendingStore {
	return &PendingStore{
		actions: make(map[string]*domain.PendingAction),
	}
}

func (s *PendingStore) Insert(ctx context.Context, action *domain.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *action
	s.actions[action.Token] = &clone
	return nil
}

func (s *PendingStore) Resolve(ctx context.Context, token string) (*domain.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.actions[token]
	if !ok || action.Status != domain.PendingStatusIssued {
		return nil, nil
	}
	action.Status = domain.PendingStatusResolved

	clone := *action
	return &clone, nil
}

func (s *PendingStore) FindByToken(ctx context.Context, token string) (*domain.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.actions[token]
	if !ok {
		return nil, nil
	}
	clone := *action
	return &clone, nil
}
