package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps the whole hierarchy in keyed maps with monotonic id
// counters. It satisfies the same contract as PostgresStore and backs the
// process when no database is configured, as well as most tests.
type MemoryStore struct {
	mu sync.Mutex

	users    map[int64]User
	projects map[int64]Project
	groups   map[int64]Group
	tasks    map[int64]Task
	subtasks map[int64]Subtask

	userSeq    int64
	projectSeq int64
	groupSeq   int64
	taskSeq    int64
	subtaskSeq int64

	refreshSessions map[string]refreshSession
	revokedJTIs     map[string]time.Time
}

type refreshSession struct {
	userID    int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           map[int64]User{},
		projects:        map[int64]Project{},
		groups:          map[int64]Group{},
		tasks:           map[int64]Task{},
		subtasks:        map[int64]Subtask{},
		refreshSessions: map[string]refreshSession{},
		revokedJTIs:     map[string]time.Time{},
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// --- Users ---

func (s *MemoryStore) CreateUser(ctx context.Context, username, firstName, lastName, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}
	s.userSeq++
	user := User{
		ID:           s.userSeq,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// --- Projects ---

func (s *MemoryStore) CreateProject(ctx context.Context, name string, userID int64) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectSeq++
	project := Project{ID: s.projectSeq, Name: name, UserID: userID}
	s.projects[project.ID] = project
	return project, nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id int64) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return project, nil
}

// --- Groups ---

func (s *MemoryStore) CreateGroup(ctx context.Context, name string, projectID int64) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupSeq++
	group := Group{ID: s.groupSeq, Name: name, ProjectID: projectID}
	s.groups[group.ID] = group
	return group, nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, id int64) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	return group, nil
}

// --- Tasks ---

func (s *MemoryStore) CreateTask(ctx context.Context, title string, groupID int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskSeq++
	task := Task{ID: s.taskSeq, Title: title, GroupID: groupID}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *MemoryStore) GetTask(ctx context.Context, id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (s *MemoryStore) UpdateTaskCompletion(ctx context.Context, id int64, completed bool) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	task.Completed = completed
	s.tasks[id] = task
	return task, nil
}

// --- Subtasks ---

func (s *MemoryStore) CreateSubtask(ctx context.Context, title string, taskID int64) (Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtaskSeq++
	subtask := Subtask{ID: s.subtaskSeq, Title: title, TaskID: taskID}
	s.subtasks[subtask.ID] = subtask
	return subtask, nil
}

func (s *MemoryStore) GetSubtask(ctx context.Context, id int64) (Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtask, ok := s.subtasks[id]
	if !ok {
		return Subtask{}, ErrNotFound
	}
	return subtask, nil
}

func (s *MemoryStore) UpdateSubtaskCompletion(ctx context.Context, id int64, completed bool) (Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtask, ok := s.subtasks[id]
	if !ok {
		return Subtask{}, ErrNotFound
	}
	subtask.Completed = completed
	s.subtasks[id] = subtask
	return subtask, nil
}

// --- Composite read ---

func (s *MemoryStore) GetProjectsWithChildren(ctx context.Context, userID int64) ([]ProjectWithChildren, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := []ProjectWithChildren{}
	for _, id := range sortedIDs(s.projects) {
		p := s.projects[id]
		if p.UserID != userID {
			continue
		}
		node := ProjectWithChildren{Project: p, Groups: []GroupWithTasks{}}
		for _, gid := range sortedIDs(s.groups) {
			g := s.groups[gid]
			if g.ProjectID != p.ID {
				continue
			}
			groupNode := GroupWithTasks{Group: g, Tasks: []TaskWithSubtasks{}}
			for _, tid := range sortedIDs(s.tasks) {
				t := s.tasks[tid]
				if t.GroupID != g.ID {
					continue
				}
				taskNode := TaskWithSubtasks{Task: t, Subtasks: []Subtask{}}
				for _, stid := range sortedIDs(s.subtasks) {
					st := s.subtasks[stid]
					if st.TaskID == t.ID {
						taskNode.Subtasks = append(taskNode.Subtasks, st)
					}
				}
				groupNode.Tasks = append(groupNode.Tasks, taskNode)
			}
			node.Groups = append(node.Groups, groupNode)
		}
		projects = append(projects, node)
	}
	return projects, nil
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// --- Search ---

func (s *MemoryStore) SearchTasks(ctx context.Context, userID int64, query string, limit int) ([]TaskHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(query)
	hits := []TaskHit{}
	for _, id := range sortedIDs(s.tasks) {
		if len(hits) >= limit {
			break
		}
		t := s.tasks[id]
		if !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		group, ok := s.groups[t.GroupID]
		if !ok {
			continue
		}
		project, ok := s.projects[group.ProjectID]
		if !ok || project.UserID != userID {
			continue
		}
		hits = append(hits, TaskHit{
			ID:        t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			GroupID:   t.GroupID,
			ProjectID: group.ProjectID,
		})
	}
	return hits, nil
}

// --- Refresh sessions and token revocation ---

func (s *MemoryStore) SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshSessions[tokenHash] = refreshSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.refreshSessions[tokenHash]
	if !ok || time.Now().After(sess.expiresAt) {
		return User{}, ErrNotFound
	}
	user, ok := s.users[sess.userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshSessions, tokenHash)
	return nil
}

func (s *MemoryStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokedJTIs[jti] = expiresAt
	return nil
}

func (s *MemoryStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.revokedJTIs[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(s.revokedJTIs, jti)
		return false, nil
	}
	return true, nil
}
