package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreateProject(ctx, "Alpha", 1)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	second, err := s.CreateProject(ctx, "Beta", 1)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if first.ID <= 0 {
		t.Fatalf("expected positive id, got %d", first.ID)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("expected ids to increase by one, got %d then %d", first.ID, second.ID)
	}
}

func TestMemoryStoreCreateUserRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.CreateUser(ctx, "ada", "Ada", "Lovelace", "ada@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	_, err := s.CreateUser(ctx, "ada", "Other", "Person", "other@example.com", "hash")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetProject(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetGroup(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGroup: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetTask(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetSubtask(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSubtask: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateTaskCompletion(ctx, 99, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTaskCompletion: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateSubtaskCompletion(ctx, 99, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSubtaskCompletion: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpdateCompletionPersists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	project, _ := s.CreateProject(ctx, "Alpha", 1)
	group, _ := s.CreateGroup(ctx, "Backlog", project.ID)
	task, _ := s.CreateTask(ctx, "Write docs", group.ID)

	updated, err := s.UpdateTaskCompletion(ctx, task.ID, true)
	if err != nil {
		t.Fatalf("UpdateTaskCompletion failed: %v", err)
	}
	if !updated.Completed {
		t.Fatal("expected task to be completed")
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !got.Completed {
		t.Fatal("expected completion to persist")
	}

	// Setting the same value again is idempotent
	again, err := s.UpdateTaskCompletion(ctx, task.ID, true)
	if err != nil {
		t.Fatalf("second UpdateTaskCompletion failed: %v", err)
	}
	if !again.Completed {
		t.Fatal("expected task to stay completed")
	}
}

func TestMemoryStoreGetProjectsWithChildren(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mine, _ := s.CreateProject(ctx, "Mine", 1)
	theirs, _ := s.CreateProject(ctx, "Theirs", 2)

	backlog, _ := s.CreateGroup(ctx, "Backlog", mine.ID)
	done, _ := s.CreateGroup(ctx, "Done", mine.ID)
	s.CreateGroup(ctx, "Other", theirs.ID)

	write, _ := s.CreateTask(ctx, "Write", backlog.ID)
	s.CreateTask(ctx, "Review", backlog.ID)

	s.CreateSubtask(ctx, "Draft", write.ID)
	s.CreateSubtask(ctx, "Polish", write.ID)

	tree, err := s.GetProjectsWithChildren(ctx, 1)
	if err != nil {
		t.Fatalf("GetProjectsWithChildren failed: %v", err)
	}

	if len(tree) != 1 {
		t.Fatalf("expected 1 project for user 1, got %d", len(tree))
	}
	if tree[0].ID != mine.ID {
		t.Fatalf("expected project %d, got %d", mine.ID, tree[0].ID)
	}
	if len(tree[0].Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(tree[0].Groups))
	}
	if tree[0].Groups[0].ID != backlog.ID || tree[0].Groups[1].ID != done.ID {
		t.Fatalf("expected groups in creation order, got %d then %d", tree[0].Groups[0].ID, tree[0].Groups[1].ID)
	}
	if len(tree[0].Groups[0].Tasks) != 2 {
		t.Fatalf("expected 2 tasks in backlog, got %d", len(tree[0].Groups[0].Tasks))
	}
	if len(tree[0].Groups[0].Tasks[0].Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks on first task, got %d", len(tree[0].Groups[0].Tasks[0].Subtasks))
	}
	if len(tree[0].Groups[1].Tasks) != 0 {
		t.Fatalf("expected empty Done group, got %d tasks", len(tree[0].Groups[1].Tasks))
	}
}

func TestMemoryStoreGetProjectsWithChildrenEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tree, err := s.GetProjectsWithChildren(ctx, 1)
	if err != nil {
		t.Fatalf("GetProjectsWithChildren failed: %v", err)
	}
	if tree == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(tree) != 0 {
		t.Fatalf("expected no projects, got %d", len(tree))
	}
}

func TestMemoryStoreSearchTasks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mine, _ := s.CreateProject(ctx, "Mine", 1)
	theirs, _ := s.CreateProject(ctx, "Theirs", 2)
	myGroup, _ := s.CreateGroup(ctx, "Backlog", mine.ID)
	theirGroup, _ := s.CreateGroup(ctx, "Backlog", theirs.ID)

	s.CreateTask(ctx, "Ship release notes", myGroup.ID)
	s.CreateTask(ctx, "Ship container image", myGroup.ID)
	s.CreateTask(ctx, "Water plants", myGroup.ID)
	s.CreateTask(ctx, "Ship their thing", theirGroup.ID)

	hits, err := s.SearchTasks(ctx, 1, "ship", 10)
	if err != nil {
		t.Fatalf("SearchTasks failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits for user 1, got %d", len(hits))
	}
	for _, hit := range hits {
		if hit.ProjectID != mine.ID {
			t.Errorf("hit %d points at foreign project %d", hit.ID, hit.ProjectID)
		}
	}

	limited, err := s.SearchTasks(ctx, 1, "ship", 1)
	if err != nil {
		t.Fatalf("SearchTasks with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(limited))
	}
}

func TestMemoryStoreRefreshSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user, err := s.CreateUser(ctx, "ada", "Ada", "Lovelace", "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := s.SaveRefreshSession(ctx, "hash-1", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	got, err := s.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}

	if err := s.RevokeRefreshSession(ctx, "hash-1"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, "hash-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}

	// Expired sessions behave as missing
	if err := s.SaveRefreshSession(ctx, "hash-2", user.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, "hash-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestMemoryStoreAccessTokenRevocation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	revoked, err := s.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("expected unknown jti to be unrevoked")
	}

	if err := s.RevokeAccessToken(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeAccessToken failed: %v", err)
	}
	revoked, err = s.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti to be revoked")
	}

	// A revocation entry past its token expiry no longer matters
	if err := s.RevokeAccessToken(ctx, "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RevokeAccessToken failed: %v", err)
	}
	revoked, err = s.IsAccessTokenRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("expected expired revocation to be dropped")
	}
}
