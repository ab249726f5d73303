package app

import (
	"context"
	"errors"
	"testing"

	"taskhive/api/internal/authpw"
	"taskhive/api/internal/store"
)

func seedHierarchy(t *testing.T, svc *Service, ownerID int64) (store.Project, store.Group, store.Task, store.Subtask) {
	t.Helper()
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, ownerID, CreateProjectInput{Name: "Website"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	group, err := svc.CreateGroup(ctx, ownerID, project.ID, CreateGroupInput{Name: "Backlog"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	task, err := svc.CreateTask(ctx, ownerID, group.ID, CreateTaskInput{Title: "Design"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	subtask, err := svc.CreateSubtask(ctx, ownerID, task.ID, CreateSubtaskInput{Title: "Palette"})
	if err != nil {
		t.Fatalf("CreateSubtask failed: %v", err)
	}
	return project, group, task, subtask
}

func registerTestUser(t *testing.T, svc *Service, username string) store.User {
	t.Helper()
	user, _, err := svc.Register(context.Background(), authpw.RegisterRequest{
		Username:  username,
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
	})
	if err != nil {
		t.Fatalf("Register %s failed: %v", username, err)
	}
	return user
}

func TestAuthorizeWalksChainToOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")
	project, group, task, subtask := seedHierarchy(t, svc, owner.ID)

	for kind, id := range map[ResourceKind]int64{
		KindGroup:   group.ID,
		KindTask:    task.ID,
		KindSubtask: subtask.ID,
	} {
		got, err := svc.authorize(ctx, kind, id, owner.ID)
		if err != nil {
			t.Errorf("%s: authorize failed: %v", kind, err)
			continue
		}
		if got.ID != project.ID {
			t.Errorf("%s: resolved project %d, want %d", kind, got.ID, project.ID)
		}
	}
}

func TestAuthorizeRejectsForeignOwnerAsNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")
	other := registerTestUser(t, svc, "other")
	project, group, task, subtask := seedHierarchy(t, svc, owner.ID)

	if _, err := svc.authorizeProject(ctx, project.ID, other.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("project: expected ErrNotFound, got %v", err)
	}
	for kind, id := range map[ResourceKind]int64{
		KindGroup:   group.ID,
		KindTask:    task.ID,
		KindSubtask: subtask.ID,
	} {
		if _, err := svc.authorize(ctx, kind, id, other.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", kind, err)
		}
	}
}

func TestAuthorizeMissingResourceIsNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")

	if _, err := svc.authorize(ctx, KindTask, 9999, owner.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidatesBeforeAuthorizing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")

	// A blank name fails validation even when the parent does not exist,
	// so a 400 never confirms a parent id.
	_, err := svc.CreateGroup(ctx, owner.ID, 9999, CreateGroupInput{Name: "  "})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateTrimsNames(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")

	project, err := svc.CreateProject(ctx, owner.ID, CreateProjectInput{Name: "  Website  "})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.Name != "Website" {
		t.Fatalf("expected trimmed name, got %q", project.Name)
	}
}

func TestUpdateCompletionIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")
	_, _, task, subtask := seedHierarchy(t, svc, owner.ID)

	completed := true
	for i := 0; i < 2; i++ {
		updated, err := svc.UpdateTask(ctx, owner.ID, task.ID, UpdateCompletionInput{Completed: &completed})
		if err != nil {
			t.Fatalf("UpdateTask round %d failed: %v", i, err)
		}
		if !updated.Completed {
			t.Fatalf("round %d: expected completed task", i)
		}
	}

	uncompleted := false
	updated, err := svc.UpdateSubtask(ctx, owner.ID, subtask.ID, UpdateCompletionInput{Completed: &uncompleted})
	if err != nil {
		t.Fatalf("UpdateSubtask failed: %v", err)
	}
	if updated.Completed {
		t.Fatal("expected subtask to be uncompleted")
	}
}

func TestSearchTasksDefaultsLimit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := registerTestUser(t, svc, "owner")
	seedHierarchy(t, svc, owner.ID)

	resp, err := svc.SearchTasks(ctx, owner.ID, "design", 0)
	if err != nil {
		t.Fatalf("SearchTasks failed: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Query != "design" {
		t.Fatalf("expected query echoed back, got %q", resp.Query)
	}
}

func TestSessionFromTokenRejectsRevokedJTI(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := registerTestUser(t, svc, "owner")

	_, session, err := svc.Login(ctx, "owner", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.UserID != user.ID {
		t.Fatalf("expected session for user %d, got %d", user.ID, session.UserID)
	}

	if _, err := svc.SessionFromToken(ctx, session.Token); err != nil {
		t.Fatalf("SessionFromToken failed before logout: %v", err)
	}

	if err := svc.Logout(ctx, session, session.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.SessionFromToken(ctx, session.Token); err == nil {
		t.Fatal("expected revoked token to be rejected")
	}
}
