package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, username, firstName, lastName, email, passwordHash string) (User, error) {
	const insert = `
		INSERT INTO users (username, first_name, last_name, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	user := User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := s.db.QueryRowContext(ctx, insert, username, firstName, lastName, email, passwordHash).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (User, error) {
	const query = `SELECT id, username, first_name, last_name, email, password_hash FROM users WHERE id=$1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const query = `SELECT id, username, first_name, last_name, email, password_hash FROM users WHERE username=$1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, name string, userID int64) (Project, error) {
	project := Project{Name: name, UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (name, user_id) VALUES ($1, $2) RETURNING id`,
		name, userID).Scan(&project.ID)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id int64) (Project, error) {
	var project Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_id FROM projects WHERE id=$1`, id).
		Scan(&project.ID, &project.Name, &project.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("scan project: %w", err)
	}
	return project, nil
}

// --- Groups ---

func (s *PostgresStore) CreateGroup(ctx context.Context, name string, projectID int64) (Group, error) {
	group := Group{Name: name, ProjectID: projectID}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO groups (name, project_id) VALUES ($1, $2) RETURNING id`,
		name, projectID).Scan(&group.ID)
	if err != nil {
		return Group{}, fmt.Errorf("insert group: %w", err)
	}
	return group, nil
}

func (s *PostgresStore) GetGroup(ctx context.Context, id int64) (Group, error) {
	var group Group
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, project_id FROM groups WHERE id=$1`, id).
		Scan(&group.ID, &group.Name, &group.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("scan group: %w", err)
	}
	return group, nil
}

// --- Tasks ---

func (s *PostgresStore) CreateTask(ctx context.Context, title string, groupID int64) (Task, error) {
	task := Task{Title: title, GroupID: groupID}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, group_id) VALUES ($1, $2) RETURNING id`,
		title, groupID).Scan(&task.ID)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id int64) (Task, error) {
	var task Task
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, completed, group_id FROM tasks WHERE id=$1`, id).
		Scan(&task.ID, &task.Title, &task.Completed, &task.GroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) UpdateTaskCompletion(ctx context.Context, id int64, completed bool) (Task, error) {
	var task Task
	err := s.db.QueryRowContext(ctx,
		`UPDATE tasks SET completed=$2 WHERE id=$1 RETURNING id, title, completed, group_id`,
		id, completed).Scan(&task.ID, &task.Title, &task.Completed, &task.GroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// --- Subtasks ---

func (s *PostgresStore) CreateSubtask(ctx context.Context, title string, taskID int64) (Subtask, error) {
	subtask := Subtask{Title: title, TaskID: taskID}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO subtasks (title, task_id) VALUES ($1, $2) RETURNING id`,
		title, taskID).Scan(&subtask.ID)
	if err != nil {
		return Subtask{}, fmt.Errorf("insert subtask: %w", err)
	}
	return subtask, nil
}

func (s *PostgresStore) GetSubtask(ctx context.Context, id int64) (Subtask, error) {
	var subtask Subtask
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, completed, task_id FROM subtasks WHERE id=$1`, id).
		Scan(&subtask.ID, &subtask.Title, &subtask.Completed, &subtask.TaskID)
	if errors.Is(err, sql.ErrNoRows) {
		return Subtask{}, ErrNotFound
	}
	if err != nil {
		return Subtask{}, fmt.Errorf("scan subtask: %w", err)
	}
	return subtask, nil
}

func (s *PostgresStore) UpdateSubtaskCompletion(ctx context.Context, id int64, completed bool) (Subtask, error) {
	var subtask Subtask
	err := s.db.QueryRowContext(ctx,
		`UPDATE subtasks SET completed=$2 WHERE id=$1 RETURNING id, title, completed, task_id`,
		id, completed).Scan(&subtask.ID, &subtask.Title, &subtask.Completed, &subtask.TaskID)
	if errors.Is(err, sql.ErrNoRows) {
		return Subtask{}, ErrNotFound
	}
	if err != nil {
		return Subtask{}, fmt.Errorf("update subtask: %w", err)
	}
	return subtask, nil
}

// --- Composite read ---

// GetProjectsWithChildren loads every project owned by userID with its full
// Group→Task→Subtask subtree. One query per level, fanned out with ANY(),
// assembled in creation (id) order.
func (s *PostgresStore) GetProjectsWithChildren(ctx context.Context, userID int64) ([]ProjectWithChildren, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, user_id FROM projects WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []ProjectWithChildren{}
	projectIdx := map[int64]int{}
	var projectIDs []int64
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projectIdx[p.ID] = len(projects)
		projectIDs = append(projectIDs, p.ID)
		projects = append(projects, ProjectWithChildren{Project: p, Groups: []GroupWithTasks{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	groupRows, err := s.db.QueryContext(ctx,
		`SELECT id, name, project_id FROM groups WHERE project_id = ANY($1) ORDER BY id`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer groupRows.Close()

	// groupRef locates a group as (project index, group index) so tasks can
	// be attached without a second pass.
	type groupRef struct{ project, group int }
	groupIdx := map[int64]groupRef{}
	var groupIDs []int64
	for groupRows.Next() {
		var g Group
		if err := groupRows.Scan(&g.ID, &g.Name, &g.ProjectID); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		pi := projectIdx[g.ProjectID]
		groupIdx[g.ID] = groupRef{project: pi, group: len(projects[pi].Groups)}
		groupIDs = append(groupIDs, g.ID)
		projects[pi].Groups = append(projects[pi].Groups, GroupWithTasks{Group: g, Tasks: []TaskWithSubtasks{}})
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	if len(groupIDs) == 0 {
		return projects, nil
	}

	taskRows, err := s.db.QueryContext(ctx,
		`SELECT id, title, completed, group_id FROM tasks WHERE group_id = ANY($1) ORDER BY id`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer taskRows.Close()

	type taskRef struct{ project, group, task int }
	taskIdx := map[int64]taskRef{}
	var taskIDs []int64
	for taskRows.Next() {
		var t Task
		if err := taskRows.Scan(&t.ID, &t.Title, &t.Completed, &t.GroupID); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		ref := groupIdx[t.GroupID]
		group := &projects[ref.project].Groups[ref.group]
		taskIdx[t.ID] = taskRef{project: ref.project, group: ref.group, task: len(group.Tasks)}
		taskIDs = append(taskIDs, t.ID)
		group.Tasks = append(group.Tasks, TaskWithSubtasks{Task: t, Subtasks: []Subtask{}})
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	if len(taskIDs) == 0 {
		return projects, nil
	}

	subtaskRows, err := s.db.QueryContext(ctx,
		`SELECT id, title, completed, task_id FROM subtasks WHERE task_id = ANY($1) ORDER BY id`, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer subtaskRows.Close()

	for subtaskRows.Next() {
		var st Subtask
		if err := subtaskRows.Scan(&st.ID, &st.Title, &st.Completed, &st.TaskID); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		ref := taskIdx[st.TaskID]
		task := &projects[ref.project].Groups[ref.group].Tasks[ref.task]
		task.Subtasks = append(task.Subtasks, st)
	}
	if err := subtaskRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}

	return projects, nil
}

// --- Search ---

func (s *PostgresStore) SearchTasks(ctx context.Context, userID int64, query string, limit int) ([]TaskHit, error) {
	const q = `
		SELECT t.id, t.title, t.completed, t.group_id, g.project_id
		FROM tasks t
		JOIN groups g ON g.id = t.group_id
		JOIN projects p ON p.id = g.project_id
		WHERE p.user_id = $1 AND t.title ILIKE '%' || $2 || '%'
		ORDER BY t.id
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, q, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	defer rows.Close()

	hits := []TaskHit{}
	for rows.Next() {
		var hit TaskHit
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Completed, &hit.GroupID, &hit.ProjectID); err != nil {
			return nil, fmt.Errorf("scan task hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task hits: %w", err)
	}
	return hits, nil
}

// --- Refresh sessions and token revocation ---

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.username, u.first_name, u.last_name, u.email, u.password_hash
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, tokenHash))
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1 AND expires_at > NOW())`, jti).
		Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
