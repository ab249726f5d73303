package app

import (
	"context"
	"strings"
	"time"

	"taskhive/api/internal/auth"
	"taskhive/api/internal/authpw"
	"taskhive/api/internal/config"
	"taskhive/api/internal/search"
	"taskhive/api/internal/store"
	"taskhive/api/internal/util"
)

// Session is an authenticated caller identity derived from an access token.
type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	Username     string
	JTI          string
	ExpiresAt    time.Time
}

// CreateProjectInput, CreateGroupInput, CreateTaskInput, CreateSubtaskInput
// and UpdateCompletionInput are the typed request bodies of the hierarchy
// operations. Parent ids always come from the URL path, never the body, and
// the owner always comes from the session.

type CreateProjectInput struct {
	Name string `json:"name"`
}

type CreateGroupInput struct {
	Name string `json:"name"`
}

type CreateTaskInput struct {
	Title string `json:"title"`
}

type CreateSubtaskInput struct {
	Title string `json:"title"`
}

type UpdateCompletionInput struct {
	Completed *bool `json:"completed"`
}

// DataStore is the full store contract the service consumes. PostgresStore
// and MemoryStore both satisfy it.
type DataStore interface {
	CreateUser(ctx context.Context, username, firstName, lastName, email, passwordHash string) (store.User, error)
	GetUser(ctx context.Context, id int64) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)

	CreateProject(ctx context.Context, name string, userID int64) (store.Project, error)
	GetProject(ctx context.Context, id int64) (store.Project, error)
	GetProjectsWithChildren(ctx context.Context, userID int64) ([]store.ProjectWithChildren, error)

	CreateGroup(ctx context.Context, name string, projectID int64) (store.Group, error)
	GetGroup(ctx context.Context, id int64) (store.Group, error)

	CreateTask(ctx context.Context, title string, groupID int64) (store.Task, error)
	GetTask(ctx context.Context, id int64) (store.Task, error)
	UpdateTaskCompletion(ctx context.Context, id int64, completed bool) (store.Task, error)

	CreateSubtask(ctx context.Context, title string, taskID int64) (store.Subtask, error)
	GetSubtask(ctx context.Context, id int64) (store.Subtask, error)
	UpdateSubtaskCompletion(ctx context.Context, id int64, completed bool) (store.Subtask, error)

	SearchTasks(ctx context.Context, userID int64, query string, limit int) ([]store.TaskHit, error)

	SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. The default implementation delegates
// to the data store; Redis replaces it when configured.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// storeSessions adapts the data store's refresh-session methods to the
// sessionStore contract.
type storeSessions struct {
	store DataStore
}

func (s storeSessions) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return s.store.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (s storeSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	return s.store.LookupRefreshSession(ctx, tokenHash)
}

func (s storeSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return s.store.RevokeRefreshSession(ctx, tokenHash)
}

type Service struct {
	cfg      config.Config
	store    DataStore
	sessions sessionStore
	authpw   *authpw.Service
	search   *search.Service
}

// New builds a service whose refresh tokens live in the data store.
// searchService may be nil; search then queries the store directly.
func New(cfg config.Config, dataStore DataStore, searchService *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: storeSessions{store: dataStore},
		authpw:   authpw.NewService(dataStore),
		search:   searchService,
	}
}

// NewWithSessionStore builds a service with an external refresh-token
// store (Redis).
func NewWithSessionStore(cfg config.Config, dataStore DataStore, sessions sessionStore, searchService *search.Service) *Service {
	svc := New(cfg, dataStore, searchService)
	svc.sessions = sessions
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Identity and session lifecycle ---

// Register creates an account and signs it straight in.
func (s *Service) Register(ctx context.Context, req authpw.RegisterRequest) (store.User, Session, error) {
	user, err := s.authpw.Register(ctx, req)
	if err != nil {
		return store.User{}, Session{}, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return store.User{}, Session{}, err
	}
	return user, session, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (store.User, Session, error) {
	user, err := s.authpw.SignIn(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return store.User{}, Session{}, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return store.User{}, Session{}, err
	}
	return user, session, nil
}

// Refresh rotates a refresh token: the old token is revoked and a fresh
// access/refresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.SessionSecret), auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Username:     user.Username,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.SessionSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    claims.Sub,
		Username:  claims.Username,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// CurrentUser loads the full profile of the session's user.
func (s *Service) CurrentUser(ctx context.Context, session Session) (store.User, error) {
	return s.store.GetUser(ctx, session.UserID)
}

// --- Ownership-chain authorization ---

// ResourceKind names a level of the hierarchy below Project.
type ResourceKind string

const (
	KindGroup   ResourceKind = "group"
	KindTask    ResourceKind = "task"
	KindSubtask ResourceKind = "subtask"
)

// resolveOwningProject walks parent pointers from a resource up to its
// project: subtask→task→group→project. The chain is at most three hops, so
// each call costs a bounded number of lookups regardless of tree size.
func (s *Service) resolveOwningProject(ctx context.Context, kind ResourceKind, id int64) (store.Project, error) {
	for {
		switch kind {
		case KindSubtask:
			subtask, err := s.store.GetSubtask(ctx, id)
			if err != nil {
				return store.Project{}, err
			}
			kind, id = KindTask, subtask.TaskID
		case KindTask:
			task, err := s.store.GetTask(ctx, id)
			if err != nil {
				return store.Project{}, err
			}
			kind, id = KindGroup, task.GroupID
		case KindGroup:
			group, err := s.store.GetGroup(ctx, id)
			if err != nil {
				return store.Project{}, err
			}
			return s.store.GetProject(ctx, group.ProjectID)
		default:
			return store.Project{}, store.ErrNotFound
		}
	}
}

// authorize confirms the user owns the project at the root of the
// resource's chain. A broken chain and a foreign owner both come back as
// ErrNotFound so callers cannot probe for other users' resource ids.
func (s *Service) authorize(ctx context.Context, kind ResourceKind, id, userID int64) (store.Project, error) {
	project, err := s.resolveOwningProject(ctx, kind, id)
	if err != nil {
		return store.Project{}, err
	}
	if project.UserID != userID {
		return store.Project{}, store.ErrNotFound
	}
	return project, nil
}

// authorizeProject is the zero-hop case: the resource is the project itself.
func (s *Service) authorizeProject(ctx context.Context, projectID, userID int64) (store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	if project.UserID != userID {
		return store.Project{}, store.ErrNotFound
	}
	return project, nil
}

// --- Hierarchy operations ---

// ListProjects returns the caller's fully expanded tree. The user id comes
// from the session; there is no way to request another user's tree.
func (s *Service) ListProjects(ctx context.Context, userID int64) ([]store.ProjectWithChildren, error) {
	return s.store.GetProjectsWithChildren(ctx, userID)
}

func (s *Service) CreateProject(ctx context.Context, userID int64, input CreateProjectInput) (store.Project, error) {
	if fields := requireField("name", input.Name); fields != nil {
		return store.Project{}, validationError(fields)
	}
	return s.store.CreateProject(ctx, strings.TrimSpace(input.Name), userID)
}

func (s *Service) CreateGroup(ctx context.Context, userID, projectID int64, input CreateGroupInput) (store.Group, error) {
	if fields := requireField("name", input.Name); fields != nil {
		return store.Group{}, validationError(fields)
	}
	project, err := s.authorizeProject(ctx, projectID, userID)
	if err != nil {
		return store.Group{}, err
	}
	return s.store.CreateGroup(ctx, strings.TrimSpace(input.Name), project.ID)
}

func (s *Service) CreateTask(ctx context.Context, userID, groupID int64, input CreateTaskInput) (store.Task, error) {
	if fields := requireField("title", input.Title); fields != nil {
		return store.Task{}, validationError(fields)
	}
	project, err := s.authorize(ctx, KindGroup, groupID, userID)
	if err != nil {
		return store.Task{}, err
	}
	task, err := s.store.CreateTask(ctx, strings.TrimSpace(input.Title), groupID)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(task, project)
	return task, nil
}

func (s *Service) CreateSubtask(ctx context.Context, userID, taskID int64, input CreateSubtaskInput) (store.Subtask, error) {
	if fields := requireField("title", input.Title); fields != nil {
		return store.Subtask{}, validationError(fields)
	}
	if _, err := s.authorize(ctx, KindTask, taskID, userID); err != nil {
		return store.Subtask{}, err
	}
	return s.store.CreateSubtask(ctx, strings.TrimSpace(input.Title), taskID)
}

func (s *Service) UpdateTask(ctx context.Context, userID, taskID int64, input UpdateCompletionInput) (store.Task, error) {
	if input.Completed == nil {
		return store.Task{}, validationError(map[string]string{"completed": "Completed is required"})
	}
	project, err := s.authorize(ctx, KindTask, taskID, userID)
	if err != nil {
		return store.Task{}, err
	}
	task, err := s.store.UpdateTaskCompletion(ctx, taskID, *input.Completed)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(task, project)
	return task, nil
}

func (s *Service) UpdateSubtask(ctx context.Context, userID, subtaskID int64, input UpdateCompletionInput) (store.Subtask, error) {
	if input.Completed == nil {
		return store.Subtask{}, validationError(map[string]string{"completed": "Completed is required"})
	}
	if _, err := s.authorize(ctx, KindSubtask, subtaskID, userID); err != nil {
		return store.Subtask{}, err
	}
	return s.store.UpdateSubtaskCompletion(ctx, subtaskID, *input.Completed)
}

func requireField(name, value string) map[string]string {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	label := strings.ToUpper(name[:1]) + name[1:]
	return map[string]string{name: label + " is required"}
}

// --- Search ---

func (s *Service) SearchTasks(ctx context.Context, userID int64, text string, limit int) (search.Response, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.search != nil {
		return s.search.Search(ctx, search.Query{UserID: userID, Text: text, Limit: limit}), nil
	}
	hits, err := s.store.SearchTasks(ctx, userID, text, limit)
	if err != nil {
		return search.Response{}, err
	}
	return search.Response{Results: hits, Total: len(hits), Query: text}, nil
}

func (s *Service) indexTask(task store.Task, project store.Project) {
	if s.search == nil {
		return
	}
	s.search.IndexTask(search.TaskRecord{
		ID:        task.ID,
		Title:     task.Title,
		Completed: task.Completed,
		GroupID:   task.GroupID,
		ProjectID: project.ID,
		UserID:    project.UserID,
	})
}
