package store

// User is an account that owns projects. The password hash never leaves
// the store layer except through the authpw service.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Project is the root of an ownership chain. UserID is set once at
// creation and never changes.
type Project struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type Group struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID int64  `json:"projectId"`
}

type Task struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	GroupID   int64  `json:"groupId"`
}

type Subtask struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	TaskID    int64  `json:"taskId"`
}

// ProjectWithChildren is the fully expanded tree returned by the
// composite read.
type ProjectWithChildren struct {
	Project
	Groups []GroupWithTasks `json:"groups"`
}

type GroupWithTasks struct {
	Group
	Tasks []TaskWithSubtasks `json:"tasks"`
}

type TaskWithSubtasks struct {
	Task
	Subtasks []Subtask `json:"subtasks"`
}

// TaskHit is a search result row. ProjectID lets the client jump to the
// owning project without another round trip.
type TaskHit struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	GroupID   int64  `json:"groupId"`
	ProjectID int64  `json:"projectId"`
}
