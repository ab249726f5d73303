package app

// openAPIDocument assembles the OpenAPI 3.0 description served at /api/docs.
// The document is built by hand so it never drifts behind a generator step.
func openAPIDocument() map[string]any {
	schemas := map[string]any{
		"User": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "integer", "format": "int64"},
				"username":  map[string]any{"type": "string"},
				"firstName": map[string]any{"type": "string"},
				"lastName":  map[string]any{"type": "string"},
				"email":     map[string]any{"type": "string", "format": "email"},
			},
		},
		"Project": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":     map[string]any{"type": "integer", "format": "int64"},
				"name":   map[string]any{"type": "string"},
				"userId": map[string]any{"type": "integer", "format": "int64"},
			},
		},
		"Group": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "integer", "format": "int64"},
				"name":      map[string]any{"type": "string"},
				"projectId": map[string]any{"type": "integer", "format": "int64"},
			},
		},
		"Task": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "integer", "format": "int64"},
				"title":     map[string]any{"type": "string"},
				"completed": map[string]any{"type": "boolean"},
				"groupId":   map[string]any{"type": "integer", "format": "int64"},
			},
		},
		"Subtask": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "integer", "format": "int64"},
				"title":     map[string]any{"type": "string"},
				"completed": map[string]any{"type": "boolean"},
				"taskId":    map[string]any{"type": "integer", "format": "int64"},
			},
		},
		"Error": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":    map[string]any{"type": "string"},
				"error":   map[string]any{"type": "string"},
				"details": map[string]any{"type": "object"},
			},
		},
	}

	jsonBody := func(ref string) map[string]any {
		return map[string]any{
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + ref},
				},
			},
		}
	}
	objectBody := func(properties map[string]any, required []string) map[string]any {
		schema := map[string]any{"type": "object", "properties": properties}
		if len(required) > 0 {
			schema["required"] = required
		}
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": schema},
			},
		}
	}
	response := func(description, ref string) map[string]any {
		body := jsonBody(ref)
		body["description"] = description
		return body
	}
	idParam := map[string]any{
		"name":     "id",
		"in":       "path",
		"required": true,
		"schema":   map[string]any{"type": "integer", "format": "int64"},
	}

	secured := []map[string]any{{"bearerAuth": []any{}}}

	paths := map[string]any{
		"/api/register": map[string]any{
			"post": map[string]any{
				"summary": "Register a new user",
				"tags":    []string{"auth"},
				"requestBody": objectBody(map[string]any{
					"username":  map[string]any{"type": "string"},
					"password":  map[string]any{"type": "string", "minLength": 6},
					"firstName": map[string]any{"type": "string"},
					"lastName":  map[string]any{"type": "string"},
					"email":     map[string]any{"type": "string", "format": "email"},
				}, []string{"username", "password", "firstName", "lastName", "email"}),
				"responses": map[string]any{
					"201": response("User created with a fresh session", "User"),
					"400": response("Invalid input or username taken", "Error"),
				},
			},
		},
		"/api/login": map[string]any{
			"post": map[string]any{
				"summary": "Exchange credentials for tokens",
				"tags":    []string{"auth"},
				"requestBody": objectBody(map[string]any{
					"username": map[string]any{"type": "string"},
					"password": map[string]any{"type": "string"},
				}, []string{"username", "password"}),
				"responses": map[string]any{
					"200": response("Session tokens and user profile", "User"),
					"401": response("Invalid credentials", "Error"),
				},
			},
		},
		"/api/session/refresh": map[string]any{
			"post": map[string]any{
				"summary": "Rotate a refresh token",
				"tags":    []string{"auth"},
				"requestBody": objectBody(map[string]any{
					"refreshToken": map[string]any{"type": "string"},
				}, []string{"refreshToken"}),
				"responses": map[string]any{
					"200": response("New session tokens", "User"),
					"401": response("Refresh token invalid or expired", "Error"),
				},
			},
		},
		"/api/logout": map[string]any{
			"post": map[string]any{
				"summary": "Revoke the current session",
				"tags":    []string{"auth"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Session revoked"},
				},
			},
		},
		"/api/user": map[string]any{
			"get": map[string]any{
				"summary":  "Current user profile",
				"tags":     []string{"auth"},
				"security": secured,
				"responses": map[string]any{
					"200": response("The authenticated user", "User"),
					"401": response("Missing or invalid token", "Error"),
				},
			},
		},
		"/api/projects": map[string]any{
			"get": map[string]any{
				"summary":  "List projects with groups, tasks and subtasks",
				"tags":     []string{"projects"},
				"security": secured,
				"responses": map[string]any{
					"200": map[string]any{
						"description": "Projects owned by the caller, fully nested",
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type":  "array",
									"items": map[string]any{"$ref": "#/components/schemas/Project"},
								},
							},
						},
					},
					"401": response("Missing or invalid token", "Error"),
				},
			},
			"post": map[string]any{
				"summary":  "Create a project",
				"tags":     []string{"projects"},
				"security": secured,
				"requestBody": objectBody(map[string]any{
					"name": map[string]any{"type": "string"},
				}, []string{"name"}),
				"responses": map[string]any{
					"201": response("Created project", "Project"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
				},
			},
		},
		"/api/projects/{id}/groups": map[string]any{
			"post": map[string]any{
				"summary":    "Create a group inside a project",
				"tags":       []string{"groups"},
				"security":   secured,
				"parameters": []map[string]any{idParam},
				"requestBody": objectBody(map[string]any{
					"name": map[string]any{"type": "string"},
				}, []string{"name"}),
				"responses": map[string]any{
					"201": response("Created group", "Group"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
					"404": response("Project not found", "Error"),
				},
			},
		},
		"/api/groups/{id}/tasks": map[string]any{
			"post": map[string]any{
				"summary":    "Create a task inside a group",
				"tags":       []string{"tasks"},
				"security":   secured,
				"parameters": []map[string]any{idParam},
				"requestBody": objectBody(map[string]any{
					"title": map[string]any{"type": "string"},
				}, []string{"title"}),
				"responses": map[string]any{
					"201": response("Created task", "Task"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
					"404": response("Group not found", "Error"),
				},
			},
		},
		"/api/tasks/{id}/subtasks": map[string]any{
			"post": map[string]any{
				"summary":    "Create a subtask inside a task",
				"tags":       []string{"subtasks"},
				"security":   secured,
				"parameters": []map[string]any{idParam},
				"requestBody": objectBody(map[string]any{
					"title": map[string]any{"type": "string"},
				}, []string{"title"}),
				"responses": map[string]any{
					"201": response("Created subtask", "Subtask"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
					"404": response("Task not found", "Error"),
				},
			},
		},
		"/api/tasks/{id}": map[string]any{
			"patch": map[string]any{
				"summary":    "Update task completion",
				"tags":       []string{"tasks"},
				"security":   secured,
				"parameters": []map[string]any{idParam},
				"requestBody": objectBody(map[string]any{
					"completed": map[string]any{"type": "boolean"},
				}, []string{"completed"}),
				"responses": map[string]any{
					"200": response("Updated task", "Task"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
					"404": response("Task not found", "Error"),
				},
			},
		},
		"/api/subtasks/{id}": map[string]any{
			"patch": map[string]any{
				"summary":    "Update subtask completion",
				"tags":       []string{"subtasks"},
				"security":   secured,
				"parameters": []map[string]any{idParam},
				"requestBody": objectBody(map[string]any{
					"completed": map[string]any{"type": "boolean"},
				}, []string{"completed"}),
				"responses": map[string]any{
					"200": response("Updated subtask", "Subtask"),
					"400": response("Invalid input", "Error"),
					"401": response("Missing or invalid token", "Error"),
					"404": response("Subtask not found", "Error"),
				},
			},
		},
		"/api/search": map[string]any{
			"get": map[string]any{
				"summary":  "Search tasks by title",
				"tags":     []string{"search"},
				"security": secured,
				"parameters": []map[string]any{
					{
						"name":     "q",
						"in":       "query",
						"required": true,
						"schema":   map[string]any{"type": "string"},
					},
					{
						"name":   "limit",
						"in":     "query",
						"schema": map[string]any{"type": "integer", "default": 20},
					},
				},
				"responses": map[string]any{
					"200": map[string]any{"description": "Matching tasks for the caller"},
					"401": response("Missing or invalid token", "Error"),
				},
			},
		},
		"/api/health": map[string]any{
			"get": map[string]any{
				"summary": "Liveness probe",
				"tags":    []string{"system"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Process is up"},
				},
			},
		},
		"/api/ready": map[string]any{
			"get": map[string]any{
				"summary": "Readiness probe",
				"tags":    []string{"system"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Store reachable"},
					"503": map[string]any{"description": "Store unreachable"},
				},
			},
		},
	}

	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "TaskHive API",
			"version":     "1.0.0",
			"description": "Hierarchical to-do service: projects contain groups, groups contain tasks, tasks contain subtasks.",
		},
		"servers": []map[string]any{
			{"url": "/", "description": "Current host"},
		},
		"components": map[string]any{
			"schemas": schemas,
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "opaque",
				},
			},
		},
		"paths": paths,
	}
}
