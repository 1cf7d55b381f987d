// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ProjectFields are the writable project attributes.
type ProjectFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ProjectRequest is the body of project create and update requests.
// The fields may be sent flat or wrapped in a "project" object.
type ProjectRequest struct {
	ProjectFields
	Project *ProjectFields `json:"project"`
}

// Fields returns the wrapped attributes when present, the flat ones otherwise.
func (r *ProjectRequest) Fields() ProjectFields {
	if r.Project != nil {
		return *r.Project
	}
	return r.ProjectFields
}

// TaskFields are the writable task attributes.
type TaskFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// TaskRequest is the body of task create and update requests.
// The fields may be sent flat or wrapped in a "task" object.
type TaskRequest struct {
	TaskFields
	Task *TaskFields `json:"task"`
}

// Fields returns the wrapped attributes when present, the flat ones otherwise.
func (r *TaskRequest) Fields() TaskFields {
	if r.Task != nil {
		return *r.Task
	}
	return r.TaskFields
}

// Credentials are the sign-in attributes.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the body of POST /sessions.
type SignInRequest struct {
	Credentials
	User *Credentials `json:"user"`
}

// Fields returns the wrapped credentials when present, the flat ones otherwise.
func (r *SignInRequest) Fields() Credentials {
	if r.User != nil {
		return *r.User
	}
	return r.Credentials
}

// Registration are the sign-up attributes.
type Registration struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Registration
	User *Registration `json:"user"`
}

// Fields returns the wrapped attributes when present, the flat ones otherwise.
func (r *RegisterRequest) Fields() Registration {
	if r.User != nil {
		return *r.User
	}
	return r.Registration
}
