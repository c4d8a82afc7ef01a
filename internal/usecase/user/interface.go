package user

import "context"

// Service defines the user business logic operations consumed by transports.
type Service interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, in GetUserRequest) (*User, error)
	ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error)
	SearchUsers(ctx context.Context, in SearchUsersRequest) (*ListUsersResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
}

var _ Service = (*Usecase)(nil)
