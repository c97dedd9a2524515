package service

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")

	ErrRoleNotSet         = errors.New("forbidden: role not set")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleAlreadySet     = errors.New("role is already set")
	ErrNotAuthor          = errors.New("forbidden: you are not the author")
	ErrSelfUpvote         = errors.New("forbidden: cannot upvote your own post")
	ErrCannotMarkAnswered = errors.New("forbidden: only the author or an instructor can mark as answered")

	ErrEmptyPost        = errors.New("title and content are required")
	ErrEmptyReply       = errors.New("reply content is required")
	ErrEmptyDisplayName = errors.New("display name cannot be empty")
	ErrInvalidCursor    = errors.New("invalid cursor")

	ErrUploadsDisabled      = errors.New("avatar uploads are not configured")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTokenRevoked         = errors.New("token has been revoked")
)
