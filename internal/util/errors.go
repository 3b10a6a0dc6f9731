package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrSessionNotFound   = errors.New("assessment session not found")
	ErrSessionClosed     = errors.New("assessment session is closed")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrWorkspaceClosed   = errors.New("workspace closed")
	ErrContextNotReady   = errors.New("perspective and subject are not resolved yet")
	ErrContextChanged    = errors.New("answer context changed during save")
	ErrQuestionNotFound  = errors.New("question not found in workspace")
)
