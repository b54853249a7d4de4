package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")
	ErrExamNotFound     = errors.New("exam not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrMarkNotFound     = errors.New("mark entry not found")
	ErrOutcomeNotFound  = errors.New("outcome not found")
	ErrExamPublished    = errors.New("exam already published, questions are frozen")
	ErrQuestionHasMarks = errors.New("question has mark entries, delete them first")
	ErrMarksOutOfRange  = errors.New("marks obtained out of range for question")
)
