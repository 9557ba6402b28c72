package domain

import "errors"

var (
	ErrNotFound              = errors.New("your requested item is not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrConflict              = errors.New("your item already exists")
	ErrBadParamInput         = errors.New("given param is not valid")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrModelNotLoaded        = errors.New("ranking model is not loaded")
	ErrInsufficientPositives = errors.New("not enough positive examples to train")
)
