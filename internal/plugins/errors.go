package plugins

import (
	"errors"
	"fmt"
)

var (
	ErrPageRequired        = errors.New("plugins: page is required")
	ErrLanguageRequired    = errors.New("plugins: language is required")
	ErrPlaceholderRequired = errors.New("plugins: placeholder is required")
	ErrTypeRequired        = errors.New("plugins: plugin type is required")
	ErrTypeUnknown         = errors.New("plugins: plugin type not registered")
	ErrTypeExists          = errors.New("plugins: plugin type already registered")
	ErrPluginNotFound      = errors.New("plugins: plugin not found")
	ErrParentMismatch      = errors.New("plugins: parent plugin belongs to another placeholder")
)

// PluginNotFoundError reports a lookup miss by id.
type PluginNotFoundError struct {
	Key string
}

func (e *PluginNotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrPluginNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPluginNotFound.Error(), e.Key)
}

func (e *PluginNotFoundError) Unwrap() error {
	return ErrPluginNotFound
}

// RenderError wraps a plugin that failed to render.
type RenderError struct {
	PluginID   string
	PluginType string
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("plugins: render %s (%s): %v", e.PluginType, e.PluginID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
