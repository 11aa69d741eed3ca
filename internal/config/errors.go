package config

import (
	"fmt"
)

type InvalidRootError struct {
	Path    string
	Wrapped error
}

func (e *InvalidRootError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("project root %s is not usable: %v", e.Path, e.Wrapped)
	}
	return fmt.Sprintf("project root %s is not a directory", e.Path)
}

func (e *InvalidRootError) Unwrap() error { return e.Wrapped }

type InvalidYAMLError struct {
	Path    string
	Wrapped error
}

func (e *InvalidYAMLError) Error() string {
	return fmt.Sprintf("%s is not a valid yaml document: %v", e.Path, e.Wrapped)
}

func (e *InvalidYAMLError) Unwrap() error { return e.Wrapped }

// InvalidConfigError is returned when the config file does not match the configuration schema.
type InvalidConfigError struct {
	Path    string
	Wrapped error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s is not a valid configuration: %v", e.Path, e.Wrapped)
}

func (e *InvalidConfigError) Unwrap() error { return e.Wrapped }

type InvalidNodeVersionError struct {
	Value string
}

func (e *InvalidNodeVersionError) Error() string {
	return fmt.Sprintf("invalid node version '%s': expected major.minor, e.g. 12.12", e.Value)
}

// InvalidBackupRootError is returned when clearing the backup root would remove project content.
type InvalidBackupRootError struct {
	Path     string
	Conflict string
	Inside   bool
}

func (e *InvalidBackupRootError) Error() string {
	if e.Inside {
		return fmt.Sprintf("backup root %s lies inside %s, it must be outside the project content", e.Path, e.Conflict)
	}
	return fmt.Sprintf("backup root %s would remove %s, it must be outside the project content", e.Path, e.Conflict)
}
