// Package validator holds small helpers for validating configuration
// before an engine is built from it.
package validator

import (
	"fmt"
	"os"
	"slices"
)

// All returns the first non-nil error.
func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty fails when a required string field is blank.
func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

// NoDuplicates fails when a list names the same element twice.
func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// MatchesAllowed fails when field is not one of the allowed values.
func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// DirExists fails when path is missing or not a directory.
func DirExists(path, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %q is not a directory", description, path)
	}
	return nil
}

// EachDir applies DirExists to every entry of a directory list.
func EachDir(paths []string, description string) error {
	for i, p := range paths {
		if err := DirExists(p, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}
