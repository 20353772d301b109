package utils

import (
	"fmt"
	"regexp"
)

// Validation patterns for identifiers accepted over the API
var (
	// UUID: standard format with dashes
	uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// Package coordinate: name or name@version (npm-style, scoped names allowed)
	packagePattern = regexp.MustCompile(`^(@?[a-zA-Z0-9][a-zA-Z0-9._/-]*)(@[a-zA-Z0-9][a-zA-Z0-9._+-]*)?$`)

	// Repository slug: owner/repo
	repoSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*/[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	// Container image reference: registry/name:tag or name@sha256:digest
	imageRefPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9._/-]*[a-z0-9])?([:@][a-zA-Z0-9._:+-]+)?$`)
)

// ValidateUUID checks that a string is a well-formed lowercase UUID
func ValidateUUID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !uuidPattern.MatchString(id) {
		return fmt.Errorf("invalid id format: expected UUID")
	}
	return nil
}

// ValidatePackageCoordinate checks a dependency identifier (name or name@version)
func ValidatePackageCoordinate(coord string) error {
	if coord == "" {
		return fmt.Errorf("package coordinate cannot be empty")
	}
	if !packagePattern.MatchString(coord) {
		return fmt.Errorf("invalid package coordinate: %s", coord)
	}
	return nil
}

// ValidateRepoSlug checks an owner/repo identifier
func ValidateRepoSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("repository slug cannot be empty")
	}
	if !repoSlugPattern.MatchString(slug) {
		return fmt.Errorf("invalid repository slug: expected owner/repo")
	}
	return nil
}

// ValidateImageRef checks a container image reference
func ValidateImageRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("image reference cannot be empty")
	}
	if !imageRefPattern.MatchString(ref) {
		return fmt.Errorf("invalid image reference: %s", ref)
	}
	return nil
}
