package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("7ccb6c4a-34a1-4d1c-a6ef-3d2a9a1b6f01"))

	assert.Error(t, ValidateUUID(""))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID("7CCB6C4A-34A1-4D1C-A6EF-3D2A9A1B6F01"))
	assert.Error(t, ValidateUUID("../../../etc/passwd"))
}

func TestValidatePackageCoordinate(t *testing.T) {
	valid := []string{
		"lodash",
		"lodash@4.17.21",
		"@scope/pkg",
		"@scope/pkg@1.2.3",
		"left-pad@1.3.0",
	}
	for _, coord := range valid {
		assert.NoError(t, ValidatePackageCoordinate(coord), "coord %q", coord)
	}

	invalid := []string{"", "lodash; rm -rf /", "pkg name with spaces"}
	for _, coord := range invalid {
		assert.Error(t, ValidatePackageCoordinate(coord), "coord %q", coord)
	}
}

func TestValidateRepoSlug(t *testing.T) {
	assert.NoError(t, ValidateRepoSlug("acme/backend"))
	assert.NoError(t, ValidateRepoSlug("some-org/repo.name"))

	assert.Error(t, ValidateRepoSlug(""))
	assert.Error(t, ValidateRepoSlug("no-slash"))
	assert.Error(t, ValidateRepoSlug("https://github.com/acme/backend"))
	assert.Error(t, ValidateRepoSlug("owner/repo/extra"))
}

func TestValidateImageRef(t *testing.T) {
	valid := []string{
		"alpine",
		"alpine:3.18",
		"ghcr.io/acme/api:v2",
		"registry.example.com/team/service:1.0.0",
	}
	for _, ref := range valid {
		assert.NoError(t, ValidateImageRef(ref), "ref %q", ref)
	}

	assert.Error(t, ValidateImageRef(""))
	assert.Error(t, ValidateImageRef("Alpine:latest"))
	assert.Error(t, ValidateImageRef("bad image"))
}
