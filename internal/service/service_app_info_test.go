package service

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/stretchr/testify/assert"
)

// ─────────────────────────────────────────────
// NewAppInfoService
// ─────────────────────────────────────────────

func TestNewAppInfoService_ReturnsAppInfoServiceInterface(t *testing.T) {
	svc := NewAppInfoService(models.NewAppBuildInfo("2.5.1", "2026-01-01", "abc123"))

	// compile-time check: returned value must satisfy the interface
	var _ AppInfoService = svc
}

func TestNewAppInfoService_EmptyValuesBecomeUnknown(t *testing.T) {
	svc := NewAppInfoService(models.NewAppBuildInfo("", "", ""))

	info := svc.GetBuildInfo(context.Background())

	assert.Equal(t, "N/A", info.BuildVersion())
	assert.Equal(t, "N/A", info.BuildDate())
	assert.Equal(t, "N/A", info.BuildCommit())
}

// ─────────────────────────────────────────────
// GetAppVersion
// ─────────────────────────────────────────────

func TestGetAppVersion_ReturnsConfiguredVersion(t *testing.T) {
	svc := NewAppInfoService(models.NewAppBuildInfo("3.1.4", "", ""))

	assert.Equal(t, "3.1.4", svc.GetAppVersion(context.Background()))
}

func TestGetAppVersion_DifferentInstances_IndependentVersions(t *testing.T) {
	svc1 := NewAppInfoService(models.NewAppBuildInfo("1.0.0", "", ""))
	svc2 := NewAppInfoService(models.NewAppBuildInfo("2.0.0", "", ""))

	assert.Equal(t, "1.0.0", svc1.GetAppVersion(context.Background()))
	assert.Equal(t, "2.0.0", svc2.GetAppVersion(context.Background()))
}

func TestGetAppVersion_VersionWithSpecialChars(t *testing.T) {
	version := "v1.2.3-beta+build.42"
	svc := NewAppInfoService(models.NewAppBuildInfo(version, "", ""))

	assert.Equal(t, version, svc.GetAppVersion(context.Background()))
}

func TestGetAppVersion_CancelledContext_StillReturnsVersion(t *testing.T) {
	svc := NewAppInfoService(models.NewAppBuildInfo("1.0.0", "", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// GetAppVersion does not use ctx, so it must still return the version
	assert.Equal(t, "1.0.0", svc.GetAppVersion(ctx))
}
