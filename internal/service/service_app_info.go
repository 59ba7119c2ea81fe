package service

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/models"
)

const unknownVersion = "N/A"

type appInfoService struct {
	buildInfo models.AppBuildInfo
}

// NewAppInfoService exposes the linker-injected build metadata. Missing
// values are reported as "N/A".
func NewAppInfoService(buildInfo models.AppBuildInfo) AppInfoService {
	return &appInfoService{
		buildInfo: models.NewAppBuildInfo(
			orUnknown(buildInfo.BuildVersion()),
			orUnknown(buildInfo.BuildDate()),
			orUnknown(buildInfo.BuildCommit()),
		),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownVersion
	}
	return s
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.buildInfo.BuildVersion()
}

func (s *appInfoService) GetBuildInfo(ctx context.Context) models.AppBuildInfo {
	return s.buildInfo
}
