package report

import (
	"encoding/json"

	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// DiffReport is the JSON form of a diff
type DiffReport struct {
	models.DiffResult
	LeftOnlyBytes  int64 `json:"left_only_bytes"`
	RightOnlyBytes int64 `json:"right_only_bytes"`
	Identical      bool  `json:"identical"`
}

// ShadowReport is the JSON form of a shadow copy
type ShadowReport struct {
	*models.ShadowResult
	FoldersCreated int `json:"folders_created"`
	FilesCreated   int `json:"files_created"`
}

func diffJSON(r models.DiffResult) ([]byte, error) {
	report := &DiffReport{
		DiffResult:     r,
		LeftOnlyBytes:  totalSize(r.LeftOnly),
		RightOnlyBytes: totalSize(r.RightOnly),
		Identical:      r.Identical(),
	}
	return json.MarshalIndent(report, "", "  ")
}

func shadowJSON(r *models.ShadowResult) ([]byte, error) {
	report := &ShadowReport{
		ShadowResult:   r,
		FoldersCreated: len(r.Folders()),
		FilesCreated:   len(r.Files()),
	}
	return json.MarshalIndent(report, "", "  ")
}
