package serlivre

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

// Report is the machine-readable build outcome written to stdout. Logs go to
// stderr; the report is the only thing a caller should parse.
type Report struct {
	Status      string           `json:"status"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	OutputDir   string           `json:"outputDir,omitempty"`
	ElapsedMS   int64            `json:"elapsedMs,omitempty"`
	Artifacts   []ReportArtifact `json:"artifacts,omitempty"`
	Error       *ReportError     `json:"error,omitempty"`
}

// ReportArtifact is one emitted file in the published bundle.
type ReportArtifact struct {
	Path  string `json:"path"`
	Hash  string `json:"hash"`
	Bytes int    `json:"bytes"`
	Fixed bool   `json:"fixed,omitempty"`
}

// ReportError names the failure: its kind from the error taxonomy, plus the
// offending asset path and section kind when the pipeline knows them.
type ReportError struct {
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	Section string `json:"section,omitempty"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// SuccessReport summarizes a finished build.
func SuccessReport(result *Result) Report {
	report := Report{
		Status:      "ok",
		Fingerprint: result.Fingerprint,
		OutputDir:   result.OutputDir,
		ElapsedMS:   result.Elapsed.Milliseconds(),
	}
	for _, artifact := range result.Artifacts {
		report.Artifacts = append(report.Artifacts, ReportArtifact{
			Path:  artifact.LogicalPath,
			Hash:  artifact.ContentHash,
			Bytes: len(artifact.Bytes),
			Fixed: artifact.Fixed,
		})
	}
	return report
}

// FailureReport maps a build error onto the report shape.
func FailureReport(err error) Report {
	re := &ReportError{
		Kind:    string(core.KindOf(err)),
		Message: err.Error(),
	}
	var be *core.BuildError
	if errors.As(err, &be) {
		re.Path = be.Path
		re.Section = be.Section
		re.Op = be.Op
	}
	return Report{Status: "failed", Error: re}
}

// Write renders the report as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
