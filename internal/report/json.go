package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONReporter writes the summary as indented JSON.
type JSONReporter struct{}

type jsonBundle struct {
	Outfile        string   `json:"outfile"`
	Bytes          int64    `json:"bytes"`
	SourceMapBytes int64    `json:"sourceMapBytes,omitempty"`
	Inputs         int      `json:"inputs"`
	Packages       []string `json:"packages"`
	Warnings       int      `json:"warnings"`
}

type jsonAsset struct {
	Asset       string `json:"asset"`
	Destination string `json:"destination"`
	Backup      string `json:"backup,omitempty"`
}

type jsonOutput struct {
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	Duration    string      `json:"duration"`
	Environment string      `json:"environment"`
	Revision    string      `json:"revision"`
	Bundle      jsonBundle  `json:"bundle"`
	Staged      []jsonAsset `json:"staged"`
	BackupRoot  string      `json:"backupRoot"`
}

func (jr *JSONReporter) Write(w io.Writer, s *Summary) error {
	out := jsonOutput{
		StartTime:   s.StartTime.Format(time.RFC3339),
		EndTime:     s.EndTime.Format(time.RFC3339),
		Duration:    s.Duration().String(),
		Environment: string(s.Environment),
		Revision:    s.Revision,
		Bundle: jsonBundle{
			Outfile:        s.Bundle.Outfile,
			Bytes:          s.Bundle.Bytes,
			SourceMapBytes: s.Bundle.SourceMapBytes,
			Inputs:         s.Bundle.Inputs,
			Packages:       s.Bundle.Packages,
			Warnings:       s.Bundle.Warnings,
		},
		Staged:     make([]jsonAsset, 0, len(s.Staged)),
		BackupRoot: s.BackupRoot,
	}
	if out.Bundle.Packages == nil {
		out.Bundle.Packages = []string{}
	}

	for _, op := range s.Staged {
		a := jsonAsset{Asset: op.Asset, Destination: op.Destination}
		if op.BackedUp {
			a.Backup = op.Backup
		}
		out.Staged = append(out.Staged, a)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
