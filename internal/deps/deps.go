package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"pmpayout/internal/config"
)

// versionTimeout bounds a single version check.
const versionTimeout = 5 * time.Second

// Requirement defines an external binary pmpayout relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the binary to capture its version.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// SignatureRequirements lists the binaries the frame signature provider
// shells out to.
func SignatureRequirements(cfg config.Signature) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YTDLPBinary,
			Description: "Downloads videos for first-frame signatures",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary,
			Description: "Extracts the first frame of each downloaded video",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
	}
}

// CheckBinaries resolves every requirement on PATH, in order. A failed
// version check leaves Version empty but still counts as available.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = check(ctx, req)
	}
	return out
}

func check(ctx context.Context, req Requirement) Status {
	st := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if st.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(st.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", st.Command)
		return st
	}
	st.Available, st.Path = true, path
	if len(req.VersionArgs) > 0 {
		st.Version = detectVersion(ctx, path, req.VersionArgs)
	}
	return st
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func detectVersion(ctx context.Context, binary string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return ""
	}
	for line := range strings.Lines(string(out)) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
