package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"pmpayout/internal/config"
	"pmpayout/internal/deps"
)

const apiCheckTimeout = 10 * time.Second

// CheckVideoAPI asks the export API for a single one-row page with the
// configured key. It makes no retries.
func CheckVideoAPI(ctx context.Context, baseURL, apiKey string) Result {
	res := Result{Name: "Video API"}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	key := strings.TrimSpace(apiKey)
	switch {
	case base == "":
		res.Detail = "missing url"
		return res
	case key == "":
		res.Detail = "missing api key"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/videos?limit=1&page=1", nil)
	if err != nil {
		res.Detail = fmt.Sprintf("bad request (%v)", err)
		return res
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		res.Detail = summarizeRequestError(err)
		return res
	}
	_ = resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		res.Passed, res.Detail = true, "Reachable"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		res.Detail = "auth failed (invalid api key)"
	default:
		res.Detail = fmt.Sprintf("unexpected status %d", code)
	}
	return res
}

// CheckDirectoryAccess passes when path is a directory the process can list,
// create files in, and enter.
func CheckDirectoryAccess(name, path string) Result {
	return checkPath(name, path, true, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckFileReadable passes when path names a regular file the process can read.
func CheckFileReadable(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	return checkPath(name, path, false, unix.R_OK, "readable")
}

func checkPath(name, path string, wantDir bool, mode uint32, okNote string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: path + " (error: " + fmt.Sprintf(format, args...) + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case wantDir && !info.IsDir():
		return fail("is not a directory")
	case !wantDir && info.IsDir():
		return fail("is a directory")
	}
	if err := unix.Access(path, mode); err != nil {
		return fail("access denied: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: path + " (" + okNote + ")"}
}

// CheckSignatureDeps reports the signature tooling for the given config.
// Both the run command and the deps command use this list.
func CheckSignatureDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, deps.SignatureRequirements(cfg.Signature))
}

func summarizeRequestError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Sprintf("no response within %s", apiCheckTimeout)
	}
	return err.Error()
}
