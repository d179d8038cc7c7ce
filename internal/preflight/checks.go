package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"instancesync/internal/config"
	"instancesync/internal/curseforge"
	"instancesync/internal/fingerprint"
	"instancesync/internal/lookupcache"
)

// Access selects the permissions CheckDirectoryAccess requires.
type Access uint32

const (
	AccessRead  Access = unix.R_OK | unix.X_OK
	AccessWrite Access = unix.R_OK | unix.W_OK | unix.X_OK
)

const serviceCheckTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and grants access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, uint32(access)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	label := "read ok"
	if access == AccessWrite {
		label = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckLookupCache verifies the cache database opens and reports its size.
// A database that does not exist yet passes without being created; the
// first sync creates it.
func CheckLookupCache(ctx context.Context, path string) Result {
	const name = "Lookup cache"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}

	cache, err := lookupcache.Open(path, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer cache.Close()

	count, err := cache.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, count)}
}

// CheckLookupService verifies the fingerprint service is reachable and the API
// key is accepted. It uses a single attempt with no retries.
func CheckLookupService(ctx context.Context, cfg *config.Config) Result {
	const name = "CurseForge"

	if strings.TrimSpace(cfg.CurseForge.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	client, err := curseforge.New(curseforge.Config{
		APIKey:          cfg.CurseForge.APIKey,
		BaseURL:         cfg.CurseForge.BaseURL,
		FingerprintPath: cfg.CurseForge.FingerprintPath,
		GameID:          cfg.CurseForge.GameID,
		UserAgent:       cfg.CurseForge.UserAgent,
		Timeout:         serviceCheckTimeout,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()

	if _, err := client.MatchFingerprints(checkCtx, []uint32{fingerprint.Compute(nil)}); err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

func summarizeServiceError(err error) string {
	var statusErr *curseforge.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		default:
			return fmt.Sprintf("check failed (%d)", statusErr.StatusCode)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	return err.Error()
}
