package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// CurseForgeServer is a stand-in for the fingerprint matching endpoint.
type CurseForgeServer struct {
	URL string

	mu       sync.Mutex
	files    map[uint32]string
	requests int
}

// NewCurseForgeServer serves exact matches for the fingerprints in files
// (fingerprint to file name). Download URLs are derived from the file name.
func NewCurseForgeServer(t testing.TB, files map[uint32]string) *CurseForgeServer {
	t.Helper()

	srv := &CurseForgeServer{files: files}
	server := httptest.NewServer(http.HandlerFunc(srv.handle))
	t.Cleanup(server.Close)
	srv.URL = server.URL
	return srv
}

// Requests returns the number of match requests served.
func (s *CurseForgeServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// DownloadURL is the URL served for fileName.
func DownloadURL(fileName string) string {
	return "https://edge.forgecdn.net/files/" + fileName
}

func (s *CurseForgeServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("x-api-key") == "" {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		Fingerprints []uint32 `json:"fingerprints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests++
	s.mu.Unlock()

	type file struct {
		ID              int64  `json:"id"`
		ModID           int64  `json:"modId"`
		FileName        string `json:"fileName"`
		DownloadURL     string `json:"downloadUrl"`
		FileFingerprint uint32 `json:"fileFingerprint"`
	}
	type match struct {
		ID   int64 `json:"id"`
		File file  `json:"file"`
	}
	exact := []match{}
	unmatched := []uint32{}
	for i, fp := range req.Fingerprints {
		name, ok := s.files[fp]
		if !ok {
			unmatched = append(unmatched, fp)
			continue
		}
		exact = append(exact, match{
			ID: int64(1000 + i),
			File: file{
				ID:              int64(5000 + i),
				ModID:           int64(1000 + i),
				FileName:        name,
				DownloadURL:     DownloadURL(name),
				FileFingerprint: fp,
			},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"exactMatches":          exact,
			"unmatchedFingerprints": unmatched,
		},
	})
}
