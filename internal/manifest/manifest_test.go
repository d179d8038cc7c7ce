package manifest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"instancesync/internal/manifest"
)

func TestBuildSortsByFileName(t *testing.T) {
	instance := manifest.Build([]manifest.Entry{
		{FileName: "jei.jar", DownloadURL: "https://edge.example/jei.jar"},
		{FileName: "Create.jar", DownloadURL: "https://edge.example/create.jar"},
		{FileName: "  ", DownloadURL: "https://edge.example/blank"},
		{FileName: "appleskin.jar", DownloadURL: "https://edge.example/appleskin.jar"},
	}, []string{"mods"})

	var names []string
	for _, addon := range instance.InstalledAddons {
		names = append(names, addon.InstalledFile.FileNameOnDisk)
	}
	if got := strings.Join(names, ","); got != "Create.jar,appleskin.jar,jei.jar" {
		t.Fatalf("unexpected order %q", got)
	}
	if len(instance.CachedScans) != 1 || instance.CachedScans[0].FolderName != "mods" {
		t.Fatalf("unexpected cached scans %+v", instance.CachedScans)
	}
}

func TestEncodeUsesLauncherFieldNames(t *testing.T) {
	data, err := manifest.Encode(manifest.Build([]manifest.Entry{
		{FileName: "jei.jar", DownloadURL: "https://edge.example/jei.jar"},
	}, nil))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	want := `{
  "installedAddons": [
    {
      "installedFile": {
        "fileNameOnDisk": "jei.jar",
        "downloadUrl": "https://edge.example/jei.jar"
      }
    }
  ],
  "cachedScans": []
}`
	if string(data) != want {
		t.Fatalf("unexpected encoding:\n%s\nwant:\n%s", data, want)
	}
}

func TestEncodeKeepsSpecialCharactersVerbatim(t *testing.T) {
	data, err := manifest.Encode(manifest.Build([]manifest.Entry{
		{FileName: "a&b<c>.jar", DownloadURL: "https://edge.example/?a=1&b=2"},
	}, nil))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"fileNameOnDisk": "a&b<c>.jar"`) {
		t.Fatalf("expected unescaped file name, got %s", out)
	}
	if !strings.Contains(out, `"downloadUrl": "https://edge.example/?a=1&b=2"`) {
		t.Fatalf("expected unescaped url, got %s", out)
	}
	if strings.Contains(out, `\u0026`) || strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected escaping or trailing newline: %q", out)
	}
}

func TestEncodeEmptyManifest(t *testing.T) {
	data, err := manifest.Encode(manifest.Instance{})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.Contains(string(data), `"installedAddons": []`) {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "minecraftinstance.json")
	instance := manifest.Build([]manifest.Entry{
		{FileName: "b.jar", DownloadURL: "https://edge.example/b.jar"},
		{FileName: "a.jar", DownloadURL: "https://edge.example/a.jar"},
	}, nil)

	if err := manifest.Write(path, instance); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	got, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got.InstalledAddons) != 2 || got.InstalledAddons[0].InstalledFile.FileNameOnDisk != "a.jar" {
		t.Fatalf("unexpected manifest %+v", got)
	}
}

func TestWriteRequiresPath(t *testing.T) {
	if err := manifest.Write(" ", manifest.Instance{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := manifest.Read(path); err == nil {
		t.Fatal("expected parse error")
	}
}
