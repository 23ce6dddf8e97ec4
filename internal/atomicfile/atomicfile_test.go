package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	yamlv3 "gopkg.in/yaml.v3"
)

func TestWriteYAML_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.yaml")

	data := map[string]any{"orders_received": 5, "picked_up": 3}
	if err := WriteYAML(path, data); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var result map[string]any
	if err := yamlv3.Unmarshal(content, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if result["picked_up"] != 3 {
		t.Errorf("picked_up: got %v, want 3", result["picked_up"])
	}
}

func TestWriteYAML_CreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.yaml")

	if err := WriteYAML(path, map[string]int{"decayed": 1}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteYAML(path, map[string]int{"decayed": 2}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	bakContent, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("ReadFile .bak failed: %v", err)
	}

	var bakData map[string]int
	if err := yamlv3.Unmarshal(bakContent, &bakData); err != nil {
		t.Fatalf("Unmarshal .bak failed: %v", err)
	}
	if bakData["decayed"] != 1 {
		t.Errorf("backup decayed: got %d, want 1", bakData["decayed"])
	}

	curContent, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile current failed: %v", err)
	}
	var curData map[string]int
	if err := yamlv3.Unmarshal(curContent, &curData); err != nil {
		t.Fatalf("Unmarshal current failed: %v", err)
	}
	if curData["decayed"] != 2 {
		t.Errorf("current decayed: got %d, want 2", curData["decayed"])
	}
}

func TestWriteRaw_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.yaml")

	invalidYAML := []byte(":\n  invalid: [\n    broken")
	err := WriteRaw(path, invalidYAML)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not exist after failed write")
	}
}

func TestWriteRaw_NoTempFileLeftOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.yaml")

	invalidYAML := []byte(":\n  broken: [\n")
	_ = WriteRaw(path, invalidYAML)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".yaml" {
			t.Errorf("unexpected file remaining: %s", entry.Name())
		}
	}
}

func TestWriteYAML_StructData(t *testing.T) {
	type summary struct {
		OrdersReceived int `yaml:"orders_received"`
		Removed        int `yaml:"removed"`
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "summary.yaml")

	if err := WriteYAML(path, &summary{OrdersReceived: 10, Removed: 2}); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var result summary
	if err := yamlv3.Unmarshal(content, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if result.OrdersReceived != 10 || result.Removed != 2 {
		t.Errorf("got %+v", result)
	}
}
