// Package hub 提供 Hub 客户端单元测试
package hub

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ashwinyue/bookqa/internal/retry"
	"github.com/ashwinyue/bookqa/internal/testutil"
)

func testClient(ts *httptest.Server) *Client {
	return NewClient(ts.URL, "hf_test_token", retry.ZeroDelay(3))
}

// ========== EnsureRepo 测试 ==========

func TestEnsureRepo_Created(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/repos/create" {
			t.Errorf("path = %s, want /api/repos/create", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := testClient(ts).EnsureRepo(context.Background(), "user/dataset"); err != nil {
		t.Fatalf("EnsureRepo failed: %v", err)
	}
	if gotAuth != "Bearer hf_test_token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["type"] != "dataset" || gotBody["name"] != "dataset" || gotBody["organization"] != "user" {
		t.Errorf("create payload = %v", gotBody)
	}
}

func TestEnsureRepo_AlreadyExists(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	if err := testClient(ts).EnsureRepo(context.Background(), "user/dataset"); err != nil {
		t.Errorf("EnsureRepo on existing repo should succeed, got %v", err)
	}
}

func TestEnsureRepo_AuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	err := testClient(ts).EnsureRepo(context.Background(), "user/dataset")
	if !errors.Is(err, ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on auth failure)", calls.Load())
	}
}

func TestEnsureRepo_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := testClient(ts).EnsureRepo(context.Background(), "user/dataset"); err != nil {
		t.Fatalf("EnsureRepo should recover after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server hit %d times, want 3", calls.Load())
	}
}

func TestEnsureRepo_MissingToken(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	c := NewClient("http://127.0.0.1:1", "", retry.ZeroDelay(1))
	err := c.EnsureRepo(context.Background(), "user/dataset")
	if !errors.Is(err, ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	assert.ErrorContains(err, "missing token")
}

func TestEnsureRepo_InvalidRepoID(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	assert := testutil.NewAssertHelper(t)
	c := testClient(ts)
	for _, id := range []string{"", "noslash", "a/b/c", "/name", "ns/"} {
		assert.Error(c.EnsureRepo(context.Background(), id), id)
	}
}

// ========== UploadFile 测试 ==========

func TestUploadFile(t *testing.T) {
	content := "line one\nline two\n"
	path := filepath.Join(t.TempDir(), "qa_dataset.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var gotPath, gotContent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/datasets/user/dataset/commit/main" {
			t.Errorf("path = %s", r.URL.Path)
		}
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var line commitLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				t.Fatalf("invalid NDJSON line: %v", err)
			}
			if line.Key != "file" {
				continue
			}
			fields := line.Value.(map[string]any)
			gotPath = fields["path"].(string)
			decoded, err := base64.StdEncoding.DecodeString(fields["content"].(string))
			if err != nil {
				t.Fatalf("content is not base64: %v", err)
			}
			gotContent = string(decoded)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := testClient(ts).UploadFile(context.Background(), "user/dataset", path, "qa_dataset.jsonl"); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if gotPath != "qa_dataset.jsonl" {
		t.Errorf("remote path = %q", gotPath)
	}
	if gotContent != content {
		t.Errorf("uploaded content = %q, want original file content", gotContent)
	}
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	err := testClient(ts).UploadFile(context.Background(), "user/dataset",
		filepath.Join(t.TempDir(), "nope.csv"), "nope.csv")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadFile_ClientErrorNotRetried(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.csv")
	if err := os.WriteFile(path, []byte("q,a\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	err := testClient(ts).UploadFile(context.Background(), "user/dataset", path, "qa.csv")
	if !errors.Is(err, ErrUpload) {
		t.Errorf("err = %v, want ErrUpload", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on 4xx)", calls.Load())
	}
}

// ========== Publish 测试 ==========

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"qa_dataset.jsonl", "qa_dataset.csv"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		files = append(files, p)
	}

	var created atomic.Int32
	var uploaded []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/repos/create" {
			created.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var line commitLine
			json.Unmarshal(scanner.Bytes(), &line)
			if line.Key == "file" {
				uploaded = append(uploaded, line.Value.(map[string]any)["path"].(string))
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ds := testutil.SampleDataset("test", 0)
	if err := testClient(ts).Publish(context.Background(), "user/dataset", ds, files); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if created.Load() != 1 {
		t.Errorf("repo created %d times, want 1", created.Load())
	}
	want := []string{"qa_dataset.jsonl", "qa_dataset.csv", "README.md"}
	if len(uploaded) != len(want) {
		t.Fatalf("uploaded %v, want %v", uploaded, want)
	}
	for i, w := range want {
		if uploaded[i] != w {
			t.Errorf("uploaded[%d] = %q, want %q", i, uploaded[i], w)
		}
	}
}

// ========== 数据集卡片测试 ==========

func TestBuildCard(t *testing.T) {
	ds := testutil.SampleDataset("my-qa-set", 0)
	card := BuildCard(ds, []string{"/out/qa_dataset.jsonl", "/out/qa_dataset.csv"})

	if !strings.Contains(card, "# my-qa-set") {
		t.Error("card should include the dataset name heading")
	}
	if !strings.Contains(card, "3 question-answer pairs") {
		t.Error("card should include the pair count")
	}
	if !strings.Contains(card, "geography.txt") {
		t.Error("card should list sources")
	}
	if !strings.Contains(card, "`qa_dataset.csv`") {
		t.Error("card should list artifact file names")
	}
}
