package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePAI serves the users and jobs endpoints. failUser makes the password
// update of that user fail.
type fakePAI struct {
	failUser  string
	updated   []string
	submitted []string
}

func (f *fakePAI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v2/users":
			io.WriteString(w, `[{"username":"A"},{"username":"B","admin":true},{"username":"C"}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v2/users":
			var body struct {
				Username string `json:"username"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.updated = append(f.updated, body.Username)
			if body.Username == f.failUser {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"code":"InvalidParametersError","message":"cannot update `+body.Username+`"}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v2/jobs":
			data, _ := io.ReadAll(r.Body)
			f.submitted = append(f.submitted, string(data))
			w.WriteHeader(http.StatusAccepted)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v2/authn/basic/login":
			io.WriteString(w, `{"token":"fresh-token"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// runCLI runs the root command against srv with a throwaway config and
// session file
func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	configFile := writeConfig(t, "session_file: "+filepath.Join(dir, "session.json")+"\nlog_file: \"\"\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", configFile, "--rest-server-uri", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_PasswdStopsAtFailure(t *testing.T) {
	pai := &fakePAI{failUser: "B"}
	srv := httptest.NewServer(pai.handler(t))
	defer srv.Close()

	out, err := runCLI(t, srv, "--token", "tok", "users", "passwd", "--password", "secret1", "A", "B", "C")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot update B")
	assert.Equal(t, []string{"A", "B"}, pai.updated)
	assert.Contains(t, out, "Updated 1 of 3 user(s)")
}

func TestCLI_PasswdSuccess(t *testing.T) {
	pai := &fakePAI{}
	srv := httptest.NewServer(pai.handler(t))
	defer srv.Close()

	out, err := runCLI(t, srv, "--token", "tok", "users", "passwd", "-p", "secret1", "C", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, pai.updated)
	assert.Contains(t, out, "Update passwords successfully")
}

func TestCLI_PasswdChecksPasswordFirst(t *testing.T) {
	pai := &fakePAI{}
	srv := httptest.NewServer(pai.handler(t))
	defer srv.Close()

	_, err := runCLI(t, srv, "--token", "tok", "users", "passwd", "-p", "abc", "A")
	require.Error(t, err)
	assert.Empty(t, pai.updated)
}

func TestCLI_SubmitFile(t *testing.T) {
	pai := &fakePAI{}
	srv := httptest.NewServer(pai.handler(t))
	defer srv.Close()

	p, err := BuildProtocol(JobInformation{Name: "from-file"}, []JobTaskRole{testRole("worker")})
	require.NoError(t, err)
	data, err := p.Encode()
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(file, data, 0o600))

	out, err := runCLI(t, srv, "--token", "tok", "submit", "--file", file, "--yes")
	require.NoError(t, err)
	require.Len(t, pai.submitted, 1)
	assert.Contains(t, pai.submitted[0], "name: from-file")
	assert.Contains(t, out, "Job from-file has been submitted")
}

func TestCLI_NeedsLogin(t *testing.T) {
	pai := &fakePAI{}
	srv := httptest.NewServer(pai.handler(t))
	defer srv.Close()

	_, err := runCLI(t, srv, "users", "passwd", "-p", "secret1", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestPickUsers(t *testing.T) {
	all := usersNamed("A", "B", "C")
	users, err := pickUsers(all, []string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, usersNamed("C", "A"), users)

	_, err = pickUsers(all, []string{"D"})
	assert.Error(t, err)
}
