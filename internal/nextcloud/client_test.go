package nextcloud

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func ocsBody(status string, statuscode int, message, data string) string {
	if data == "" {
		data = "[]"
	}
	return fmt.Sprintf(`{"ocs":{"meta":{"status":%q,"statuscode":%d,"message":%q},"data":%s}}`,
		status, statuscode, message, data)
}

func okBody(data string) string {
	return ocsBody("ok", 100, "OK", data)
}

func TestCreateUser_SendsProvisioningRequest(t *testing.T) {
	var gotPath, gotAuthUser, gotAuthPass string
	var gotForm map[string][]string
	var gotOCSHeader, gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		gotOCSHeader = r.Header.Get("OCS-APIRequest")
		gotAccept = r.Header.Get("Accept")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm

		fmt.Fprint(w, okBody(""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	err := client.CreateUser(context.Background(), "jane", "Jane Doe", "jane@wechange.de", []string{"forum", "vorstand"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/ocs/v1.php/cloud/users" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuthUser != "admin" || gotAuthPass != "secret" {
		t.Errorf("basic auth = %q:%q", gotAuthUser, gotAuthPass)
	}
	if gotOCSHeader != "true" {
		t.Errorf("OCS-APIRequest header = %q", gotOCSHeader)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept header = %q", gotAccept)
	}

	if got := gotForm["userid"]; len(got) != 1 || got[0] != "jane" {
		t.Errorf("userid = %v", got)
	}
	if got := gotForm["displayName"]; len(got) != 1 || got[0] != "Jane Doe" {
		t.Errorf("displayName = %v", got)
	}
	if got := gotForm["email"]; len(got) != 1 || got[0] != "jane@wechange.de" {
		t.Errorf("email = %v", got)
	}
	if got := gotForm["groups[]"]; len(got) != 2 || got[0] != "forum" || got[1] != "vorstand" {
		t.Errorf("groups[] = %v", got)
	}
	if got := gotForm["password"]; len(got) != 1 || len(got[0]) != passwordLength {
		t.Errorf("password should be %d random chars, got %v", passwordLength, got)
	}
}

func TestCreateUser_AlreadyExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ocsBody("failure", StatusAlreadyExists, "User already exists", ""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	err := client.CreateUser(context.Background(), "jane", "Jane", "jane@wechange.de", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAlreadyExists(err) {
		t.Errorf("expected already-exists error, got %v", err)
	}
}

func TestDo_OCSErrorFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ocsBody("failure", 997, "Current user is not logged in", ""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "wrong")
	err := client.CreateGroup(context.Background(), "forum")
	if err == nil {
		t.Fatal("expected error")
	}

	ocsErr, ok := err.(*OCSError)
	if !ok {
		t.Fatalf("expected *OCSError, got %T", err)
	}
	if ocsErr.StatusCode != 997 {
		t.Errorf("StatusCode = %d", ocsErr.StatusCode)
	}
	if !strings.Contains(ocsErr.Message, "not logged in") {
		t.Errorf("Message = %q", ocsErr.Message)
	}
	if IsAlreadyExists(err) {
		t.Error("997 must not count as already-exists")
	}
}

func TestDo_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	err := client.CreateGroup(context.Background(), "forum")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should mention HTTP status: %v", err)
	}
}

func TestListUserIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/ocs/v1.php/cloud/users" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, okBody(`{"users":["admin","jane","tom"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	users, err := client.ListUserIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(users) != 3 || users[1] != "jane" {
		t.Errorf("users = %v", users)
	}
}

func TestGroupMembers(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		fmt.Fprint(w, okBody(`{"users":["admin","jane"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	members, err := client.GroupMembers(context.Background(), "projekt garten")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/ocs/v1.php/cloud/groups/projekt%20garten" {
		t.Errorf("path = %q", gotPath)
	}
	if len(members) != 2 || members[1] != "jane" {
		t.Errorf("members = %v", members)
	}
}

func TestDeleteUser_PathEscaped(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		fmt.Fprint(w, okBody(""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	if err := client.DeleteUser(context.Background(), "jane doe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/ocs/v1.php/cloud/users/jane%20doe" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestAddUserToGroup(t *testing.T) {
	var gotPath, gotGroup string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotGroup = r.PostForm.Get("groupid")
		fmt.Fprint(w, okBody(""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	if err := client.AddUserToGroup(context.Background(), "jane", "forum"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/ocs/v1.php/cloud/users/jane/groups" {
		t.Errorf("path = %q", gotPath)
	}
	if gotGroup != "forum" {
		t.Errorf("groupid = %q", gotGroup)
	}
}

func TestCreateGroupFolder_ReturnsID(t *testing.T) {
	var gotPath, gotMountpoint string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotMountpoint = r.PostForm.Get("mountpoint")
		fmt.Fprint(w, okBody(`{"id":7}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	id, err := client.CreateGroupFolder(context.Background(), "Projektgruppe Garten")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/index.php/apps/groupfolders/folders" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMountpoint != "Projektgruppe Garten" {
		t.Errorf("mountpoint = %q", gotMountpoint)
	}
	if id != 7 {
		t.Errorf("id = %d", id)
	}
}

func TestAddGroupToFolder(t *testing.T) {
	var gotPath, gotGroup string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotGroup = r.PostForm.Get("group")
		fmt.Fprint(w, okBody(""))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")
	if err := client.AddGroupToFolder(context.Background(), 7, "forum"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/index.php/apps/groupfolders/folders/7/groups" {
		t.Errorf("path = %q", gotPath)
	}
	if gotGroup != "forum" {
		t.Errorf("group = %q", gotGroup)
	}
}

func TestFolderLink(t *testing.T) {
	client := NewClient("https://cloud.wechange.de/", "admin", "secret")

	tests := []struct {
		folder   string
		expected string
	}{
		{"Garten", "https://cloud.wechange.de/apps/files/?dir=/Garten"},
		{"Projektgruppe Garten", "https://cloud.wechange.de/apps/files/?dir=/Projektgruppe%20Garten"},
	}

	for _, tt := range tests {
		if got := client.FolderLink(tt.folder); got != tt.expected {
			t.Errorf("FolderLink(%q) = %q, want %q", tt.folder, got, tt.expected)
		}
	}
}

func TestIsAlreadyExists_OtherErrors(t *testing.T) {
	if IsAlreadyExists(nil) {
		t.Error("nil is not already-exists")
	}
	if IsAlreadyExists(fmt.Errorf("plain error")) {
		t.Error("plain errors are not already-exists")
	}
	if !IsAlreadyExists(&OCSError{StatusCode: 102, Message: "exists"}) {
		t.Error("statuscode 102 must be already-exists")
	}
}

func TestRandomPassword(t *testing.T) {
	first, err := randomPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != passwordLength {
		t.Errorf("length = %d, want %d", len(first), passwordLength)
	}
	for _, c := range first {
		if !strings.ContainsRune(passwordChars, c) {
			t.Errorf("unexpected character %q", c)
		}
	}

	second, err := randomPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Error("two generated passwords must differ")
	}
}
