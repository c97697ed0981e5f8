package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// fakeLabelAPI serves the Users.Labels list and create endpoints backed by an
// in-memory label set.
type fakeLabelAPI struct {
	labels  []*gmail.Label
	creates int
}

func (f *fakeLabelAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(&gmail.ListLabelsResponse{Labels: f.labels})
		case http.MethodPost:
			var label gmail.Label
			if err := json.NewDecoder(r.Body).Decode(&label); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.creates++
			label.Id = fmt.Sprintf("Label_%d", len(f.labels)+1)
			f.labels = append(f.labels, &label)
			_ = json.NewEncoder(w).Encode(&label)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func newLabelTestClient(t *testing.T, fake *fakeLabelAPI) *Client {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	return &Client{svc: svc.Users}
}

func TestEnsureLabelReturnsExistingID(t *testing.T) {
	fake := &fakeLabelAPI{labels: []*gmail.Label{
		{Id: "Label_7", Name: "Finance"},
		{Id: "Label_9", Name: "Newsletter"},
	}}
	c := newLabelTestClient(t, fake)

	id, err := c.EnsureLabel(context.Background(), "Finance")
	if err != nil {
		t.Fatalf("EnsureLabel() error = %v", err)
	}
	if id != "Label_7" {
		t.Errorf("EnsureLabel() = %q, want %q", id, "Label_7")
	}
	if fake.creates != 0 {
		t.Errorf("create requests = %d, want 0", fake.creates)
	}
}

func TestEnsureLabelIdempotent(t *testing.T) {
	fake := &fakeLabelAPI{labels: []*gmail.Label{
		{Id: "Label_7", Name: "Finance"},
	}}
	c := newLabelTestClient(t, fake)

	first, err := c.EnsureLabel(context.Background(), "Finance")
	if err != nil {
		t.Fatalf("first EnsureLabel() error = %v", err)
	}
	second, err := c.EnsureLabel(context.Background(), "Finance")
	if err != nil {
		t.Fatalf("second EnsureLabel() error = %v", err)
	}

	if first != second {
		t.Errorf("EnsureLabel() ids differ: %q then %q", first, second)
	}
	if fake.creates != 0 {
		t.Errorf("create requests = %d, want 0", fake.creates)
	}
}

func TestEnsureLabelCreatesMissingLabelOnce(t *testing.T) {
	fake := &fakeLabelAPI{}
	c := newLabelTestClient(t, fake)

	first, err := c.EnsureLabel(context.Background(), "Shopping")
	if err != nil {
		t.Fatalf("first EnsureLabel() error = %v", err)
	}
	if first == "" {
		t.Fatal("EnsureLabel() returned empty id for created label")
	}

	// The second ensure must find the label created by the first and not
	// create a duplicate.
	second, err := c.EnsureLabel(context.Background(), "Shopping")
	if err != nil {
		t.Fatalf("second EnsureLabel() error = %v", err)
	}

	if first != second {
		t.Errorf("EnsureLabel() ids differ: %q then %q", first, second)
	}
	if fake.creates != 1 {
		t.Errorf("create requests = %d, want 1", fake.creates)
	}
}

func TestListLabels(t *testing.T) {
	fake := &fakeLabelAPI{labels: []*gmail.Label{
		{Id: "INBOX", Name: "INBOX"},
		{Id: "Label_3", Name: "Work"},
	}}
	c := newLabelTestClient(t, fake)

	labels, err := c.ListLabels(context.Background())
	if err != nil {
		t.Fatalf("ListLabels() error = %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("ListLabels() returned %d labels, want 2", len(labels))
	}
	if labels[1].ID != "Label_3" || labels[1].Name != "Work" {
		t.Errorf("ListLabels()[1] = %+v, want {Label_3 Work}", labels[1])
	}
}
