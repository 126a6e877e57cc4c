package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/internal/videosearch"
)

// TestIntegration_AnalyzeAndRecall runs a session against fake backend and video
// services with real SQLite and Bleve history, then finds it again by keyword.
func TestIntegration_AnalyzeAndRecall(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			_ = json.NewEncoder(w).Encode(models.AnalysisResult{
				Summary:  "Chlorophyll captures light to make glucose.",
				FullText: "Photosynthesis in plants ...",
			})
		case "/result":
			_ = json.NewEncoder(w).Encode(models.QAResult{
				Questions: []string{"What captures light?"},
				Answers:   []string{"Chlorophyll."},
				Keywords:  []string{"photosynthesis", "chlorophyll"},
			})
		case "/search":
			gotKey, gotQuery = r.URL.Query().Get("key"), r.URL.Query().Get("q")
			_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"v1"},"snippet":{"title":"Light reactions","channelTitle":"Bio"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := newTestComponents(t, srv.URL)
	c.Config.Storage.Enabled = true
	c.Config.Storage.DatabasePath = filepath.Join(dir, "history.db")
	c.Config.Storage.BleveIndexPath = filepath.Join(dir, "indices", "history")
	rec, err := openHistory(c.Config, c.Logger)
	if err != nil {
		t.Fatal(err)
	}
	c.History = rec
	defer c.Close()
	c.Videos = videosearch.NewClient(srv.URL, "secret-key", 0)

	ctx := context.Background()
	app := c.newApp()
	app.SelectFile(models.UploadSelection{FileName: "plants.txt", Content: []byte("Photosynthesis in plants"), SummaryType: models.SummaryLong})
	out, err := app.SubmitUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Err(); err != nil {
		t.Fatalf("outcome error: %v", err)
	}
	if gotKey != "secret-key" || gotQuery != "photosynthesis chlorophyll" {
		t.Errorf("video search key=%q q=%q", gotKey, gotQuery)
	}
	if n := len(app.State().Videos); n != 1 {
		t.Errorf("videos = %d, want 1", n)
	}

	res, err := c.History.Search(ctx, "chlorophyll", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 || res.Records[0].FileName != "plants.txt" {
		t.Fatalf("history search = %+v", res.Records)
	}
	if res.Records[0].SummaryType != models.SummaryLong || res.Records[0].VideoCount != 1 {
		t.Errorf("record = %+v", res.Records[0])
	}

	st, err := c.status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.History == nil || st.History.Records != 1 || !st.VideoSearch {
		t.Errorf("status = %+v", st)
	}
}
