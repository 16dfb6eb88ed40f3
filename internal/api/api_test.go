package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zkrizaj/hramba/internal/db"
	"github.com/zkrizaj/hramba/internal/model"
	"github.com/zkrizaj/hramba/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, Options{ReviewThreshold: model.ReviewWindow})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Set the owner password.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.SetPasswordHash(ctx, database, string(hash))

	// Get token.
	body, _ := json.Marshal(map[string]string{"password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Wrong password.
	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing password.
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", strings.NewReader(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimit(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, Options{LoginRate: 0.01, LoginBurst: 2})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	body, _ := json.Marshal(map[string]string{"password": "nope"})
	for i := 0; i < 2; i++ {
		resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the login budget is spent, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, Options{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with a revoked token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLocationsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// Create a location and a child under it.
	req, _ := authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": "Garage"})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var garage model.Location
	json.NewDecoder(resp.Body).Decode(&garage)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/locations", token, map[string]string{
		"name":      "Shelf",
		"parent_id": garage.ID,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for child, got %d", resp.StatusCode)
	}
	var shelf model.Location
	json.NewDecoder(resp.Body).Decode(&shelf)
	resp.Body.Close()

	// List.
	req, _ = authRequest("GET", server.URL+"/api/locations", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var locations []model.Location
	json.NewDecoder(resp.Body).Decode(&locations)
	resp.Body.Close()
	if len(locations) != 2 {
		t.Errorf("expected 2 locations, got %d", len(locations))
	}

	// Only the garage is a root.
	req, _ = authRequest("GET", server.URL+"/api/locations?roots=true", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var roots []model.Location
	json.NewDecoder(resp.Body).Decode(&roots)
	resp.Body.Close()
	if len(roots) != 1 || roots[0].ID != garage.ID {
		t.Errorf("expected the garage as only root, got %+v", roots)
	}

	// Children.
	req, _ = authRequest("GET", server.URL+"/api/locations/"+garage.ID+"/children", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var children []model.Location
	json.NewDecoder(resp.Body).Decode(&children)
	resp.Body.Close()
	if len(children) != 1 || children[0].ID != shelf.ID {
		t.Errorf("expected the shelf as only child, got %+v", children)
	}

	// Review.
	req, _ = authRequest("PUT", server.URL+"/api/locations/"+garage.ID+"/review", token, map[string]bool{"reviewed": true})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reviewing, got %d", resp.StatusCode)
	}
	var reviewed model.Location
	json.NewDecoder(resp.Body).Decode(&reviewed)
	resp.Body.Close()
	if !reviewed.IsReviewed {
		t.Error("expected location to be reviewed")
	}

	// A blank name is rejected.
	req, _ = authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": ""})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting the parent cascades.
	req, _ = authRequest("DELETE", server.URL+"/api/locations/"+garage.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting, got %d", resp.StatusCode)
	}
	var result store.CascadeResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if len(result.LocationIDs) != 2 {
		t.Errorf("expected cascade to remove 2 locations, got %v", result.LocationIDs)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": "Attic"})
	resp, _ := http.DefaultClient.Do(req)
	var attic model.Location
	json.NewDecoder(resp.Body).Decode(&attic)
	resp.Body.Close()

	// Create item.
	req, _ = authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"name":        "Lamp",
		"description": "Reading lamp, needs a bulb",
		"location_id": attic.ID,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var lamp model.Item
	json.NewDecoder(resp.Body).Decode(&lamp)
	resp.Body.Close()

	// Tag it.
	req, _ = authRequest("POST", server.URL+"/api/tags", token, map[string]string{"name": "fragile", "color": "#cc0000"})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating tag, got %d", resp.StatusCode)
	}
	var fragile model.Tag
	json.NewDecoder(resp.Body).Decode(&fragile)
	resp.Body.Close()

	req, _ = authRequest("PUT", server.URL+"/api/items/"+lamp.ID+"/tags", token, map[string][]string{"tag_ids": {fragile.ID}})
	resp, _ = http.DefaultClient.Do(req)
	var tagged model.Item
	json.NewDecoder(resp.Body).Decode(&tagged)
	resp.Body.Close()
	if len(tagged.Tags) != 1 || tagged.Tags[0].Name != "fragile" {
		t.Errorf("expected the fragile tag, got %+v", tagged.Tags)
	}

	// Plan it.
	req, _ = authRequest("PUT", server.URL+"/api/items/"+lamp.ID+"/plan", token, map[string]string{
		"plan":             "move",
		"move_destination": "Basement",
	})
	resp, _ = http.DefaultClient.Do(req)
	var planned model.Item
	json.NewDecoder(resp.Body).Decode(&planned)
	resp.Body.Close()
	if planned.Plan != model.PlanMove || planned.MoveDestination != "Basement" {
		t.Errorf("expected move plan to Basement, got %q %q", planned.Plan, planned.MoveDestination)
	}

	// Filter by plan.
	req, _ = authRequest("GET", server.URL+"/api/items?plan=move", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var moving []model.Item
	json.NewDecoder(resp.Body).Decode(&moving)
	resp.Body.Close()
	if len(moving) != 1 {
		t.Errorf("expected 1 item planned for moving, got %d", len(moving))
	}

	// An unknown plan is rejected.
	req, _ = authRequest("PUT", server.URL+"/api/items/"+lamp.ID+"/plan", token, map[string]string{"plan": "donate"})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown plan, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBooksAPI(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]string{
		"title":  "Dune",
		"author": "Frank Herbert",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var dune model.Item
	json.NewDecoder(resp.Body).Decode(&dune)
	resp.Body.Close()
	if dune.Name != "Dune by Frank Herbert" {
		t.Errorf("expected derived name, got %q", dune.Name)
	}

	// Grouped listing.
	req, _ = authRequest("GET", server.URL+"/api/books?group=author", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var groups []store.BookGroup
	json.NewDecoder(resp.Body).Decode(&groups)
	resp.Body.Close()
	if len(groups) != 1 || groups[0].Key != "Frank Herbert" {
		t.Errorf("expected one author group, got %+v", groups)
	}

	// Retitle rebuilds the name.
	req, _ = authRequest("PUT", server.URL+"/api/books/"+dune.ID, token, map[string]string{
		"title":  "Dune Messiah",
		"author": "Frank Herbert",
	})
	resp, _ = http.DefaultClient.Do(req)
	var updated model.Item
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated.Name != "Dune Messiah by Frank Herbert" {
		t.Errorf("expected rebuilt name, got %q", updated.Name)
	}

	// Books need an author.
	req, _ = authRequest("POST", server.URL+"/api/books", token, map[string]string{"title": "Beowulf"})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a book without an author, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// An unknown grouping is rejected.
	req, _ = authRequest("GET", server.URL+"/api/books?group=publisher", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown grouping, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMovesAPI(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": "Cellar"})
	resp, _ := http.DefaultClient.Do(req)
	var cellar model.Location
	json.NewDecoder(resp.Body).Decode(&cellar)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": "Attic"})
	resp, _ = http.DefaultClient.Do(req)
	var attic model.Location
	json.NewDecoder(resp.Body).Decode(&attic)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/items", token, map[string]string{"name": "Skis", "location_id": cellar.ID})
	resp, _ = http.DefaultClient.Do(req)
	var skis model.Item
	json.NewDecoder(resp.Body).Decode(&skis)
	resp.Body.Close()

	// Preview, then move.
	moveReq := store.MoveRequest{ItemIDs: []string{skis.ID}, DestinationID: attic.ID}
	req, _ = authRequest("POST", server.URL+"/api/moves/preview", token, moveReq)
	resp, _ = http.DefaultClient.Do(req)
	var checks []store.MoveCheck
	json.NewDecoder(resp.Body).Decode(&checks)
	resp.Body.Close()
	if len(checks) != 1 || !checks[0].OK {
		t.Fatalf("expected a passing preview, got %+v", checks)
	}

	req, _ = authRequest("POST", server.URL+"/api/moves", token, moveReq)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 moving, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items?location="+attic.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].ID != skis.ID {
		t.Errorf("expected the skis in the attic, got %+v", items)
	}

	// A missing destination fails the whole request.
	req, _ = authRequest("POST", server.URL+"/api/moves", token, store.MoveRequest{
		ItemIDs:       []string{skis.ID},
		DestinationID: "missing",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown destination, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemPhotoAPI(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{"name": "Lamp"})
	resp, _ := http.DefaultClient.Do(req)
	var lamp model.Item
	json.NewDecoder(resp.Body).Decode(&lamp)
	resp.Body.Close()

	// Upload a small JPEG.
	var img bytes.Buffer
	jpeg.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 30)), nil)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, _ := mw.CreateFormFile("photo", "lamp.jpg")
	part.Write(img.Bytes())
	mw.Close()

	upload, _ := http.NewRequest("PUT", server.URL+"/api/items/"+lamp.ID+"/photo", &form)
	upload.Header.Set("Authorization", "Bearer "+token)
	upload.Header.Set("Content-Type", mw.FormDataContentType())
	resp, _ = http.DefaultClient.Do(upload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 uploading photo, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Fetch it back.
	req, _ = authRequest("GET", server.URL+"/api/items/"+lamp.ID+"/photo", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 fetching photo, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(data) == 0 {
		t.Error("expected photo bytes")
	}

	// Remove it again.
	req, _ = authRequest("DELETE", server.URL+"/api/items/"+lamp.ID+"/photo", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items/"+lamp.ID+"/photo", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after removing photo, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReviewSweepAPI(t *testing.T) {
	server, database, token := setupTestServer(t)

	ctx := context.Background()
	garage, _ := store.CreateLocation(ctx, database, "Garage", "")
	store.SetReviewed(ctx, database, garage.ID, true)

	// Age the review past the window.
	old := time.Now().UTC().Add(-2 * model.ReviewWindow)
	database.Exec(`UPDATE locations SET last_reviewed_at = ? WHERE id = ?`, old, garage.ID)

	req, _ := authRequest("POST", server.URL+"/api/review/sweep", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from sweep, got %d", resp.StatusCode)
	}
	var swept []model.Location
	json.NewDecoder(resp.Body).Decode(&swept)
	resp.Body.Close()
	if len(swept) != 1 || swept[0].ID != garage.ID {
		t.Fatalf("expected the stale location to be swept, got %+v", swept)
	}

	// The automatic unreview shows up in the ledger.
	req, _ = authRequest("GET", server.URL+"/api/review/log?location="+garage.ID, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var entries []model.ReviewEntry
	json.NewDecoder(resp.Body).Decode(&entries)
	resp.Body.Close()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if !entries[0].Automatic || entries[0].Action != model.ReviewActionUnreviewed {
		t.Errorf("expected an automatic unreview entry first, got %+v", entries[0])
	}
}

func TestBackupAPI(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/locations", token, map[string]string{"name": "Study"})
	resp, _ := http.DefaultClient.Do(req)
	var study model.Location
	json.NewDecoder(resp.Body).Decode(&study)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/items", token, map[string]string{"name": "Globe", "location_id": study.ID})
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()

	// Export.
	req, _ = authRequest("GET", server.URL+"/api/backup/export", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from export, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected an attachment, got %q", cd)
	}
	snapshot, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Import it right back.
	importReq, _ := http.NewRequest("POST", server.URL+"/api/backup/import", bytes.NewReader(snapshot))
	importReq.Header.Set("Authorization", "Bearer "+token)
	importReq.Header.Set("Content-Type", "application/json")
	resp, _ = http.DefaultClient.Do(importReq)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from import, got %d", resp.StatusCode)
	}
	var stats map[string]int
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats["locations"] != 1 || stats["items"] != 1 {
		t.Errorf("expected 1 location and 1 item imported, got %v", stats)
	}

	// Garbage is rejected and nothing is lost.
	badReq, _ := http.NewRequest("POST", server.URL+"/api/backup/import", strings.NewReader(`{"version":`))
	badReq.Header.Set("Authorization", "Bearer "+token)
	badReq.Header.Set("Content-Type", "application/json")
	resp, _ = http.DefaultClient.Do(badReq)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a corrupt snapshot, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/locations", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var locations []model.Location
	json.NewDecoder(resp.Body).Decode(&locations)
	resp.Body.Close()
	if len(locations) != 1 {
		t.Errorf("expected the study to survive the bad import, got %d locations", len(locations))
	}
}
