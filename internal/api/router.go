package api

import (
	"database/sql"
	"net/http"
	"time"
)

// Options tunes router behaviour that is decided at startup. The zero
// value is usable: sweeping stays disabled until a threshold is set,
// and login rate limiting falls back to a sane budget.
type Options struct {
	// ReviewThreshold is the age at which reviewed marks expire.
	// Zero or negative disables the sweep endpoint.
	ReviewThreshold time.Duration

	// LoginRate and LoginBurst bound login attempts per remote
	// address.
	LoginRate  float64
	LoginBurst int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.LoginRate <= 0 {
		opts.LoginRate = 1
	}
	if opts.LoginBurst < 1 {
		opts.LoginBurst = 5
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		Limiter:   newRateLimiter(opts.LoginRate, opts.LoginBurst),
	}
	locationsHandler := &LocationsHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	booksHandler := &BooksHandler{DB: db}
	tagsHandler := &TagsHandler{DB: db}
	movesHandler := &MovesHandler{DB: db}
	reviewHandler := &ReviewHandler{DB: db, Threshold: opts.ReviewThreshold}
	backupHandler := &BackupHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Locations.
	mux.Handle("GET /api/locations", authMW(http.HandlerFunc(locationsHandler.List)))
	mux.Handle("POST /api/locations", authMW(http.HandlerFunc(locationsHandler.Create)))
	mux.Handle("GET /api/locations/{id}", authMW(http.HandlerFunc(locationsHandler.Get)))
	mux.Handle("PUT /api/locations/{id}", authMW(http.HandlerFunc(locationsHandler.Rename)))
	mux.Handle("DELETE /api/locations/{id}", authMW(http.HandlerFunc(locationsHandler.Delete)))
	mux.Handle("GET /api/locations/{id}/children", authMW(http.HandlerFunc(locationsHandler.Children)))
	mux.Handle("GET /api/locations/{id}/items", authMW(http.HandlerFunc(locationsHandler.Items)))
	mux.Handle("PUT /api/locations/{id}/review", authMW(http.HandlerFunc(locationsHandler.Review)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/by-plan", authMW(http.HandlerFunc(itemsHandler.ByPlan)))
	mux.Handle("GET /api/items/similar", authMW(http.HandlerFunc(itemsHandler.Similar)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/plan", authMW(http.HandlerFunc(itemsHandler.SetPlan)))
	mux.Handle("PUT /api/items/{id}/tags", authMW(http.HandlerFunc(itemsHandler.SetTags)))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.Photo)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("DELETE /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.DeletePhoto)))

	// Books.
	mux.Handle("GET /api/books", authMW(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /api/books", authMW(http.HandlerFunc(booksHandler.Create)))
	mux.Handle("PUT /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Update)))

	// Moves.
	mux.Handle("POST /api/moves", authMW(http.HandlerFunc(movesHandler.Move)))
	mux.Handle("POST /api/moves/preview", authMW(http.HandlerFunc(movesHandler.Preview)))

	// Tags.
	mux.Handle("GET /api/tags", authMW(http.HandlerFunc(tagsHandler.List)))
	mux.Handle("POST /api/tags", authMW(http.HandlerFunc(tagsHandler.Create)))
	mux.Handle("GET /api/tags/{id}", authMW(http.HandlerFunc(tagsHandler.Get)))
	mux.Handle("PUT /api/tags/{id}", authMW(http.HandlerFunc(tagsHandler.Update)))
	mux.Handle("DELETE /api/tags/{id}", authMW(http.HandlerFunc(tagsHandler.Delete)))

	// Review ledger.
	mux.Handle("GET /api/review/log", authMW(http.HandlerFunc(reviewHandler.Log)))
	mux.Handle("POST /api/review/sweep", authMW(http.HandlerFunc(reviewHandler.Sweep)))

	// Backup.
	mux.Handle("GET /api/backup/export", authMW(http.HandlerFunc(backupHandler.Export)))
	mux.Handle("POST /api/backup/import", authMW(http.HandlerFunc(backupHandler.Import)))

	return mux
}
