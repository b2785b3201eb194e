// samsonix-api is a local stand-in for the external catalog backend. It
// serves the same REST surface the storefront consumes, seeded with demo
// data, so the app can be developed and tested without the real service.
package main

import (
	"log"
	"os"
	"time"

	"samsonix/internal/stub"
)

func main() {
	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = ":5225"
	}
	dsn := os.Getenv("STUB_DB")
	if dsn == "" {
		dsn = "samsonix-api.db"
	}
	mediaDir := os.Getenv("STUB_MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = "./web/media"
	}

	store, err := stub.OpenStore(dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	srv := stub.NewServer(store, stub.Options{
		Secret:   os.Getenv("STUB_JWT_SECRET"),
		TokenTTL: 8 * time.Hour,
		MediaDir: mediaDir,
	})
	log.Printf("[stub] catalog api listening on %s (admin@samsonix.test / Passw0rd!)", addr)
	log.Fatal(srv.App().Listen(addr))
}
