package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/testskool/backend/config"
)

// defaultSubjects is the starter catalog; override with SEED_SUBJECTS
// (comma-separated).
var defaultSubjects = []string{"Art", "Biology", "Chemistry", "History", "Math", "Music", "Physics"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	subjects := defaultSubjects
	if v := os.Getenv("SEED_SUBJECTS"); v != "" {
		subjects = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				subjects = append(subjects, name)
			}
		}
	}

	for _, name := range subjects {
		var id int64
		err := db.QueryRow(`
			INSERT INTO subjects (name)
			SELECT $1
			WHERE NOT EXISTS (SELECT 1 FROM subjects WHERE name = $1)
			RETURNING id
		`, name).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			fmt.Printf("subject exists: %s\n", name)
		case err != nil:
			log.Fatalf("failed to seed subject %q: %v", name, err)
		default:
			fmt.Printf("seeded subject: id=%d name=%s\n", id, name)
		}
	}
}
