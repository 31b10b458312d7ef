package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/painelbi/painel/authz"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo company, profiles and admin user after migrating")
	schemaPath := flag.String("schema", "migrations/schema.sql", "path to the schema file")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	content, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to read schema file: %v", err)
	}

	log.Println("Running migration...")
	if _, err := db.Exec(string(content)); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := seedCapabilities(db); err != nil {
		log.Fatalf("Seeding capability catalog failed: %v", err)
	}

	if *seed {
		if err := seedDemo(db); err != nil {
			log.Fatalf("Seeding demo data failed: %v", err)
		}
		log.Println("Demo data seeded (admin@demo.com / admin123)")
	}

	log.Println("Migration applied successfully!")
}

// seedCapabilities upserts the fixed capability catalog so grant rows
// always have a permission to reference.
func seedCapabilities(db *sql.DB) error {
	for _, info := range authz.Capabilities() {
		_, err := db.Exec(`
			INSERT INTO permissions (name, description, category)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET description = $2, category = $3`,
			info.Name, info.Description, info.Category)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedDemo(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var companyID string
	err = tx.QueryRow(`SELECT id FROM companies WHERE slug = 'demo'`).Scan(&companyID)
	if err == sql.ErrNoRows {
		companyID = uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO companies (id, name, slug, is_active)
			VALUES ($1, 'Demo Empresa', 'demo', true)`, companyID)
	}
	if err != nil {
		return err
	}

	adminProfileID, err := ensureProfile(tx, companyID, "Administrador", "Acesso completo ao sistema")
	if err != nil {
		return err
	}
	viewerProfileID, err := ensureProfile(tx, companyID, "Visualizador", "Visualizacao de dashboards")
	if err != nil {
		return err
	}

	// Administrador gets every capability, Visualizador only dashboard
	// viewing. All demo grants are general (no dashboard scoping).
	_, err = tx.Exec(`
		INSERT INTO profile_permissions (profile_id, permission_id)
		SELECT $1, id FROM permissions
		ON CONFLICT DO NOTHING`, adminProfileID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO profile_permissions (profile_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = $2
		ON CONFLICT DO NOTHING`, viewerProfileID, authz.CapViewDashboard)
	if err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE email = 'admin@demo.com')`).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO users (id, email, name, password, company_id, profile_id, is_active)
			VALUES ($1, 'admin@demo.com', 'Administrador Demo', $2, $3, $4, true)`,
			uuid.New().String(), string(hash), companyID, adminProfileID)
		if err != nil {
			return err
		}
	}

	err = tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM dashboards WHERE name = 'Dashboard Vendas' AND company_id = $1)`, companyID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		_, err = tx.Exec(`
			INSERT INTO dashboards (id, name, description, powerbi_url, company_id, is_active)
			VALUES ($1, 'Dashboard Vendas', 'Indicadores de vendas', 'https://app.powerbi.com/view?r=demo', $2, true)`,
			uuid.New().String(), companyID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func ensureProfile(tx *sql.Tx, companyID, name, description string) (string, error) {
	var id string
	err := tx.QueryRow(`SELECT id FROM profiles WHERE company_id = $1 AND name = $2`, companyID, name).Scan(&id)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO profiles (id, name, description, company_id, is_active)
			VALUES ($1, $2, $3, $4, true)`, id, name, description, companyID)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
