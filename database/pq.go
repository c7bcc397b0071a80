package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/lib/pq"
	"github.com/skillforest/lms-api/config"
)

// PostgreSQLStore is the raw database/sql implementation of Storage. The GORM
// store is the default; this one exists for environments where AutoMigrate is
// not wanted and the schema is managed by hand.
type PostgreSQLStore struct {
	db *sql.DB
}

func Start() (*PostgreSQLStore, error) {
	getEnv, err := config.Get()

	if err != nil {
		return nil, err
	}

	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME, getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		fmt.Println("Unable to Start PostgresSQL Databse.")
		return nil, err
	}

	log.Println("Successfully connected to PostgresSQL Database.")
	return &PostgreSQLStore{
		db: db,
	}, nil
}

func (s *PostgreSQLStore) Init() error {
	log.Println("Initializing PostgresSQL Database.")
	return s.initTables()
}

func (s *PostgreSQLStore) initTables() error {
	users_table := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		email VARCHAR(512) UNIQUE NOT NULL,
		password_hash TEXT,
		name VARCHAR(512) NOT NULL,
		image_url VARCHAR(512),
		role VARCHAR(20) DEFAULT 'student',
		token_version INT DEFAULT 0,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	courses_table := `
	CREATE TABLE IF NOT EXISTS courses (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		educator_id BIGINT NOT NULL REFERENCES users(id),
		title VARCHAR(512) NOT NULL,
		description TEXT,
		thumbnail_url VARCHAR(512),
		price NUMERIC(12,2) NOT NULL,
		discount_percent NUMERIC(5,2) DEFAULT 0,
		is_published BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	chapters_table := `
	CREATE TABLE IF NOT EXISTS chapters (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		title VARCHAR(512) NOT NULL,
		position INT NOT NULL,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	lectures_table := `
	CREATE TABLE IF NOT EXISTS lectures (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		title VARCHAR(512) NOT NULL,
		duration_minutes INT NOT NULL,
		content_url VARCHAR(512),
		is_preview BOOLEAN DEFAULT FALSE,
		position INT NOT NULL,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	course_ratings_table := `
	CREATE TABLE IF NOT EXISTS course_ratings (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		UNIQUE(course_id, user_id)
	);
	`

	purchases_table := `
	CREATE TABLE IF NOT EXISTS purchases (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		reference VARCHAR(64) UNIQUE NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		amount NUMERIC(12,2) NOT NULL,
		currency VARCHAR(10) DEFAULT 'USD',
		status VARCHAR(20) DEFAULT 'pending',
		checkout_session_id VARCHAR(100),
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	user_courses_table := `
	CREATE TABLE IF NOT EXISTS user_courses (
		user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
		course_id BIGINT REFERENCES courses(id) ON DELETE CASCADE,
		purchase_id BIGINT,
		enrolled_at BIGINT,
		CONSTRAINT user_courses_pk PRIMARY KEY (user_id, course_id)
	);
	`

	course_progresses_table := `
	CREATE TABLE IF NOT EXISTS course_progresses (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP,
		UNIQUE(user_id, course_id)
	);
	`

	lecture_completions_table := `
	CREATE TABLE IF NOT EXISTS lecture_completions (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		progress_id BIGINT NOT NULL REFERENCES course_progresses(id) ON DELETE CASCADE,
		lecture_id BIGINT NOT NULL,
		completed_at TIMESTAMP,
		UNIQUE(progress_id, lecture_id)
	);
	`

	jwt_token_blacklist_table := `
	CREATE TABLE IF NOT EXISTS jwt_token_blacklist (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		token TEXT UNIQUE NOT NULL,
		user_id BIGINT,
		reason VARCHAR(100),
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	password_reset_tokens_table := `
	CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token VARCHAR(100) UNIQUE NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		used_at TIMESTAMP,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	cron_job_logs_table := `
	CREATE TABLE IF NOT EXISTS cron_job_logs (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		job_name VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		duration INT,
		message TEXT,
		error_msg TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		deleted_at TIMESTAMP
	);
	`

	all_tables := strings.Join([]string{
		users_table,
		courses_table,
		chapters_table,
		lectures_table,
		course_ratings_table,
		purchases_table,
		user_courses_table,
		course_progresses_table,
		lecture_completions_table,
		jwt_token_blacklist_table,
		password_reset_tokens_table,
		cron_job_logs_table,
	}, "")

	_, err := s.db.Exec(all_tables)
	return err
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgresSQL connection...")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}
