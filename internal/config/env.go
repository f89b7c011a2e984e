package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the secrets loaded from the process environment. A .env
// file in the working directory is read first when present; real
// environment variables win over it.
type Env struct {
	DatabaseURL        string `validate:"required"`
	JWTSecret          string `validate:"required"`
	SupervisorEmail    string `validate:"required,email"`
	SupervisorPassword string `validate:"required"`
}

// LoadEnv reads and validates the secret configuration
func LoadEnv() (*Env, error) {
	// Missing .env is fine; variables may come from the environment
	_ = godotenv.Load()

	env := &Env{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SupervisorEmail:    os.Getenv("SUPERVISOR_EMAIL"),
		SupervisorPassword: os.Getenv("SUPERVISOR_PASSWORD"),
	}

	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("environment validation failed: %w", err)
	}

	return env, nil
}
