package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the server
type Config struct {
	Addr          string
	DBDriver      string
	DBDSN         string
	JWTSecret     string
	PickupChance  float64
	ArenaWidth    float64
	ArenaHeight   float64
	MaxConnsPerIP int
	MaxTotalConns int
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	sim := DefaultSimConfig()
	return Config{
		Addr:          ":8080",
		DBDriver:      DriverSQLite,
		PickupChance:  sim.PickupSpawnChance,
		ArenaWidth:    sim.Width,
		ArenaHeight:   sim.Height,
		MaxConnsPerIP: 5,
		MaxTotalConns: 1000,
	}
}

// Sim returns the simulation part of the config
func (c Config) Sim() SimConfig {
	sim := DefaultSimConfig()
	sim.Width = c.ArenaWidth
	sim.Height = c.ArenaHeight
	sim.PickupSpawnChance = c.PickupChance
	return sim
}

// LoadConfig layers defaults, a .env file, the environment and finally
// command-line flags.
func LoadConfig(envFile string, args []string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		log.Printf("loaded environment from %s", envFile)
	}

	cfg := DefaultConfig()
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)

	var err error
	if cfg.PickupChance, err = getEnvFloat("PICKUP_CHANCE", cfg.PickupChance); err != nil {
		return Config{}, err
	}
	if cfg.ArenaWidth, err = getEnvFloat("ARENA_WIDTH", cfg.ArenaWidth); err != nil {
		return Config{}, err
	}
	if cfg.ArenaHeight, err = getEnvFloat("ARENA_HEIGHT", cfg.ArenaHeight); err != nil {
		return Config{}, err
	}
	if cfg.MaxConnsPerIP, err = getEnvInt("MAX_CONNS_PER_IP", cfg.MaxConnsPerIP); err != nil {
		return Config{}, err
	}
	if cfg.MaxTotalConns, err = getEnvInt("MAX_TOTAL_CONNS", cfg.MaxTotalConns); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("neon-barrage", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fset.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "store driver: sqlite or postgres")
	fset.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "store DSN (empty sqlite DSN is in-memory)")
	fset.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HMAC secret for session tokens")
	fset.Float64Var(&cfg.PickupChance, "pickup-chance", cfg.PickupChance, "chance a bot kill drops a pickup")
	fset.Float64Var(&cfg.ArenaWidth, "arena-width", cfg.ArenaWidth, "initial arena width")
	fset.Float64Var(&cfg.ArenaHeight, "arena-height", cfg.ArenaHeight, "initial arena height")
	fset.IntVar(&cfg.MaxConnsPerIP, "max-conns-per-ip", cfg.MaxConnsPerIP, "WebSocket connections allowed per IP")
	fset.IntVar(&cfg.MaxTotalConns, "max-total-conns", cfg.MaxTotalConns, "WebSocket connections allowed in total")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if c.PickupChance < 0 {
		return fmt.Errorf("PICKUP_CHANCE must not be negative")
	}
	if c.ArenaWidth <= 0 || c.ArenaHeight <= 0 {
		return fmt.Errorf("arena dimensions must be positive")
	}
	if c.MaxConnsPerIP <= 0 || c.MaxTotalConns <= 0 {
		return fmt.Errorf("connection limits must be positive")
	}
	return nil
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
