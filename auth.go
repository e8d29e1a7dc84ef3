package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var (
	ErrRateLimited     = errors.New("too many login attempts, try again later")
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrNameClaimed     = errors.New("username is registered, password required")
	ErrAccountsOffline = errors.New("accounts are unavailable")
)

// Identity is who a connection logged in as
type Identity struct {
	AccountID int64 // 0 for guests
	Username  string
	Token     string // empty for guests
	Created   bool   // the login registered the name
}

// Auth handles authentication
type Auth struct {
	db        *DB
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler. An empty secret is loaded from the
// store or generated.
func NewAuth(db *DB, secret string) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = loadOrCreateSecret(db)
	}
	return &Auth{
		db:        db,
		jwtSecret: key,
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Authenticate resolves a login message. A token wins over a password; no
// password and no token means a guest.
func (a *Auth) Authenticate(msg LoginMsg, ip string) (Identity, error) {
	if msg.Token != "" {
		id, username, err := a.ValidateToken(msg.Token)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid token")
		}
		return Identity{AccountID: id, Username: username, Token: msg.Token}, nil
	}

	username := SanitizeName(msg.Username)
	if msg.Password == "" {
		if a.db != nil {
			claimed, err := a.db.UsernameExists(username)
			if err != nil {
				return Identity{}, fmt.Errorf("database error")
			}
			if claimed {
				return Identity{}, ErrNameClaimed
			}
		}
		return Identity{Username: username}, nil
	}

	if !a.checkRate(ip) {
		return Identity{}, ErrRateLimited
	}
	if a.db == nil {
		return Identity{}, ErrAccountsOffline
	}
	player, err := a.db.GetPlayerByUsername(username)
	if err != nil {
		return Identity{}, fmt.Errorf("database error")
	}
	if player == nil {
		id, token, err := a.Register(username, msg.Password)
		if err != nil {
			return Identity{}, err
		}
		return Identity{AccountID: id, Username: username, Token: token, Created: true}, nil
	}
	id, token, err := a.Login(player, msg.Password)
	if err != nil {
		return Identity{}, err
	}
	return Identity{AccountID: id, Username: player.Username, Token: token}, nil
}

// Register claims a username
func (a *Auth) Register(username, password string) (int64, string, error) {
	if len(username) < minUsernameLen || len(username) > maxNameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxNameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}

	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create account")
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return id, token, nil
}

// Login checks a password against a stored account and returns a JWT
func (a *Auth) Login(player *PlayerRow, password string) (int64, string, error) {
	if player.PassHash == "" {
		return 0, "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)); err != nil {
		return 0, "", ErrBadCredentials
	}

	token, err := a.generateToken(player.ID, player.Username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return player.ID, token, nil
}

// ValidateToken validates a JWT and returns (playerID, username, error)
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	pidFloat, ok := claims["pid"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	return int64(pidFloat), username, nil
}

func (a *Auth) generateToken(playerID int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"pid": playerID,
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
