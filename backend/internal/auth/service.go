// ============================================================================
// backend/internal/auth/service.go
// Login against both user collections, JWT issue and validation
// ============================================================================

package auth

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"traintrack/backend/internal/shared"
)

// CustomClaims are the JWT claims carried by every session token.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	AuthorID string `json:"author_id,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates users and manages session tokens. Accounts may live
// in either user collection; the current one is consulted first.
type Service struct {
	db          *mongo.Database
	usersCol    *mongo.Collection
	usersNewCol *mongo.Collection
	jwtSecret   []byte
	expiration  time.Duration
	bcryptCost  int
}

// NewService creates a new auth Service instance
func NewService(db *mongo.Database, security shared.SecurityConfig) *Service {
	return &Service{
		db:          db,
		usersCol:    db.Collection(shared.ColUsers),
		usersNewCol: db.Collection(shared.ColUsersNew),
		jwtSecret:   []byte(security.JWTSecret),
		expiration:  time.Duration(security.JWTExpirationHours) * time.Hour,
		bcryptCost:  security.BCryptCost,
	}
}

// Login verifies credentials and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*shared.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", shared.Validationf("email and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, err := s.findByEmail(queryCtx, email)
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", shared.Validationf("invalid email or password")
	}
	if !user.IsActive {
		return nil, "", shared.Validationf("account is deactivated")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] Login successful: %s (%s)", user.Email, user.Role)
	return user, token, nil
}

// Register creates an account in the current-schema collection.
func (s *Service) Register(ctx context.Context, user *shared.User, password string) (*shared.User, error) {
	if user == nil || user.Email == "" || user.Name == "" || password == "" {
		return nil, shared.Validationf("name, email, and password are required")
	}
	if !shared.IsValidRole(user.Role) {
		return nil, shared.Validationf("invalid role: %s", user.Role)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Email must be unique across both collections.
	for _, col := range []*mongo.Collection{s.usersNewCol, s.usersCol} {
		count, err := col.CountDocuments(queryCtx, bson.M{"email": user.Email})
		if err != nil {
			return nil, shared.Persistencef(err, "failed to check email uniqueness")
		}
		if count > 0 {
			return nil, shared.Conflictf("email %s is already in use", user.Email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to hash password")
	}

	now := time.Now()
	user.Password = string(hash)
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := s.usersNewCol.InsertOne(queryCtx, user)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to create user")
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	log.Printf("[AuthService] Registered %s as %s", user.Email, user.Role)
	return user, nil
}

// ValidateToken parses and verifies a session token.
func (s *Service) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, shared.Validationf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, shared.Validationf("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, shared.Validationf("invalid token claims")
	}
	return claims, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func (s *Service) findByEmail(ctx context.Context, email string) (*shared.User, error) {
	var user shared.User
	if err := s.usersNewCol.FindOne(ctx, bson.M{"email": email}).Decode(&user); err == nil {
		return &user, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, shared.Persistencef(err, "failed to query users_new")
	}

	if err := s.usersCol.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.Validationf("invalid email or password")
		}
		return nil, shared.Persistencef(err, "failed to query users")
	}
	return &user, nil
}

func (s *Service) issueToken(user *shared.User) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:   user.ID.Hex(),
		AuthorID: user.AuthorID,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", shared.Persistencef(err, "failed to sign token")
	}
	return signed, nil
}
