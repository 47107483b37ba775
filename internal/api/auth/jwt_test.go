package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!")

func testUser() *models.User {
	return models.NewUser("Test Teacher", "teacher@example.com", models.RoleTeacher)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService(testSecret, 15*time.Minute)
	user := testUser()

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.Subject != user.ID.Hex() {
		t.Errorf("Subject = %q, want %q", claims.Subject, user.ID.Hex())
	}
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := NewJWTService(testSecret, 15*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt-token"},
		{"wrong-segments", "a.b"},
		{"invalid-signature", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJpZCI6InRlc3QifQ.invalid"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tc.token); err == nil {
				t.Error("expected error for invalid token")
			}
		})
	}
}

func TestJWTService_DifferentSecret(t *testing.T) {
	svc1 := NewJWTService([]byte("secret-one-32-bytes-long!!!!!!!"), time.Hour)
	svc2 := NewJWTService([]byte("secret-two-32-bytes-long!!!!!!!"), time.Hour)

	token, err := svc1.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := svc2.ValidateToken(token); err == nil {
		t.Error("expected error validating token with different secret")
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService(testSecret, -time.Minute)

	token, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestJWTService_WrongIssuer(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: primitive.NewObjectID().Hex(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected error for foreign issuer")
	}
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "brightminds"},
		UserID:           primitive.NewObjectID().Hex(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected error for unsigned token")
	}
}
