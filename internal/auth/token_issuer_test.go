package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerIssuesSyncTokens(testContext *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		TokenTTL:      30 * time.Minute,
	})

	tokenString, expiresIn, err := issuer.IssueSyncToken(context.Background(), "field-tablet-1")
	if err != nil {
		testContext.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn <= 0 {
		testContext.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	parser := jwt.Parser{}
	claims := &jwt.RegisteredClaims{}
	_, err = parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		testContext.Fatalf("failed to parse generated token: %v", err)
	}

	if claims.Subject != "field-tablet-1" {
		testContext.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != "hurvest-sync" {
		testContext.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "hurvest-replicas" {
		testContext.Fatalf("unexpected audience %#v", claims.Audience)
	}
}

func TestTokenIssuerRejectsMissingInputs(testContext *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{})
	if _, _, err := issuer.IssueSyncToken(context.Background(), "field-tablet-1"); err == nil {
		testContext.Fatal("expected an error without a signing secret")
	}

	issuer = NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("secret")})
	if _, _, err := issuer.IssueSyncToken(context.Background(), ""); err == nil {
		testContext.Fatal("expected an error without a device id")
	}
}

func TestTokenIssuerValidatesIssuedTokens(testContext *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("another-secret"),
		TokenTTL:      15 * time.Minute,
	})

	tokenString, _, err := issuer.IssueSyncToken(context.Background(), "field-tablet-2")
	if err != nil {
		testContext.Fatalf("unexpected error issuing token: %v", err)
	}

	deviceID, err := issuer.ValidateToken(tokenString)
	if err != nil {
		testContext.Fatalf("expected validation success: %v", err)
	}
	if deviceID != "field-tablet-2" {
		testContext.Fatalf("unexpected device id %s", deviceID)
	}

	if _, err = issuer.ValidateToken("invalid.token"); err == nil {
		testContext.Fatal("expected validation to fail for a malformed token")
	}
}

func TestTokenIssuerRejectsExpiredTokens(testContext *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		TokenTTL:      time.Minute,
		Clock:         func() time.Time { return issued },
	})

	tokenString, _, err := issuer.IssueSyncToken(context.Background(), "field-tablet-3")
	if err != nil {
		testContext.Fatalf("unexpected error issuing token: %v", err)
	}

	validator := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		Clock:         func() time.Time { return issued.Add(2 * time.Minute) },
	})
	if _, err = validator.ValidateToken(tokenString); err == nil {
		testContext.Fatal("expected validation to fail after expiry")
	}
}

func TestTokenIssuerRejectsForeignSignatures(testContext *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("secret-a")})
	tokenString, _, err := issuer.IssueSyncToken(context.Background(), "field-tablet-4")
	if err != nil {
		testContext.Fatalf("unexpected error issuing token: %v", err)
	}

	validator := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("secret-b")})
	if _, err = validator.ValidateToken(tokenString); err == nil {
		testContext.Fatal("expected validation to fail across signing secrets")
	}
}
