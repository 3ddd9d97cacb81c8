package serviceaccount_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

func testCredentials() *serviceaccount.Credentials {
	return &serviceaccount.Credentials{
		Type:        serviceaccount.AccountType,
		PrivateKey:  "unused",
		ClientEmail: "robot@test-project.iam.gserviceaccount.com",
		TokenURI:    "https://oauth2.googleapis.com/token",
	}
}

func TestBuildClaims(t *testing.T) {
	creds := testCredentials()
	now := time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC)

	claims := serviceaccount.BuildClaims(creds, serviceaccount.ScopeDrive, now)

	if claims.Issuer != creds.ClientEmail {
		t.Errorf("expected issuer %s, got %s", creds.ClientEmail, claims.Issuer)
	}
	if claims.Audience != creds.TokenURI {
		t.Errorf("expected audience %s, got %s", creds.TokenURI, claims.Audience)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Errorf("expected iat %v, got %v", now, claims.IssuedAt.Time)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 3600*time.Second {
		t.Errorf("expected exp - iat = 3600s, got %v", got)
	}
	if claims.Scope != serviceaccount.ScopeDrive {
		t.Errorf("expected scope %s, got %s", serviceaccount.ScopeDrive, claims.Scope)
	}
	if claims.Subject != "" {
		t.Errorf("expected no subject, got %s", claims.Subject)
	}
}

func TestBuildClaims_Deterministic(t *testing.T) {
	creds := testCredentials()
	now := time.Unix(1700000000, 0)

	a := serviceaccount.BuildClaims(creds, serviceaccount.ScopeCloudPlatform, now)
	b := serviceaccount.BuildClaims(creds, serviceaccount.ScopeCloudPlatform, now)

	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)

	if string(aJSON) != string(bJSON) {
		t.Errorf("expected identical claims, got %s and %s", aJSON, bJSON)
	}
}

func TestBuildClaims_JSONShape(t *testing.T) {
	creds := testCredentials()
	now := time.Unix(1700000000, 0)

	data, err := json.Marshal(serviceaccount.BuildClaims(creds, serviceaccount.ScopeDrive, now))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if aud, ok := got["aud"].(string); !ok || aud != creds.TokenURI {
		t.Errorf("expected aud to be the token URI string, got %#v", got["aud"])
	}
	if iat, ok := got["iat"].(float64); !ok || int64(iat) != 1700000000 {
		t.Errorf("unexpected iat %#v", got["iat"])
	}
	if exp, ok := got["exp"].(float64); !ok || int64(exp) != 1700003600 {
		t.Errorf("unexpected exp %#v", got["exp"])
	}
	if _, ok := got["sub"]; ok {
		t.Error("sub should be omitted when empty")
	}
}

func TestBuildClaimsForSubject(t *testing.T) {
	creds := testCredentials()
	now := time.Unix(1700000000, 0)

	claims := serviceaccount.BuildClaimsForSubject(creds, serviceaccount.ScopeGmailSend, "user@example.com", now)

	sub, err := claims.GetSubject()
	if err != nil || sub != "user@example.com" {
		t.Errorf("expected subject user@example.com, got %q (%v)", sub, err)
	}

	aud, err := claims.GetAudience()
	if err != nil || len(aud) != 1 || aud[0] != creds.TokenURI {
		t.Errorf("unexpected audience %v (%v)", aud, err)
	}
}
