package jws_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/jws"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/jws/jwstest"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

func TestParser_Parse_Valid(t *testing.T) {
	authority := jwstest.NewAuthority(t)
	tx := jwstest.Transaction("1000", models.ProductYearly, time.Now().Add(-time.Hour))
	tx.ExpiresDate = jwstest.Millis(time.Now().Add(24 * time.Hour))

	got, err := authority.Parser().Parse(authority.Sign(t, tx))
	require.NoError(t, err)
	assert.Equal(t, tx, *got)
}

func TestParser_Parse_InvalidTokens(t *testing.T) {
	trusted := jwstest.NewAuthority(t)
	stranger := jwstest.NewAuthority(t)
	tx := jwstest.Transaction("2000", models.ProductLifetime, time.Now())
	valid := trusted.Sign(t, tx)
	parts := strings.Split(valid, ".")
	forged := strings.Split(trusted.Sign(t, jwstest.Transaction("2001", models.ProductLifetime, time.Now())), ".")

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jws.ClaimsFromTransaction(tx))
	hsSigned, err := hs.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "untrusted chain", token: stranger.Sign(t, tx)},
		{name: "tampered payload", token: parts[0] + "." + forged[1] + "." + parts[2]},
		{name: "tampered signature", token: parts[0] + "." + parts[1] + ".AAAA"},
		{name: "hmac signed", token: hsSigned},
	}

	parser := trusted.Parser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.token)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, models.ErrVerificationFailed)
		})
	}
}

func TestParser_Parse_NoRoots(t *testing.T) {
	authority := jwstest.NewAuthority(t)
	signed := authority.Sign(t, jwstest.Transaction("3000", models.ProductWeekly, time.Now()))

	got, err := jws.NewParser(nil).Parse(signed)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, models.ErrVerificationFailed)
}

func TestParser_Parse_ExpiredLeafCertificate(t *testing.T) {
	authority := jwstest.NewAuthority(t)
	signed := authority.Sign(t, jwstest.Transaction("4000", models.ProductWeekly, time.Now()))

	parser := authority.Parser().WithClock(func() time.Time { return time.Now().Add(72 * time.Hour) })
	_, err := parser.Parse(signed)
	assert.ErrorIs(t, err, models.ErrVerificationFailed)
}

func TestLoadRoots(t *testing.T) {
	authority := jwstest.NewAuthority(t)
	path := authority.WriteRootPEM(t)

	pool, err := jws.LoadRoots(path)
	require.NoError(t, err)

	signed := authority.Sign(t, jwstest.Transaction("5000", models.ProductYearly, time.Now()))
	_, err = jws.NewParser(pool).Parse(signed)
	assert.NoError(t, err)

	_, err = jws.LoadRoots(path + ".missing")
	assert.Error(t, err)
}
