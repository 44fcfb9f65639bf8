package jws

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Verifier описывает проверку подписанной транзакции.
type Verifier interface {
	// Parse проверяет подпись и цепочку доверия и возвращает транзакцию.
	Parse(signed string) (*models.Transaction, error)
}

// Parser проверяет JWS транзакций относительно набора доверенных корневых сертификатов.
type Parser struct {
	roots *x509.CertPool
	now   func() time.Time
}

// NewParser создаёт Parser. Без корневых сертификатов любая транзакция будет отклонена.
func NewParser(roots *x509.CertPool) *Parser {
	return &Parser{
		roots: roots,
		now:   time.Now,
	}
}

// WithClock подменяет источник времени для проверки сроков действия сертификатов.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// LoadRoots читает PEM-файл с доверенными корневыми сертификатами.
func LoadRoots(path string) (*x509.CertPool, error) {
	const op = "jws.LoadRoots"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pool := x509.NewCertPool()
	found := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pool.AddCert(cert)
		found++
	}
	if found == 0 {
		return nil, fmt.Errorf("%s: no certificates in %s", op, path)
	}
	return pool, nil
}

// Parse проверяет подпись транзакции и возвращает её полезную нагрузку.
// Любая ошибка оборачивает models.ErrVerificationFailed.
func (p *Parser) Parse(signed string) (*models.Transaction, error) {
	const op = "jws.Parse"
	if p.roots == nil {
		return nil, fmt.Errorf("%s: %w: no trusted roots configured", op, models.ErrVerificationFailed)
	}
	claims := &TransactionClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, p.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrVerificationFailed, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%s: %w: invalid token", op, models.ErrVerificationFailed)
	}
	tx := claims.Transaction()
	return &tx, nil
}

func (p *Parser) keyFunc(token *jwt.Token) (any, error) {
	chain, err := certChain(token.Header["x5c"])
	if err != nil {
		return nil, err
	}
	intermediates := x509.NewCertPool()
	for _, c := range chain[1:] {
		intermediates.AddCert(c)
	}
	if _, err := chain[0].Verify(x509.VerifyOptions{
		Roots:         p.roots,
		Intermediates: intermediates,
		CurrentTime:   p.now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return nil, fmt.Errorf("certificate chain: %w", err)
	}
	key, ok := chain[0].PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("leaf certificate key is not ECDSA")
	}
	return key, nil
}

func certChain(header any) ([]*x509.Certificate, error) {
	raw, ok := header.([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("missing x5c header")
	}
	chain := make([]*x509.Certificate, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("x5c[%d] is not a string", i)
		}
		der, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("x5c[%d]: %w", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("x5c[%d]: %w", i, err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}
