// Package jwstest выпускает тестовые цепочки сертификатов и подписывает ими транзакции.
package jwstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/jws"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Authority: корневой и листовой сертификаты для подписи тестовых транзакций.
type Authority struct {
	Root    *x509.Certificate
	leaf    *x509.Certificate
	leafKey *ecdsa.PrivateKey
}

// NewAuthority выпускает самоподписанный корневой сертификат и листовой сертификат под ним.
func NewAuthority(t testing.TB) *Authority {
	t.Helper()
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Store Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	require.NoError(t, err)
	root, err := x509.ParseCertificate(rootDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Test Store Signing"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, root, &leafKey.PublicKey, rootKey)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	return &Authority{Root: root, leaf: leaf, leafKey: leafKey}
}

// Pool возвращает пул с корневым сертификатом.
func (a *Authority) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(a.Root)
	return pool
}

// Parser возвращает jws.Parser, доверяющий этому корню.
func (a *Authority) Parser() *jws.Parser {
	return jws.NewParser(a.Pool())
}

// Sign подписывает транзакцию листовым ключом и кладёт цепочку в x5c.
func (a *Authority) Sign(t testing.TB, tx models.Transaction) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jws.ClaimsFromTransaction(tx))
	token.Header["x5c"] = []string{
		base64.StdEncoding.EncodeToString(a.leaf.Raw),
		base64.StdEncoding.EncodeToString(a.Root.Raw),
	}
	signed, err := token.SignedString(a.leafKey)
	require.NoError(t, err)
	return signed
}

// WriteRootPEM сохраняет корневой сертификат в PEM-файл во временном каталоге теста.
func (a *Authority) WriteRootPEM(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "root.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: a.Root.Raw})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// Transaction возвращает транзакцию с заполненными обязательными полями.
func Transaction(id, productID string, purchased time.Time) models.Transaction {
	return models.Transaction{
		TransactionID:         id,
		OriginalTransactionID: id,
		ProductID:             productID,
		PurchaseDate:          purchased.UnixMilli(),
		Type:                  "Auto-Renewable Subscription",
		Environment:           "Sandbox",
	}
}

// Millis возвращает указатель на время в миллисекундах.
func Millis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}
