package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/moyoez/fitsnap-go/types"
)

// GetOrCreateTLSCertFromConfig loads the self-signed certificate stored in config or generates
// a new one, storing its PEM back into cfg. Mobile browsers only expose the camera to pages
// served from a secure context, hence https on the LAN.
func GetOrCreateTLSCertFromConfig(cfg *types.AppConfig) (tls.Certificate, error) {
	if cfg.CertPEM != "" && cfg.KeyPEM != "" {
		if err := checkCertPEM(cfg.CertPEM); err == nil {
			cert, err := tls.X509KeyPair([]byte(cfg.CertPEM), []byte(cfg.KeyPEM))
			if err == nil {
				DefaultLogger.Infof("Loaded existing TLS certificate from config")
				return cert, nil
			}
			DefaultLogger.Warnf("Certificate in config does not match its key: %v, regenerating...", err)
		} else {
			DefaultLogger.Warnf("Certificate in config is invalid or expired: %v, regenerating...", err)
		}
	}

	certDER, keyDER, err := generateTLSCert()
	if err != nil {
		return tls.Certificate{}, err
	}
	cfg.CertPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	}))
	cfg.KeyPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyDER,
	}))
	DefaultLogger.Infof("TLS certificate generated and stored in config")

	return tls.X509KeyPair([]byte(cfg.CertPEM), []byte(cfg.KeyPEM))
}

// checkCertPEM fails when the PEM does not hold a certificate that is valid right now.
func checkCertPEM(certPEMStr string) error {
	certBlock, _ := pem.Decode([]byte(certPEMStr))
	if certBlock == nil {
		return fmt.Errorf("failed to decode certificate PEM")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	if time.Now().After(cert.NotAfter) {
		return fmt.Errorf("certificate has expired")
	}
	return nil
}

// generateTLSCert generates a new self-signed certificate covering localhost and the LAN addresses.
func generateTLSCert() (certDER []byte, keyDER []byte, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ECDSA private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	ips := []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}
	for _, ip := range LocalIPv4Addrs() {
		ips = append(ips, net.ParseIP(ip))
	}

	cert := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "fitsnap-localCert",
			Organization: []string{"fitsnap-localCert"},
		},
		DNSNames:    []string{"localhost"},
		IPAddresses: ips,
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(time.Hour * 24 * 365), // 1 year validity
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, &cert, &cert, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}
	return certBytes, privateKeyBytes, nil
}
