package logic

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fed_courier/dal"
	"fed_courier/shared"
	"fmt"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_key_store.go -package mocks fed_courier/logic IKeyStore

type IKeyStore interface {
	GetPrivKey(actorName string) (*rsa.PrivateKey, error)
	MakeKeyPair() (pubKey, privKey string, err error)
}

type keyStore struct {
	cfg  *shared.Config
	repo dal.IRepo
}

func NewKeyStore(cfg *shared.Config, repo dal.IRepo) IKeyStore {
	return &keyStore{cfg, repo}
}

func (ks *keyStore) getServerActorKey(actorName string) string {
	if ks.cfg.ServerActor != nil && actorName == ks.cfg.ServerActor.Name {
		return ks.cfg.ServerActor.PrivKey
	}
	return ""
}

func (ks *keyStore) GetPrivKey(actorName string) (*rsa.PrivateKey, error) {

	var err error

	privKeyStr := ks.getServerActorKey(actorName)
	if privKeyStr == "" {
		privKeyStr, err = ks.repo.GetPrivKey(actorName)
		if err != nil {
			return nil, err
		}
	}
	if privKeyStr == "" {
		return nil, fmt.Errorf("no private key for actor '%s'", actorName)
	}

	block, _ := pem.Decode([]byte(privKeyStr))
	if block == nil {
		return nil, fmt.Errorf("private key of actor '%s' is not valid PEM", actorName)
	}
	privKeyBytes := block.Bytes
	if x509.IsEncryptedPEMBlock(block) {
		privKeyBytes, err = x509.DecryptPEMBlock(block, []byte(ks.cfg.Secrets.PrivKeyPass))
		if err != nil {
			return nil, err
		}
	}
	privkey, err := x509.ParsePKCS1PrivateKey(privKeyBytes)
	if err != nil {
		return nil, err
	}
	return privkey, nil
}

func (ks *keyStore) MakeKeyPair() (pubKey, privKey string, err error) {

	pubKey = ""
	privKey = ""
	err = nil

	// Generate RSA key
	var key *rsa.PrivateKey
	key, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return
	}

	// Encode private key to PKCS#1, with password
	keyRaw := x509.MarshalPKCS1PrivateKey(key)
	encBlock, err := x509.EncryptPEMBlock(
		rand.Reader, "RSA PRIVATE KEY", keyRaw,
		[]byte(ks.cfg.Secrets.PrivKeyPass), x509.PEMCipherAES256)
	if err != nil {
		return
	}
	keyPEM := pem.EncodeToMemory(encBlock)

	// Public key goes out in actor documents, so PKIX like everyone else
	var pubRaw []byte
	if pubRaw, err = x509.MarshalPKIXPublicKey(key.Public()); err != nil {
		return
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubRaw})

	pubKey = string(pubPEM)
	privKey = string(keyPEM)

	return
}

// parsePublicKey accepts both PKIX and PKCS#1 encoded RSA public keys.
func parsePublicKey(pubKeyPem string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubKeyPem))
	if block == nil {
		return nil, errors.New("public key is not valid PEM")
	}
	if block.Type == "RSA PUBLIC KEY" {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}
	return rsaKey, nil
}
