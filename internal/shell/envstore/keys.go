package envstore

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// rsaKeyBits matches what ssh-keygen produces by default for RSA keys.
const rsaKeyBits = 3072

// generateKeyPair writes an RSA key pair at path (private, PEM) and
// path+".pub" (public, authorized_keys format). The private key file is
// created with owner-only permissions and never leaves the key directory.
func generateKeyPair(path string) (err error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("generate rsa key: %w", err)
	}

	privBlock, err := ssh.MarshalPrivateKey(key, "")
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(privBlock), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("create ssh public key: %w", err)
	}
	if err := os.WriteFile(path+".pub", ssh.MarshalAuthorizedKey(sshPub), 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}
