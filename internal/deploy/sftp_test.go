package deploy

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/plutodev/plutogen/internal/config"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

func generateHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func writeKnownHosts(t *testing.T, host string, key ssh.PublicKey) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{host}, key) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0600))
	return path
}

func TestHostKeyCallbackAcceptsKnownHost(t *testing.T) {
	key := generateHostKey(t)
	d := NewSFTPDeployer(config.SFTPDeployConfig{
		Host:       "example.com:22",
		KnownHosts: writeKnownHosts(t, "example.com:22", key),
	})

	callback, err := d.hostKeyCallback()
	require.NoError(t, err)

	addr := &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 22}
	assert.NoError(t, callback("example.com:22", addr, key))
}

func TestHostKeyCallbackRejectsUnknownKey(t *testing.T) {
	known := generateHostKey(t)
	imposter := generateHostKey(t)
	d := NewSFTPDeployer(config.SFTPDeployConfig{
		Host:       "example.com:22",
		KnownHosts: writeKnownHosts(t, "example.com:22", known),
	})

	callback, err := d.hostKeyCallback()
	require.NoError(t, err)

	addr := &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 22}
	assert.Error(t, callback("example.com:22", addr, imposter))
}

func TestHostKeyCallbackMissingFile(t *testing.T) {
	d := NewSFTPDeployer(config.SFTPDeployConfig{
		KnownHosts: filepath.Join(t.TempDir(), "nope"),
	})

	_, err := d.hostKeyCallback()
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryDeploy))
}

func TestHostKeyCallbackExplicitOverride(t *testing.T) {
	sentinel := errors.New("override ran")
	d := NewSFTPDeployer(config.SFTPDeployConfig{})
	d.HostKeyCallback = func(string, net.Addr, ssh.PublicKey) error {
		return sentinel
	}

	callback, err := d.hostKeyCallback()
	require.NoError(t, err)
	assert.ErrorIs(t, callback("example.com:22", nil, generateHostKey(t)), sentinel)
}
