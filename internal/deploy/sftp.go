package deploy

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/plutodev/plutogen/internal/config"
	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

// SFTPDeployer uploads the output tree over SSH.
type SFTPDeployer struct {
	cfg config.SFTPDeployConfig

	// HostKeyCallback, when set, replaces the known_hosts lookup.
	HostKeyCallback ssh.HostKeyCallback
}

// NewSFTPDeployer creates an SFTP deployer for the given target. Host
// keys are verified against the configured known_hosts file, falling
// back to ~/.ssh/known_hosts.
func NewSFTPDeployer(cfg config.SFTPDeployConfig) *SFTPDeployer {
	return &SFTPDeployer{cfg: cfg}
}

func (d *SFTPDeployer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if d.HostKeyCallback != nil {
		return d.HostKeyCallback, nil
	}
	path := d.cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
				"locate home directory for known_hosts")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"load known hosts").WithContext("path", path)
	}
	return callback, nil
}

// Deploy walks localDir and mirrors every file under the remote
// directory, creating remote directories as needed.
func (d *SFTPDeployer) Deploy(ctx context.Context, localDir string) error {
	client, closeAll, err := d.connect()
	if err != nil {
		return err
	}
	defer closeAll()

	return filepath.WalkDir(localDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
				"walk output tree").WithContext("path", p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		remote := path.Join(d.cfg.RemoteDir, filepath.ToSlash(rel))

		if entry.IsDir() {
			if err := client.MkdirAll(remote); err != nil {
				return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
					"create remote directory").WithContext("remote", remote)
			}
			return nil
		}
		return d.uploadFile(client, p, remote)
	})
}

func (d *SFTPDeployer) connect() (*sftp.Client, func(), error) {
	key, err := os.ReadFile(d.cfg.KeyPath)
	if err != nil {
		return nil, nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"read SSH private key").WithContext("key_path", d.cfg.KeyPath)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"parse SSH private key")
	}
	hostKeys, err := d.hostKeyCallback()
	if err != nil {
		return nil, nil, err
	}

	sshClient, err := ssh.Dial("tcp", d.cfg.Host, &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
	})
	if err != nil {
		return nil, nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"connect to deploy host").WithContext("host", d.cfg.Host)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityFatal,
			"open SFTP session")
	}

	return client, func() {
		_ = client.Close()
		_ = sshClient.Close()
	}, nil
}

func (d *SFTPDeployer) uploadFile(client *sftp.Client, local, remote string) error {
	in, err := os.Open(local)
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryFilesystem, siteerrors.SeverityError,
			"open local file").WithContext("path", local)
	}
	defer in.Close()

	out, err := client.Create(remote)
	if err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"create remote file").WithContext("remote", remote)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return siteerrors.Wrap(err, siteerrors.CategoryDeploy, siteerrors.SeverityError,
			"upload file").WithContext("remote", remote)
	}
	return out.Close()
}
