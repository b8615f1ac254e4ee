// Package deploy publishes the rendered output tree, either over SFTP
// or by committing it to a git repository and pushing.
package deploy

import "context"

// Deployer publishes the output tree at localDir.
type Deployer interface {
	Deploy(ctx context.Context, localDir string) error
}
