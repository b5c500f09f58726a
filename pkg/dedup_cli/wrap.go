// pkg/dedup_cli/wrap.go

package dedup_cli

import (
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunFunc is a command body that receives the runtime context.
type RunFunc func(rc *dedup_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap adapts fn to cobra's RunE: it opens the runtime context under the
// command's context, recovers panics as internal errors, and closes the
// context with the final error.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		rc := dedup_io.NewContext(cmd.Context(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		rc.Log.Debug("Command invoked",
			zap.String("command_path", cmd.CommandPath()),
			zap.Strings("args", args))

		err = fn(rc, cmd, args)
		if err != nil {
			err = cerr.WithStack(err)
		}
		return err
	}
}
