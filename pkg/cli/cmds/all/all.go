// Package all pulls in all command providers.
package all

import (
	_ "github.com/robotalks/wake.go/pkg/cli/cmds/device"
	_ "github.com/robotalks/wake.go/pkg/cli/cmds/relay"
)
