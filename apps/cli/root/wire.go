package root

import (
	"github.com/tourbase-hq/reservations/apps/cli/cmd/bootstrap"
	"github.com/tourbase-hq/reservations/apps/cli/cmd/seed"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(seed.Command())
}
