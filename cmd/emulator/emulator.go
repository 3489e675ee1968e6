package emulator

import (
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("emulator",
		newInitKeystore(),
	)
}
