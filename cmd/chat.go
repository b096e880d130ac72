package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hpkotak/sqlbud/internal/repl"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive query session",
	Long: `Start an interactive session with SQLBud.
Each line is translated into a query on its own.

Type 'exit' or 'quit' to end the session. Ctrl+D also works.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return repl.Run(ctx, a.gen, repl.Session{
		Template: a.request(""),
		Render:   a.renderOptions(),
	}, ioIn, ioOut)
}
