package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tara-vision/codeforge/internal/config"
	"github.com/tara-vision/codeforge/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Telegram notifications",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message with the configured bot and chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		s := a.current()
		tg := notify.NewTelegram(s.TelegramAPIKey, s.TelegramChatID)
		if !tg.Configured() {
			return fmt.Errorf("set %s and %s first", config.KeyTelegramAPIKey, config.KeyTelegramChatID)
		}

		err = a.spin("Sending test message", func() error {
			return tg.Send(cmd.Context(), notify.TestMessage)
		})
		if err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage("Test message sent"))
		return nil
	},
}

func init() {
	notifyCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(notifyCmd)
}
