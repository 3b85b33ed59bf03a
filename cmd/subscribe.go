package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/btraven00/phishguard/internal/gateway"
	"github.com/btraven00/phishguard/internal/subscription"
)

// subscribeCmd represents the subscribe command
var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Register for phishing alerts by email or SMS",
	Long: `Register an email address or phone number with the alert service.

Examples:
  phishguard subscribe email user@example.com
  phishguard subscribe sms +15555550100`,
}

var subscribeEmailCmd = &cobra.Command{
	Use:   "email ADDRESS",
	Short: "Subscribe an email address to alerts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubscribe(cmd, subscription.ChannelEmail, args[0])
	},
}

var subscribeSMSCmd = &cobra.Command{
	Use:   "sms NUMBER",
	Short: "Subscribe a phone number to SMS alerts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubscribe(cmd, subscription.ChannelSMS, args[0])
	},
}

func init() {
	rootCmd.AddCommand(subscribeCmd)
	subscribeCmd.AddCommand(subscribeEmailCmd)
	subscribeCmd.AddCommand(subscribeSMSCmd)
}

func runSubscribe(cmd *cobra.Command, ch subscription.Channel, address string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}

	manager := rt.subscriptions()

	subscribe := manager.SubscribeEmail
	if ch == subscription.ChannelSMS {
		subscribe = manager.SubscribeSMS
	}

	message, subErr := subscribe(cmd.Context(), address)
	switch {
	case subErr == nil:
		subErr = rt.printer.Subscription(string(ch), address, message)
	case errors.Is(subErr, subscription.ErrEmailRequired), errors.Is(subErr, subscription.ErrPhoneRequired):
	default:
		statusf(cmd, "hint: %s\n", gateway.Hint(gateway.Classify(subErr)))
	}

	if err := rt.close(); err != nil && subErr == nil {
		return err
	}

	return subErr
}
