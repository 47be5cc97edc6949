package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auraya/voicebank/pkg/cli"
	"github.com/auraya/voicebank/pkg/userstore"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Local user profile management",
	Long: `Manage the local user profile.

The profile holds the display name, the phone number the voiceprint
user ID is derived from, the preferred verification method and the
phrase variation used for enrolment. It is stored locally under
~/.voicebank/data.`,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set profile fields",
	Long: `Set one or more profile fields.

Examples:
  voicebank profile set --name "Alex" --phone "0455 512 345"
  voicebank profile set --method numbers
  voicebank profile set --variation secret-phrase`,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, closeUsers, err := openUsers()
		if err != nil {
			return err
		}
		defer closeUsers()
		ctx := cmd.Context()

		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			if err := users.SetName(ctx, name); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("phone") {
			phone, _ := cmd.Flags().GetString("phone")
			if err := users.SetPhoneNumber(ctx, phone); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("method") {
			raw, _ := cmd.Flags().GetString("method")
			method, err := parseMethod(raw, userstore.MethodPhrase)
			if err != nil {
				return err
			}
			if err := users.SetMethod(ctx, method); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("variation") {
			raw, _ := cmd.Flags().GetString("variation")
			variation, err := parseVariation(raw)
			if err != nil {
				return err
			}
			if err := users.SetPhraseVariation(ctx, variation); err != nil {
				return err
			}
		}

		cli.PrintSuccess("Profile updated")
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, closeUsers, err := openUsers()
		if err != nil {
			return err
		}
		defer closeUsers()
		ctx := cmd.Context()

		name, err := users.Name(ctx)
		if err != nil {
			return err
		}
		phone, err := users.PhoneNumber(ctx)
		if err != nil {
			return err
		}
		method, err := users.Method(ctx)
		if err != nil {
			return err
		}
		variation, err := users.PhraseVariation(ctx)
		if err != nil {
			return err
		}

		view := map[string]string{
			"name":      name,
			"phone":     phone,
			"method":    method.String(),
			"variation": variation.String(),
		}
		if id, err := users.UserID(ctx); err == nil {
			view["user_id"] = fmt.Sprintf("%d", id)
		} else if errors.Is(err, userstore.ErrNoUserID) {
			view["user_id"] = "(set a phone number first)"
		} else {
			return err
		}
		return outputResult(view)
	},
}

// parseVariation maps a --variation flag value onto a phrase variation.
func parseVariation(s string) (userstore.PhraseVariation, error) {
	switch s {
	case "email-address", "email":
		return userstore.EmailAddress, nil
	case "home-address", "address":
		return userstore.HomeAddress, nil
	case "full-name", "name":
		return userstore.FullName, nil
	case "secret-phrase", "secret":
		return userstore.SecretPhrase, nil
	default:
		return userstore.EmailAddress, fmt.Errorf(
			"unknown variation %q (want email-address, home-address, full-name or secret-phrase)", s)
	}
}

func init() {
	profileSetCmd.Flags().String("name", "", "display name")
	profileSetCmd.Flags().String("phone", "", "phone number (user ID is derived from it)")
	profileSetCmd.Flags().String("method", "", "verification method: phrase or numbers")
	profileSetCmd.Flags().String("variation", "", "phrase variation: email-address, home-address, full-name, secret-phrase")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)
}
