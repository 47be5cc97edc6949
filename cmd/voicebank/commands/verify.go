package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auraya/voicebank/pkg/cli"
	"github.com/auraya/voicebank/pkg/enrol"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a voice sample against the enrolment",
	Long: `Run a verification session: one prompt, one capture, one check.

With the numbers method the prompt is a fresh random digit challenge;
with the phrase method the user repeats their enrolled phrase.

Examples:
  voicebank verify --audio sample.wav
  voicebank verify --method numbers --audio sample.wav`,
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, _ := cmd.Flags().GetStringSlice("audio")
		if len(audio) == 0 {
			return fmt.Errorf("an --audio file is required")
		}

		cctx, err := getContext()
		if err != nil {
			return err
		}
		client, err := newClient(cctx)
		if err != nil {
			return err
		}
		users, closeUsers, err := openUsers()
		if err != nil {
			return err
		}
		defer closeUsers()

		stored, err := users.Method(cmd.Context())
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("method")
		method, err := parseMethod(raw, stored)
		if err != nil {
			return err
		}

		rec, err := newRecorder(audio)
		if err != nil {
			return err
		}

		v := enrol.NewVerifier(enrol.Config{
			API:      client,
			Recorder: rec,
			Users:    users,
			Notify:   notifyPrinter(),
		})
		start := time.Now()
		outcome, err := v.Run(cmd.Context(), method)
		if err != nil {
			return err
		}
		cli.PrintVerbose(verbose, "verification took %s", cli.FormatDuration(int(time.Since(start).Milliseconds())))

		if outputJSON {
			return outputResult(outcome)
		}
		styles := cli.NewStyles(cli.DefaultTheme)
		if outcome.Accepted {
			fmt.Println(styles.Accept.Render("✓ Voice verified"))
		} else {
			fmt.Println(styles.Reject.Render("✗ Not verified: " + outcome.Reason()))
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().String("method", "", "verification method: phrase or numbers (default: profile setting)")
	verifyCmd.Flags().StringSlice("audio", nil, "WAV file replayed as the capture")
}
