package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/cli"
	"github.com/auraya/voicebank/pkg/enrol"
	"github.com/auraya/voicebank/pkg/userstore"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local enrolment status",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, closeUsers, err := openUsers()
		if err != nil {
			return err
		}
		defer closeUsers()
		ctx := cmd.Context()

		phrase, err := users.StatusFor(ctx, userstore.MethodPhrase)
		if err != nil {
			return err
		}
		numbers, err := users.StatusFor(ctx, userstore.MethodNumbers)
		if err != nil {
			return err
		}
		overall, err := users.OverallStatus(ctx)
		if err != nil {
			return err
		}

		view := map[string]string{
			"phrase":  phrase.String(),
			"numbers": numbers.String(),
			"overall": overall.String(),
		}
		if paths, err := cli.NewPaths(); err == nil {
			if size, n := recordingsUsage(paths.RecordingsDir()); n > 0 {
				view["recordings"] = fmt.Sprintf("%d files, %s", n, cli.FormatBytes(size))
			}
		}
		return outputResult(view)
	},
}

// recordingsUsage totals the captured WAV files in dir.
func recordingsUsage(dir string) (bytes int64, count int) {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.wav"))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			bytes += info.Size()
			count++
		}
	}
	return bytes, count
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the server whether the user is enrolled",
	Long: `Query the server's enrolment state for both verification methods.

Unlike 'status', which reads the local profile, this asks the ArmorVox
server directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		ctx := cmd.Context()

		userID, err := users.UserID(ctx)
		if err != nil {
			return err
		}

		result, err := checkEnrolment(ctx, client, userID)
		if err != nil {
			return err
		}
		return outputResult(result)
	},
}

// enrolmentChecker is the slice of the API the check command needs.
type enrolmentChecker interface {
	CheckEnrolled(ctx context.Context, sessionID string, userID armorvox.UserID, typ armorvox.SpeechItemType) (*armorvox.Response, error)
}

// checkEnrolment queries the server's enrolment state for both methods
// under one freshly generated session ID.
func checkEnrolment(ctx context.Context, client enrolmentChecker, userID armorvox.UserID) (map[string]string, error) {
	sessionID := uuid.NewString()
	result := map[string]string{}
	for _, m := range []userstore.Method{userstore.MethodPhrase, userstore.MethodNumbers} {
		resp, err := client.CheckEnrolled(ctx, sessionID, userID, m.SpeechItemType())
		if err != nil {
			return nil, err
		}
		switch resp.Condition {
		case armorvox.ConditionEnrolled, armorvox.ConditionNotEnrolled:
			result[m.String()] = string(resp.Condition)
		default:
			result[m.String()] = fmt.Sprintf("%s (%s)", resp.RawCondition, resp.Extra)
		}
	}
	return result, nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the user's voiceprints",
	Long: `Delete the user's voice data from the server for both verification
methods and reset the local statuses to ready-to-enrol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		e := enrol.NewEnroller(enrol.Config{
			API:   client,
			Users: users,
		})
		if err := e.Delete(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Voiceprints deleted")
		return nil
	},
}
