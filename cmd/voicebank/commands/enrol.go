package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auraya/voicebank/pkg/cli"
	"github.com/auraya/voicebank/pkg/enrol"
)

// enrolRequest is the -f file format for scripted enrolment runs.
type enrolRequest struct {
	// Phrase is the text enrolled three times.
	Phrase string `yaml:"phrase" json:"phrase"`

	// Audio lists WAV files replayed as captures, in prompt order:
	// three phrase takes, then five number takes. Extra files are used
	// if the server asks for a stage again.
	Audio []string `yaml:"audio" json:"audio"`
}

var enrolCmd = &cobra.Command{
	Use:   "enrol",
	Short: "Enrol the user's voiceprint",
	Long: `Run a full enrolment session against the server.

The session captures the enrolment phrase three times, then the five
fixed number prompts, uploading each completed stage. Audio comes from
prerecorded 8 kHz mono PCM16 WAV files supplied with --audio (or any
rate; files are resampled on capture).

Examples:
  voicebank enrol --phrase "alex@example.com" \
      --audio p1.wav --audio p2.wav --audio p3.wav \
      --audio n1.wav --audio n2.wav --audio n3.wav --audio n4.wav --audio n5.wav

  voicebank enrol -f session.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req enrolRequest
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			if err := cli.LoadRequest(file, &req); err != nil {
				return err
			}
		}
		if phrase, _ := cmd.Flags().GetString("phrase"); phrase != "" {
			req.Phrase = phrase
		}
		if audio, _ := cmd.Flags().GetStringSlice("audio"); len(audio) > 0 {
			req.Audio = audio
		}
		if req.Phrase == "" {
			return fmt.Errorf("phrase is required (--phrase or -f)")
		}
		if len(req.Audio) < 8 {
			return fmt.Errorf("need at least 8 audio files (3 phrase + 5 number takes), got %d", len(req.Audio))
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
		rec, err := newRecorder(req.Audio)
		if err != nil {
			return err
		}

		e := enrol.NewEnroller(enrol.Config{
			API:      client,
			Recorder: rec,
			Users:    users,
			Notify:   notifyPrinter(),
		})
		return e.Run(cmd.Context(), req.Phrase)
	},
}

func init() {
	enrolCmd.Flags().StringP("phrase", "p", "", "phrase to enrol (spoken three times)")
	enrolCmd.Flags().StringSlice("audio", nil, "WAV files replayed as captures, in prompt order")
	enrolCmd.Flags().StringP("file", "f", "", "session file (YAML or JSON) with phrase and audio list")
}
