package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/auraya/voicebank/pkg/activity"
	"github.com/auraya/voicebank/pkg/armorvox"
	"github.com/auraya/voicebank/pkg/capture"
	"github.com/auraya/voicebank/pkg/cli"
	"github.com/auraya/voicebank/pkg/enrol"
	"github.com/auraya/voicebank/pkg/kv"
	"github.com/auraya/voicebank/pkg/userstore"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicebank",
	Short: "Voice-biometric enrolment and verification CLI",
	Long: `voicebank - a command line client for ArmorVox voice biometrics.

The tool keeps a local user profile (name, phone number, verification
preferences) and drives the full enrolment and verification flows
against an ArmorVox server: prompting, capturing audio, uploading
utterances and reacting to the server's outcome.

Configuration is stored in ~/.voicebank/ and supports multiple server
contexts, similar to kubectl's context management.

Examples:
  # Point the tool at a server
  voicebank config add-context demo --server-url http://52.65.165.8:9006/v5/
  voicebank config use-context demo

  # Set up the local profile
  voicebank profile set --name "Alex" --phone "0455 512 345"

  # Enrol with prerecorded WAV files (3 phrase + 5 number takes)
  voicebank enrol --phrase "my email address" --audio p1.wav,p2.wav,...

  # Verify a sample
  voicebank verify --method numbers --audio sample.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.voicebank/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(enrolCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Configure slog based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config: %v\n", err)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context configuration to use
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, fmt.Errorf("no context specified. Use -c flag or set a default context with 'voicebank config use-context'")
		}
		return nil, err
	}

	return ctx, nil
}

// newClient builds an ArmorVox client for the resolved context, with a
// network-activity counter reported through slog when verbose.
func newClient(cctx *cli.Context) (*armorvox.Client, error) {
	counter := activity.New(func(n int) {
		slog.Debug("network activity", "in_flight", n)
	})
	opts := []armorvox.Option{armorvox.WithActivity(counter)}
	if cctx.Timeout > 0 {
		opts = append(opts, armorvox.WithTimeout(time.Duration(cctx.Timeout)*time.Second))
	}
	return armorvox.NewClient(cctx.ServerURL, opts...)
}

// openUsers opens the profile store backed by Badger under
// ~/.voicebank/data/profile. The returned closer must be called before
// exit.
func openUsers() (*userstore.Store, func(), error) {
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, nil, err
	}
	if err := paths.EnsureDataDir(); err != nil {
		return nil, nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: paths.DataPath("profile")})
	if err != nil {
		return nil, nil, err
	}
	return userstore.New(store), func() { store.Close() }, nil
}

// newRecorder builds a recorder replaying the given WAV files into
// ~/.voicebank/recordings.
func newRecorder(audioFiles []string) (*capture.Recorder, error) {
	dev, err := capture.NewFileDevice(audioFiles...)
	if err != nil {
		return nil, err
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureRecordingsDir(); err != nil {
		return nil, err
	}
	opts := []capture.RecorderOption{
		// File replay ends on its own; no need to wait out the grace
		// period between takes.
		capture.WithGracePeriod(time.Second),
	}
	if verbose {
		opts = append(opts, capture.WithMeterHook(func(peak, average float64) {
			fmt.Fprintf(os.Stderr, "\r%s", cli.LevelBar(average, 30))
		}))
	}
	rec := capture.NewRecorder(dev, capture.GrantAll{}, paths.RecordingsDir(), opts...)
	<-rec.Ready()
	return rec, nil
}

// notifyPrinter renders sequencer events for the terminal.
func notifyPrinter() func(enrol.Event) {
	styles := cli.NewStyles(cli.DefaultTheme)
	return func(ev enrol.Event) {
		switch ev.Kind {
		case enrol.EventPrompt:
			position := ""
			if ev.Total > 1 {
				position = fmt.Sprintf("take %d of %d", ev.Index+1, ev.Total)
			}
			fmt.Println(styles.PromptCard("Please say:  "+ev.Item.Text, position))
		case enrol.EventSubmitting:
			cli.PrintInfo("Uploading %s stage...", ev.Stage)
		case enrol.EventStageRestart:
			cli.PrintWarning("The server needs the %s stage again", ev.Stage)
		case enrol.EventStageDone:
			cli.PrintSuccess("%s stage accepted", ev.Stage)
		case enrol.EventEnrolled:
			fmt.Println(styles.Accept.Render("✓ Enrolment complete"))
		}
	}
}

// parseMethod maps a --method flag value onto a verification method.
// Empty falls back to the profile's stored choice.
func parseMethod(s string, stored userstore.Method) (userstore.Method, error) {
	switch s {
	case "":
		return stored, nil
	case "phrase":
		return userstore.MethodPhrase, nil
	case "numbers":
		return userstore.MethodNumbers, nil
	default:
		return stored, fmt.Errorf("unknown method %q (want phrase or numbers)", s)
	}
}

// outputResult outputs the result using cli package
func outputResult(result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{Format: format})
}
