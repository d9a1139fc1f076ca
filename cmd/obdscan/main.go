package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/gavinwade12/obdscan/protocols/canbus/socketcan"
	"github.com/gavinwade12/obdscan/protocols/obd"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const deviceSettingName string = "device"

var configFile string
var device string
var readTimeout time.Duration
var writeTimeout time.Duration
var padding bool
var padByte uint8
var noColor bool
var quiet bool
var verbose bool

func init() {
	cobra.OnInitialize(func() {
		initConfig()
		postInitCommands(rootCmd.Commands())
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.obdscan.yaml)")
	flags.StringVar(&device, deviceSettingName, "", "CAN interface to use. Example: can0")
	flags.DurationVar(&readTimeout, "read-timeout", socketcan.DefaultReadTimeout, "timeout for a single socket read (0 disables it)")
	flags.DurationVar(&writeTimeout, "write-timeout", socketcan.DefaultWriteTimeout, "timeout for a single socket write (0 disables it)")
	flags.BoolVar(&padding, "padding", true, "pad transmitted frames to 8 bytes")
	flags.Uint8Var(&padByte, "pad-byte", socketcan.DefaultPadByte, "byte used to pad transmitted frames")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&quiet, "quiet", false, "quiet all log output")
	flags.BoolVar(&verbose, "verbose", false, "provide verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:           "obdscan",
	Short:         "A CLI for discovering OBD-II ECUs and their supported PIDs over SocketCAN.",
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalf("finding home directory: %v\n", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".obdscan")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			if err = writeNewConfig(); err != nil {
				log.Fatalf("creating config file: %v\n", err)
			}
		} else {
			log.Fatalf("reading config file: %v\n", err)
		}
	}
}

func writeNewConfig() error {
	if configFile == "" {
		return viper.SafeWriteConfig()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return err
	}
	return viper.SafeWriteConfigAs(configFile)
}

func postInitCommands(commands []*cobra.Command) {
	for _, cmd := range commands {
		presetRequiredFlags(cmd)
		if cmd.HasSubCommands() {
			postInitCommands(cmd.Commands())
		}
	}
}

func presetRequiredFlags(cmd *cobra.Command) {
	viper.BindPFlags(cmd.Flags())
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			cmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func obdLogger(cmd *cobra.Command) obd.Logger {
	if !verbose || quiet {
		return obd.NopLogger
	}
	return obd.DefaultLogger(cmd.ErrOrStderr())
}

// busOptions builds the socket options from the flags. A device given as
// an argument wins over the configured one.
func busOptions(args []string) (socketcan.Options, error) {
	opts := socketcan.DefaultOptions(device)
	if len(args) > 0 {
		opts.Device = args[0]
	}
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.TxPadding = padding
	opts.PadByte = padByte

	if err := opts.Validate(); err != nil {
		return opts, errors.Wrap(err, "invalid bus settings")
	}
	return opts, nil
}
