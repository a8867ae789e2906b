package daemon

import (
	"fmt"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/spf13/cobra"

	"github.com/txsched/txsched/config"
	"github.com/txsched/txsched/util"
)

// CommandInit returns the init command of schedd that creates the home dir.
func CommandInit(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "init",
		Short:   "Initialize a schedd home directory.",
		Long:    `Creates a new schedd home directory with default config`,
		Example: fmt.Sprintf(`%s init --home /home/user/.schedd --force`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runInitCmd,
	}
	cmd.Flags().String(homeFlag, config.DefaultScheddDir, "The application home directory")
	cmd.Flags().Bool(forceFlag, false, "Override existing configuration")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	home, err := cmd.Flags().GetString(homeFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", homeFlag, err)
	}

	homePath, err := filepath.Abs(home)
	if err != nil {
		return err
	}
	homePath = util.CleanAndExpandPath(homePath)

	force, err := cmd.Flags().GetBool(forceFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", forceFlag, err)
	}

	if util.FileExists(config.CfgFile(homePath)) && !force {
		return fmt.Errorf("home path %s already exists", homePath)
	}

	if err := util.MakeDirectory(homePath); err != nil {
		return err
	}
	if err := util.MakeDirectory(config.LogDir(homePath)); err != nil {
		return err
	}
	if err := util.MakeDirectory(config.DataDir(homePath)); err != nil {
		return err
	}

	defaultConfig := config.DefaultConfigWithHome(homePath)
	fileParser := flags.NewParser(&defaultConfig, flags.Default)

	return flags.NewIniParser(fileParser).WriteFile(
		config.CfgFile(homePath),
		flags.IniIncludeComments|flags.IniIncludeDefaults,
	)
}
