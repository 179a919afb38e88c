package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thqm-go/thqm/internal/config"
	"github.com/thqm-go/thqm/internal/style"
)

var stylesInstallForce bool

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List and install page styles",
	Long: `Styles control how the page of entries looks. Built-in styles ship with
thqm; installed copies in the data directory can be edited and take
precedence over the built-in ones.`,
}

var stylesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available styles",
	Args:  cobra.NoArgs,
	RunE:  runStylesList,
}

var stylesInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Copy the built-in styles to the data directory for editing",
	Long: `Copies the built-in styles to <data dir>/styles. Styles that are already
installed are left alone unless --force is given.

Example:
  thqm styles install
  thqm styles install --force`,
	Args: cobra.NoArgs,
	RunE: runStylesInstall,
}

func init() {
	stylesInstallCmd.Flags().BoolVarP(&stylesInstallForce, "force", "f", false, "overwrite installed styles")

	stylesCmd.AddCommand(stylesListCmd)
	stylesCmd.AddCommand(stylesInstallCmd)
	rootCmd.AddCommand(stylesCmd)
}

func runStylesList(cmd *cobra.Command, args []string) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	return listStyles(cmd, dataDir)
}

func listStyles(cmd *cobra.Command, dataDir string) error {
	names, err := style.List(dataDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		s, err := style.Load(name, dataDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t(%s)\n", name, s.Source)
	}
	return nil
}

func runStylesInstall(cmd *cobra.Command, args []string) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	return installStyles(cmd, dataDir, stylesInstallForce)
}

func installStyles(cmd *cobra.Command, dataDir string, force bool) error {
	installed, err := style.Install(dataDir, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(installed) == 0 {
		fmt.Fprintln(out, "All styles already installed. Use --force to overwrite.")
		return nil
	}
	for _, name := range installed {
		fmt.Fprintf(out, "Installed %s\n", name)
	}
	fmt.Fprintf(out, "Styles directory: %s\n", style.StylesDir(dataDir))
	return nil
}
