package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show the platform branding",
	Long: `Prints the branding values baked into this build: the product
names, the brand color and the legal links every page footer carries.`,
	RunE: runTheme,
}

var themeDocCmd = &cobra.Command{
	Use:   "doc [key]",
	Short: "Print the documentation URL for a help article",
	Long: `Prints the documentation URL for a help article key. Without a key
the help index is printed.

Example:
  cloudctl theme doc
  cloudctl theme doc gruppen-ordner`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThemeDoc,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeDocCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	th := theme.Default()

	fmt.Printf("Title:         %s\n", th.Title())
	fmt.Printf("Short name:    %s\n", th.ShortName())
	fmt.Printf("Entity:        %s\n", th.Entity())
	fmt.Printf("Slogan:        %s\n", th.Slogan())
	fmt.Printf("Primary color: %s\n", th.PrimaryColor())
	fmt.Printf("Homepage:      %s\n", th.BaseURL())
	fmt.Printf("Imprint:       %s\n", th.ImprintURL())
	fmt.Printf("Privacy:       %s\n", th.PrivacyURL())

	return nil
}

func runThemeDoc(cmd *cobra.Command, args []string) error {
	key := ""
	if len(args) > 0 {
		key = args[0]
	}

	fmt.Println(theme.Default().DocLink(key))
	return nil
}
